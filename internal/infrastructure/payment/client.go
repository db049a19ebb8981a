// Package payment implements the HTTP client for the external payment
// gateway used to collect subscription fees.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gespro/internal/core/apperror"
	"gespro/internal/domain/billing"
	"gespro/pkg/logger"
)

// Config holds gateway client configuration.
type Config struct {
	BaseURL   string
	ReturnURL string
	Timeout   time.Duration
}

// DefaultConfig returns a client configuration with sane timeouts.
func DefaultConfig(baseURL, returnURL string) Config {
	return Config{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ReturnURL: returnURL,
		Timeout:   15 * time.Second,
	}
}

// Client talks to the payment gateway. It implements billing.GatewayClient.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a gateway client.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// initiateRequest is the wire shape the gateway expects. Field names are
// the provider's contract and must not be renamed.
type initiateRequest struct {
	TotalPrice   string `json:"totalPrice"`
	Article      string `json:"article"`
	NumeroSend   string `json:"numeroSend"`
	NomClient    string `json:"nomclient"`
	PersonalInfo string `json:"personal_Info"`
	ReturnURL    string `json:"return_url"`
}

type initiateResponse struct {
	Statut  bool   `json:"statut"`
	Token   string `json:"token"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

type notifResponse struct {
	Statut  bool   `json:"statut"`
	Message string `json:"message"`
	Data    struct {
		Statut string `json:"statut"`
	} `json:"data"`
}

// InitiatePayment starts a payment and returns the checkout token and URL.
func (c *Client) InitiatePayment(ctx context.Context, req billing.PaymentRequest) (*billing.PaymentInit, error) {
	payload := initiateRequest{
		TotalPrice:   req.Amount.String(),
		Article:      req.Article,
		NumeroSend:   req.PayerPhone,
		NomClient:    req.PayerName,
		PersonalInfo: req.PersonalInfo,
		ReturnURL:    c.config.ReturnURL,
	}

	var resp initiateResponse
	if err := c.postJSON(ctx, c.config.BaseURL, payload, &resp); err != nil {
		return nil, err
	}

	if !resp.Statut {
		// The gateway message is surfaced to the caller as-is.
		return nil, apperror.NewPaymentGateway(gatewayMessage(resp.Message), nil)
	}
	if resp.Token == "" || resp.URL == "" {
		return nil, apperror.NewPaymentGateway("réponse de la passerelle de paiement incomplète", nil)
	}

	logger.Info(ctx, "payment initiated",
		"article", req.Article,
		"token", resp.Token)

	return &billing.PaymentInit{Token: resp.Token, URL: resp.URL}, nil
}

// CheckPayment polls the payment state for a token. The payment is
// considered settled only when the gateway answers statut=true with a
// nested data.statut of "paid".
func (c *Client) CheckPayment(ctx context.Context, token string) (*billing.PaymentStatus, error) {
	url := fmt.Sprintf("%s/paiementNotif/%s", c.config.BaseURL, token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperror.NewPaymentGateway("la passerelle de paiement est injoignable", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, apperror.NewPaymentGateway(
			fmt.Sprintf("la passerelle de paiement a répondu %d", httpResp.StatusCode), nil).
			WithDetail("body", string(body))
	}

	var resp notifResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperror.NewPaymentGateway("réponse de la passerelle de paiement illisible", err)
	}

	return &billing.PaymentStatus{
		Paid:      resp.Statut && resp.Data.Statut == "paid",
		RawStatus: resp.Data.Statut,
		Message:   resp.Message,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apperror.NewPaymentGateway("la passerelle de paiement est injoignable", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return apperror.NewPaymentGateway(
			fmt.Sprintf("la passerelle de paiement a répondu %d", httpResp.StatusCode), nil).
			WithDetail("body", string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apperror.NewPaymentGateway("réponse de la passerelle de paiement illisible", err)
	}

	return nil
}

func gatewayMessage(msg string) string {
	if msg == "" {
		return "paiement refusé par la passerelle"
	}
	return msg
}
