package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gespro/internal/core/apperror"
	"gespro/internal/domain/billing"
)

func TestInitiatePayment_Success(t *testing.T) {
	var received map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"statut": true,
			"token":  "tok-123",
			"url":    "https://pay.example/checkout/tok-123",
		})
	}))
	defer srv.Close()

	client := NewClient(DefaultConfig(srv.URL, "https://app.example/retour"))

	init, err := client.InitiatePayment(context.Background(), billing.PaymentRequest{
		Amount:       decimal.NewFromInt(5000),
		Article:      "Plan Pro",
		PayerPhone:   "+22670000000",
		PayerName:    "Boutique Kadi",
		PersonalInfo: "abonnement Plan Pro",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", init.Token)
	assert.Equal(t, "https://pay.example/checkout/tok-123", init.URL)

	// The provider's field names are a fixed contract.
	assert.Equal(t, "5000", received["totalPrice"])
	assert.Equal(t, "Plan Pro", received["article"])
	assert.Equal(t, "+22670000000", received["numeroSend"])
	assert.Equal(t, "Boutique Kadi", received["nomclient"])
	assert.Equal(t, "abonnement Plan Pro", received["personal_Info"])
	assert.Equal(t, "https://app.example/retour", received["return_url"])
}

func TestInitiatePayment_GatewayRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"statut":  false,
			"message": "solde marchand insuffisant",
		})
	}))
	defer srv.Close()

	client := NewClient(DefaultConfig(srv.URL, "https://app.example/retour"))

	_, err := client.InitiatePayment(context.Background(), billing.PaymentRequest{
		Amount:  decimal.NewFromInt(5000),
		Article: "Plan Pro",
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePaymentGateway, appErr.Code)
	// The gateway message must reach the caller verbatim.
	assert.Equal(t, "solde marchand insuffisant", appErr.Message)
}

func TestCheckPayment(t *testing.T) {
	tests := []struct {
		name      string
		statut    bool
		dataState string
		wantPaid  bool
	}{
		{"paid", true, "paid", true},
		{"pending", true, "pending", false},
		{"gateway statut false", false, "paid", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/paiementNotif/tok-123", r.URL.Path)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"statut": tt.statut,
					"data":   map[string]string{"statut": tt.dataState},
				})
			}))
			defer srv.Close()

			client := NewClient(DefaultConfig(srv.URL, ""))

			status, err := client.CheckPayment(context.Background(), "tok-123")
			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, status.Paid)
			assert.Equal(t, tt.dataState, status.RawStatus)
		})
	}
}

func TestCheckPayment_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(DefaultConfig(srv.URL, ""))

	_, err := client.CheckPayment(context.Background(), "tok-123")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePaymentGateway, appErr.Code)
}
