package settings

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"gespro/internal/core/appctx"
	"gespro/internal/core/apperror"
	"gespro/pkg/logger"
)

// MaxLogoSize caps logo uploads.
const MaxLogoSize = 2 << 20 // 2 MiB

var allowedLogoTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// Service manages company settings and the logo upload.
type Service struct {
	repo  Repository
	files FileStore
}

// NewService creates a settings service.
func NewService(repo Repository, files FileStore) *Service {
	return &Service{repo: repo, files: files}
}

// Get returns the current user's settings, falling back to defaults when
// none were saved yet.
func (s *Service) Get(ctx context.Context) (*CompanySettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return NewCompanySettings(appctx.GetUserID(ctx), ""), nil
		}
		return nil, err
	}
	return settings, nil
}

// UpdateInput carries the editable settings fields.
type UpdateInput struct {
	CompanyName string  `json:"companyName"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
	Currency    string  `json:"currency"`
}

// Update saves the current user's settings.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*CompanySettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	settings.CompanyName = strings.TrimSpace(in.CompanyName)
	settings.Address = in.Address
	settings.Phone = in.Phone
	settings.Email = in.Email
	if in.Currency != "" {
		settings.Currency = strings.ToUpper(in.Currency)
	}
	settings.UpdatedAt = time.Now()

	if err := settings.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	return settings, nil
}

// UploadLogo stores a new logo and records its public URL. The previous
// logo file, if any, is removed best-effort.
func (s *Service) UploadLogo(ctx context.Context, contentType string, size int64, r io.Reader) (*CompanySettings, error) {
	ext, ok := allowedLogoTypes[contentType]
	if !ok {
		return nil, apperror.NewValidation("unsupported logo format").
			WithDetail("content_type", contentType)
	}
	if size > MaxLogoSize {
		return nil, apperror.NewValidation("logo file is too large").
			WithDetail("max_bytes", MaxLogoSize)
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := path.Join("logos", appctx.GetUserID(ctx)+ext)
	url, err := s.files.Save(ctx, key, contentType, io.LimitReader(r, MaxLogoSize))
	if err != nil {
		return nil, fmt.Errorf("store logo: %w", err)
	}

	if settings.LogoURL != nil && *settings.LogoURL != url {
		if err := s.files.Remove(ctx, keyFromURL(*settings.LogoURL)); err != nil {
			logger.Warn(ctx, "previous logo cleanup failed", "error", err)
		}
	}

	settings.LogoURL = &url
	settings.UpdatedAt = time.Now()
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	return settings, nil
}

// keyFromURL maps a public URL back to a storage key. URLs are of the
// form <prefix>/logos/<file>; everything before "logos/" is the prefix.
func keyFromURL(url string) string {
	if i := strings.Index(url, "logos/"); i >= 0 {
		return url[i:]
	}
	return url
}
