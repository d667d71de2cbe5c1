// Package license verifies paid license keys against a Gumroad-compatible
// endpoint and stores the result.
package license

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/pkg/logger"
)

// verifyResponse is the verification endpoint reply
type verifyResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Purchase struct {
		Email                 string `json:"email"`
		Refunded              bool   `json:"refunded"`
		Chargebacked          bool   `json:"chargebacked"`
		SubscriptionEndedAt   string `json:"subscription_ended_at"`
		SubscriptionCancelled string `json:"subscription_cancelled_at"`
	} `json:"purchase"`
}

// Service verifies and reports the license state
type Service struct {
	verifyURL  string
	productID  string
	repo       storage.Repository
	activity   *activity.Log
	httpClient *http.Client
	logger     *logger.Logger
}

// NewService creates a license service
func NewService(cfg config.LicenseConfig, repo storage.Repository, act *activity.Log, log *logger.Logger) *Service {
	return &Service{
		verifyURL:  cfg.VerifyURL,
		productID:  cfg.ProductID,
		repo:       repo,
		activity:   act,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.WithComponent("license"),
	}
}

// Verify checks a key with the endpoint and stores the outcome
func (s *Service) Verify(ctx context.Context, key string) (*models.LicenseStatus, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, service.New(service.CodeInvalidLicense, http.StatusBadRequest, "license key is required")
	}

	ok, email, reason, err := s.check(ctx, key)
	if err != nil {
		return nil, service.Wrap(err, service.CodeUpstream, http.StatusBadGateway, "license verification failed")
	}

	now := time.Now().UTC()
	status := &models.LicenseStatus{
		Status:     models.LicenseInactive,
		KeySuffix:  suffix(key),
		VerifiedAt: &now,
	}
	if ok {
		status.Status = models.LicenseActive
		status.Email = email
	}

	if err := s.repo.SetOption(ctx, models.OptionLicense, status); err != nil {
		return nil, fmt.Errorf("failed to store license status: %w", err)
	}

	if !ok {
		s.logger.Warn().Str("key_suffix", status.KeySuffix).Str("reason", reason).Msg("License rejected")
		return status, service.New(service.CodeInvalidLicense, http.StatusBadRequest, "license is not valid: %s", reason)
	}

	s.logger.Info().Str("key_suffix", status.KeySuffix).Msg("License verified")
	s.activity.Recordf(ctx, models.ActivityLicenseVerified, models.IconKey, "License ending in %s verified", status.KeySuffix)

	return status, nil
}

func (s *Service) check(ctx context.Context, key string) (bool, string, string, error) {
	form := url.Values{}
	form.Set("product_id", s.productID)
	form.Set("license_key", key)
	form.Set("increment_uses_count", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, "", "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return false, "", "", fmt.Errorf("failed to read response: %w", err)
	}

	// Unknown keys come back as 404 with success=false
	if resp.StatusCode >= 500 {
		return false, "", "", fmt.Errorf("verification endpoint returned %s", resp.Status)
	}

	var result verifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, "", "", fmt.Errorf("failed to decode response: %w", err)
	}

	switch {
	case !result.Success:
		reason := result.Message
		if reason == "" {
			reason = "unknown license key"
		}
		return false, "", reason, nil
	case result.Purchase.Refunded, result.Purchase.Chargebacked:
		return false, "", "purchase was refunded", nil
	case result.Purchase.SubscriptionEndedAt != "", result.Purchase.SubscriptionCancelled != "":
		return false, "", "subscription has ended", nil
	}
	return true, result.Purchase.Email, "", nil
}

// Status returns the stored license status, inactive when never verified
func (s *Service) Status(ctx context.Context) (*models.LicenseStatus, error) {
	status := &models.LicenseStatus{Status: models.LicenseInactive}
	if _, err := s.repo.GetOption(ctx, models.OptionLicense, status); err != nil {
		return nil, fmt.Errorf("failed to load license status: %w", err)
	}
	return status, nil
}

// IsActive reports whether the last verification succeeded
func (s *Service) IsActive(ctx context.Context) (bool, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return false, err
	}
	return status.IsActive(), nil
}

func suffix(key string) string {
	if len(key) <= 4 {
		return key
	}
	return key[len(key)-4:]
}
