// Package settings loads and saves the singleton application settings row.
package settings

import (
	"context"
	"fmt"
	"net/http"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/pkg/logger"
)

// LicenseChecker reports whether a paid license is active
type LicenseChecker interface {
	IsActive(ctx context.Context) (bool, error)
}

// Store persists AppSettings as the aca_settings option
type Store struct {
	repo     storage.Repository
	activity *activity.Log
	license  LicenseChecker
	enforce  bool
	logger   *logger.Logger
}

// NewStore creates a settings store. When enforce is set, full-automatic
// mode requires an active license.
func NewStore(repo storage.Repository, act *activity.Log, license LicenseChecker, enforce bool, log *logger.Logger) *Store {
	return &Store{
		repo:     repo,
		activity: act,
		license:  license,
		enforce:  enforce,
		logger:   log.WithComponent("settings"),
	}
}

// Load returns the stored settings merged over the defaults
func (s *Store) Load(ctx context.Context) (models.AppSettings, error) {
	settings := models.DefaultSettings()
	if _, err := s.repo.GetOption(ctx, models.OptionSettings, &settings); err != nil {
		return models.DefaultSettings(), fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// Save validates and stores the settings
func (s *Store) Save(ctx context.Context, in models.AppSettings) (models.AppSettings, error) {
	if err := in.Validate(); err != nil {
		return in, service.New(service.CodeInvalidSetting, http.StatusBadRequest, "%s", err.Error())
	}

	if in.Mode == models.ModeFullAutomatic && s.enforce {
		active := false
		if s.license != nil {
			var err error
			if active, err = s.license.IsActive(ctx); err != nil {
				return in, fmt.Errorf("failed to check license: %w", err)
			}
		}
		if !active {
			return in, service.New(service.CodeLicenseRequired, http.StatusForbidden,
				"full-automatic mode requires an active license")
		}
	}

	if err := s.repo.SetOption(ctx, models.OptionSettings, in); err != nil {
		return in, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info().
		Str("mode", string(in.Mode)).
		Bool("auto_publish", in.AutoPublish).
		Str("image_provider", in.ImageSourceProvider).
		Msg("Settings saved")
	s.activity.Record(ctx, models.ActivitySettingsUpdated, "Settings updated", models.IconSettings)

	return in, nil
}
