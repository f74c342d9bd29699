package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sakif/snippets-guru/internal/apperror"
	"github.com/sakif/snippets-guru/internal/model"
	"github.com/sakif/snippets-guru/internal/repository"
)

// SettingsService reads and writes the cloud flags. The auth token is owned
// by AccountService because it must be verified before it is stored.
type SettingsService struct {
	settings repository.SettingRepository
	logger   *slog.Logger
}

func NewSettingsService(settings repository.SettingRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{settings: settings, logger: logger}
}

// All returns every known setting. Unset keys map to "".
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	stored, err := s.settings.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/settings: listing: %w", err)
	}

	all := make(map[string]string, len(model.SettingKeys))
	for _, key := range model.SettingKeys {
		all[key] = stored[key]
	}
	return all, nil
}

// SetFlag turns a boolean setting on or off. value accepts 1/0, true/false,
// on/off and yes/no.
func (s *SettingsService) SetFlag(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)

	err := validation.Validate(key,
		validation.Required,
		validation.In(model.SettingPushNewSnippet, model.SettingAsyncPush).
			Error("must be one of push_new_snippet, async_push"),
	)
	if err != nil {
		return apperror.ValidationFailed("key", fmt.Sprintf("setting %q: %s", key, err.Error()))
	}

	on, ok := parseFlag(value)
	if !ok {
		return apperror.ValidationFailed("value", fmt.Sprintf("setting %s: %q is not a boolean", key, value))
	}

	stored := ""
	if on {
		stored = "1"
	}

	if err := s.settings.SetSetting(ctx, key, stored); err != nil {
		return fmt.Errorf("service/settings: storing %s: %w", key, err)
	}

	s.logger.Info("setting changed", slog.String("key", key), slog.Bool("value", on))
	return nil
}

func parseFlag(value string) (on bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no", "":
		return false, true
	}
	return false, false
}
