package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
	"github.com/kirillkom/invoice-autofill/internal/core/ports"
)

var errAPIKeyMissing = errors.New("API key is not configured; save it in the extension settings")

// credentials loads the API key on every call so a saved key applies to the next request.
type credentials struct {
	store    ports.SettingsStore
	fallback string
}

func (c credentials) load(ctx context.Context) (string, error) {
	if c.store != nil {
		key, err := c.store.LoadAPIKey(ctx)
		if err != nil {
			return "", domain.WrapError(domain.ErrConfig, "load api key", err)
		}
		if key = strings.TrimSpace(key); key != "" {
			return key, nil
		}
	}
	if key := strings.TrimSpace(c.fallback); key != "" {
		return key, nil
	}
	return "", domain.WrapError(domain.ErrConfig, "load api key", errAPIKeyMissing)
}

type SettingsUseCase struct {
	store    ports.SettingsStore
	fallback string
}

func NewSettingsUseCase(store ports.SettingsStore, fallbackKey string) *SettingsUseCase {
	return &SettingsUseCase{store: store, fallback: fallbackKey}
}

// GetAPIKey returns the key masked to its last four characters.
func (uc *SettingsUseCase) GetAPIKey(ctx context.Context) (string, bool, error) {
	key, err := credentials{store: uc.store, fallback: uc.fallback}.load(ctx)
	if errors.Is(err, errAPIKeyMissing) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return maskKey(key), true, nil
}

func (uc *SettingsUseCase) SaveAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.WrapError(domain.ErrInvalidInput, "save api key", errors.New("api key must not be empty"))
	}
	if strings.ContainsAny(key, " \t\r\n") {
		return domain.WrapError(domain.ErrInvalidInput, "save api key", errors.New("api key must not contain whitespace"))
	}
	if err := uc.store.SaveAPIKey(ctx, key); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	return nil
}

func maskKey(key string) string {
	runes := []rune(key)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
