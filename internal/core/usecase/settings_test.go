package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

func TestGetAPIKeyMasksValue(t *testing.T) {
	uc := NewSettingsUseCase(&settingsFake{key: "sk-abcdef1234"}, "")
	masked, configured, err := uc.GetAPIKey(context.Background())
	if err != nil {
		t.Fatalf("GetAPIKey() error = %v", err)
	}
	if !configured || masked != "*********1234" {
		t.Fatalf("unexpected masked key %q (%v)", masked, configured)
	}
}

func TestGetAPIKeyReportsUnconfigured(t *testing.T) {
	masked, configured, err := NewSettingsUseCase(&settingsFake{}, "").GetAPIKey(context.Background())
	if err != nil || configured || masked != "" {
		t.Fatalf("unexpected result %q %v %v", masked, configured, err)
	}
}

func TestGetAPIKeySurfacesStoreError(t *testing.T) {
	_, _, err := NewSettingsUseCase(&settingsFake{loadErr: errors.New("disk")}, "").GetAPIKey(context.Background())
	if !domain.IsKind(err, domain.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestSaveAPIKeyValidates(t *testing.T) {
	store := &settingsFake{}
	uc := NewSettingsUseCase(store, "")
	for _, bad := range []string{"", "   ", "sk with space"} {
		if err := uc.SaveAPIKey(context.Background(), bad); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("%q: expected invalid input, got %v", bad, err)
		}
	}
	if err := uc.SaveAPIKey(context.Background(), "  sk-ok \n"); err != nil {
		t.Fatalf("SaveAPIKey() error = %v", err)
	}
	if len(store.saved) != 1 || store.saved[0] != "sk-ok" {
		t.Fatalf("unexpected saved keys %v", store.saved)
	}
}

func TestMaskKeyShortValues(t *testing.T) {
	if got := maskKey("abc"); got != "***" {
		t.Fatalf("maskKey(abc) = %q", got)
	}
}
