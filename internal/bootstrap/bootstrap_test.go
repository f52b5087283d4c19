package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kirillkom/invoice-autofill/internal/config"
)

func TestNewWiresFileBackendAndServesSettings(t *testing.T) {
	cfg := config.Config{
		AIProvider:      "openai",
		SettingsBackend: "file",
		SettingsPath:    filepath.Join(t.TempDir(), "settings.json"),
		BreakerEnabled:  true,
	}
	app, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	reply := app.Dispatcher.Dispatch(context.Background(), []byte(`{"action":"saveApiKey","api_key":"sk-abcdef1234"}`))
	if string(reply) != `{"saved":true}` {
		t.Fatalf("unexpected reply %s", reply)
	}
	masked, configured, err := app.Settings.GetAPIKey(context.Background())
	if err != nil || !configured || masked == "sk-abcdef1234" {
		t.Fatalf("unexpected masked key %q %v %v", masked, configured, err)
	}
}

func TestNewRejectsUnknownProviders(t *testing.T) {
	base := config.Config{SettingsBackend: "file", SettingsPath: filepath.Join(t.TempDir(), "s.json")}

	cfg := base
	cfg.AIProvider = "mystery"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected unknown ai provider error")
	}

	cfg = base
	cfg.SettingsBackend = "redis"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected unknown settings backend error")
	}
}
