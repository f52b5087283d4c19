package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"AI_PROVIDER", "PDF_STRUCTURED_ENABLED", "SETTINGS_BACKEND", "SESSION_GATE_ENABLED", "BREAKER_OPEN_TIMEOUT_SECONDS", "DOM_MIN_CHARS"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	if cfg.AIProvider != "openai" {
		t.Fatalf("expected default provider openai, got %q", cfg.AIProvider)
	}
	if !cfg.PDFStructuredEnabled {
		t.Fatalf("expected structured pdf strategy enabled by default")
	}
	if cfg.SettingsBackend != "file" {
		t.Fatalf("expected file settings backend, got %q", cfg.SettingsBackend)
	}
	if cfg.SessionGateEnabled {
		t.Fatalf("session gate must be disabled by default")
	}
	if cfg.BreakerOpenTimeout != 30*time.Second {
		t.Fatalf("expected 30s breaker timeout, got %v", cfg.BreakerOpenTimeout)
	}
	if cfg.DOMMinChars != 100 {
		t.Fatalf("expected 100 char threshold, got %d", cfg.DOMMinChars)
	}
}

func TestFromEnvParsesOverrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", "Gemini")
	t.Setenv("PDF_STRUCTURED_ENABLED", "false")
	t.Setenv("PDF_MIN_CHARS", "80")
	t.Setenv("FETCH_MAX_BYTES", "1024")
	t.Setenv("SESSION_GATE_ENABLED", "not-a-bool")

	cfg := FromEnv()
	if cfg.AIProvider != "gemini" {
		t.Fatalf("expected provider override, got %q", cfg.AIProvider)
	}
	if cfg.PDFStructuredEnabled {
		t.Fatalf("expected structured strategy disabled")
	}
	if cfg.PDFMinChars != 80 || cfg.FetchMaxBytes != 1024 {
		t.Fatalf("unexpected numeric overrides %d %d", cfg.PDFMinChars, cfg.FetchMaxBytes)
	}
	if cfg.SessionGateEnabled {
		t.Fatalf("invalid bool must fall back to default")
	}
}

func TestLoadReadsEnvFileWithoutOverriding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("WISE_PROFILE_ID=12345\nAI_MODEL=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("AI_MODEL", "from-env")
	t.Setenv("WISE_PROFILE_ID", "")
	os.Unsetenv("WISE_PROFILE_ID")

	cfg := Load()
	if cfg.WiseProfileID != "12345" {
		t.Fatalf("expected profile from env file, got %q", cfg.WiseProfileID)
	}
	if cfg.AIModel != "from-env" {
		t.Fatalf("process env must win over env file, got %q", cfg.AIModel)
	}
}
