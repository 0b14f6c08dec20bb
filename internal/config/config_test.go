package config

import "testing"

const defaultMaxFileSize int64 = 50 * 1024 * 1024

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("MAX_FILE_SIZE", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("TEMPLATE_PATH", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("OCR_LANGUAGE", "")

	cfg := NewConfig()

	if cfg.GetServerPort() != "8080" {
		t.Fatalf("expected default server port 8080, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != defaultMaxFileSize {
		t.Fatalf("expected default max file size %d, got %d", defaultMaxFileSize, cfg.GetMaxFileSize())
	}
	if cfg.GetLogLevel() != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.GetLogLevel())
	}
	if cfg.GetLogFormat() != "console" {
		t.Fatalf("expected default log format console, got %s", cfg.GetLogFormat())
	}
	if cfg.GetTemplatePath() != "./templates/german_clinical_default.json" {
		t.Fatalf("unexpected default template path %s", cfg.GetTemplatePath())
	}
	if cfg.GetDataDir() != "./data" {
		t.Fatalf("expected default data dir ./data, got %s", cfg.GetDataDir())
	}
	if cfg.GetOCRLanguage() != "deu" {
		t.Fatalf("expected default OCR language deu, got %s", cfg.GetOCRLanguage())
	}
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("MAX_FILE_SIZE", "12345")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("TEMPLATE_PATH", "/etc/redact/template.json")
	t.Setenv("DATA_DIR", "/var/lib/redact")
	t.Setenv("OCR_LANGUAGE", "deu+eng")

	cfg := NewConfig()

	if cfg.GetServerPort() != "9090" {
		t.Fatalf("expected server port 9090, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != 12345 {
		t.Fatalf("expected max file size 12345, got %d", cfg.GetMaxFileSize())
	}
	if cfg.GetLogLevel() != "debug" {
		t.Fatalf("expected log level debug, got %s", cfg.GetLogLevel())
	}
	if cfg.GetLogFormat() != "json" {
		t.Fatalf("expected log format json, got %s", cfg.GetLogFormat())
	}
	if cfg.GetTemplatePath() != "/etc/redact/template.json" {
		t.Fatalf("unexpected template path %s", cfg.GetTemplatePath())
	}
	if cfg.GetDataDir() != "/var/lib/redact" {
		t.Fatalf("unexpected data dir %s", cfg.GetDataDir())
	}
	if cfg.GetOCRLanguage() != "deu+eng" {
		t.Fatalf("unexpected OCR language %s", cfg.GetOCRLanguage())
	}
}

func TestNewConfig_PortFallback(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SERVER_PORT", "7070")

	cfg := NewConfig()
	if cfg.GetServerPort() != "7070" {
		t.Fatalf("expected SERVER_PORT fallback 7070, got %s", cfg.GetServerPort())
	}
}
