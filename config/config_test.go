package config

import (
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range GetEnvVars() {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.IntakeDir != "intake" {
		t.Errorf("expected default intake dir, got %s", cfg.IntakeDir)
	}
	if cfg.OutputFile != "output/composition.xlsx" {
		t.Errorf("expected default output file, got %s", cfg.OutputFile)
	}
	if cfg.ScanIntervalMins != 15 {
		t.Errorf("expected default scan interval 15, got %d", cfg.ScanIntervalMins)
	}
	if cfg.MaxRequestBody != 33554432 {
		t.Errorf("expected default 32MB request body, got %d", cfg.MaxRequestBody)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ADDRESS", "192.168.1.10")
	t.Setenv("ENV", "prod")
	t.Setenv("INTAKE_DIR", "/srv/dexa/intake")
	t.Setenv("OUTPUT_FILE", "/srv/dexa/out/batch.xlsx")
	t.Setenv("SCAN_INTERVAL_MINUTES", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected environment config to validate, got %v", err)
	}

	if cfg.Port != "9000" || cfg.Address != "192.168.1.10" || cfg.Env != "prod" {
		t.Errorf("expected env overrides applied, got %+v", cfg)
	}
	if cfg.IntakeDir != "/srv/dexa/intake" || cfg.OutputFile != "/srv/dexa/out/batch.xlsx" {
		t.Errorf("expected path overrides applied, got %+v", cfg)
	}
	if cfg.ScanIntervalMins != 60 {
		t.Errorf("expected scan interval 60, got %d", cfg.ScanIntervalMins)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"privileged port", "PORT", "80"},
		{"non-numeric port", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"public address", "ADDRESS", "8.8.8.8"},
		{"garbage address", "ADDRESS", "not-an-ip"},
		{"unknown env", "ENV", "production!"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"zero retention", "LOG_RETENTION_WEEKS", "0"},
		{"huge retention", "LOG_RETENTION_WEEKS", "104"},
		{"tiny log file", "MAX_LOG_FILE_SIZE", "1024"},
		{"huge request body", "MAX_REQUEST_BODY", "209715200"},
		{"wrong output extension", "OUTPUT_FILE", "out/batch.csv"},
		{"zero scan interval", "SCAN_INTERVAL_MINUTES", "0"},
		{"scan interval over a day", "SCAN_INTERVAL_MINUTES", "2000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected %s=%s to fail validation", tc.key, tc.value)
			}
		})
	}
}

func TestValidateAddressAcceptsPrivateRanges(t *testing.T) {
	for _, addr := range []string{"127.0.0.1", "localhost", "::1", "10.0.0.5", "192.168.0.2", "172.16.4.1"} {
		if err := validateAddress(addr); err != nil {
			t.Errorf("expected %s to pass, got %v", addr, err)
		}
	}
}

func TestInvalidNumericEnvFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCAN_INTERVAL_MINUTES", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected unparseable int to fall back to default, got %v", err)
	}
	if cfg.ScanIntervalMins != 15 {
		t.Errorf("expected default 15 on unparseable value, got %d", cfg.ScanIntervalMins)
	}
}
