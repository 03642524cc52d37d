package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
sources:
  - name: bep
    url: "https://bep.co.kr/Career/recruitment?type=3"
    company: "워터(BEP)"
    enabled: true
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule != "@every 24h" {
		t.Errorf("schedule = %q, want default", cfg.Schedule)
	}
	if cfg.Content.MinLength != 120 {
		t.Errorf("min_length = %d, want 120", cfg.Content.MinLength)
	}
	if cfg.Content.FetchTimeout != 20*time.Second {
		t.Errorf("fetch_timeout = %v, want 20s", cfg.Content.FetchTimeout)
	}
	if cfg.Content.MaxWorkers != 4 {
		t.Errorf("max_workers = %d, want 4", cfg.Content.MaxWorkers)
	}
	if cfg.RateLimit.MinInterval != time.Second {
		t.Errorf("min_interval = %v, want 1s", cfg.RateLimit.MinInterval)
	}
	if cfg.Store.Backend != "csv" {
		t.Errorf("backend = %q, want csv", cfg.Store.Backend)
	}
	if cfg.Store.ActivePath != "job_listings_all.csv" {
		t.Errorf("active_path = %q", cfg.Store.ActivePath)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
schedule: "0 9 * * *"
sources:
  - name: saramin
    url: "https://www.saramin.co.kr/zf_user/search/recruit"
    enabled: true
companies:
  - "차지비"
content:
  min_length: 200
  fetch_timeout: 5s
  max_workers: 2
  noise_phrases: ["로그인"]
rate_limit:
  min_interval: 3s
  host_overrides:
    www.saramin.co.kr: 10s
notification:
  type: log
  report_link: "https://files.example.com/all.csv"
store:
  backend: sqlite
  sqlite_path: custom.db
  export_dir: exports
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule != "0 9 * * *" {
		t.Errorf("schedule = %q", cfg.Schedule)
	}
	if cfg.Content.MinLength != 200 || cfg.Content.MaxWorkers != 2 {
		t.Errorf("content config wrong: %+v", cfg.Content)
	}
	if got := cfg.RateLimit.IntervalFor("www.saramin.co.kr"); got != 10*time.Second {
		t.Errorf("override interval = %v, want 10s", got)
	}
	if got := cfg.RateLimit.IntervalFor("other.host"); got != 3*time.Second {
		t.Errorf("fallback interval = %v, want 3s", got)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.SQLitePath != "custom.db" {
		t.Errorf("store config wrong: %+v", cfg.Store)
	}
	if cfg.Store.ExportDir != "exports" {
		t.Errorf("export_dir = %q", cfg.Store.ExportDir)
	}
	if cfg.Notification.ReportLink != "https://files.example.com/all.csv" {
		t.Errorf("report_link = %q", cfg.Notification.ReportLink)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_WEBHOOK", "https://hooks.slack.com/services/T0/B0/x")

	cfg, err := Load(writeConfig(t, minimalConfig+`
notification:
  type: slack
  webhook_url: ${TEST_WEBHOOK}
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Notification.WebhookURL != "https://hooks.slack.com/services/T0/B0/x" {
		t.Errorf("webhook_url = %q, env var not expanded", cfg.Notification.WebhookURL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"no enabled sources",
			`sources: [{name: bep, enabled: false}]`,
			"at least one source",
		},
		{
			"unknown source",
			`sources: [{name: wanted, enabled: true}]`,
			"unknown source",
		},
		{
			"saramin without companies",
			`sources: [{name: saramin, enabled: true}]`,
			"companies list is required",
		},
		{
			"bad backend",
			minimalConfig + "store: {backend: postgres}",
			"store.backend",
		},
		{
			"slack without webhook",
			minimalConfig + "notification: {type: slack}",
			"webhook_url is required",
		},
		{
			"non-slack webhook host",
			minimalConfig + `notification: {type: slack, webhook_url: "https://evil.example.com/x"}`,
			"hooks.slack.com",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
