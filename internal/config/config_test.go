package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HorizonDays != 7 || cfg.Schedule != "*/15 * * * *" || cfg.Microsoft.Tenant != "common" {
		t.Fatalf("Load()=%+v, want defaults", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Fatalf("mode=%v, want 0600", info.Mode().Perm())
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
log_level: DEBUG
timezone: Europe/Berlin
accounts:
  - name: work
    provider: " Microsoft "
    calendar_ids: [AAMk1]
caldav:
  username: me@x.com
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.HorizonDays != 7 || cfg.CalDAV.Endpoint != "https://caldav.icloud.com/" {
		t.Fatalf("Load()=%+v", cfg)
	}
	if len(cfg.Accounts) != 1 || cfg.Accounts[0].Provider != "microsoft" || cfg.Accounts[0].CalendarIDs[0] != "AAMk1" {
		t.Fatalf("accounts=%+v", cfg.Accounts)
	}
	if got := cfg.AccountsFor("microsoft"); len(got) != 1 {
		t.Fatalf("AccountsFor(microsoft)=%v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Accounts = append(cfg.Accounts, AccountConfig{Name: "personal", Provider: "google"})
	cfg.Prune = true
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Prune || len(got.Accounts) != 1 || got.Accounts[0].Name != "personal" {
		t.Fatalf("Load()=%+v", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestValidate(t *testing.T) {
	tcs := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"badZone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "invalid timezone"},
		{"windowsZone", func(c *Config) { c.Timezone = "W. Europe Standard Time" }, ""},
		{"badSchedule", func(c *Config) { c.Schedule = "every day" }, "invalid schedule"},
		{"badProvider", func(c *Config) { c.Accounts = []AccountConfig{{Name: "x", Provider: "yahoo"}} }, "unknown provider"},
		{"duplicate", func(c *Config) {
			c.Accounts = []AccountConfig{{Name: "x", Provider: "google"}, {Name: "x", Provider: "google"}}
		}, "listed twice"},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate()=%v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate()=%v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PRIMARY_TIMEZONE", "Asia/Seoul")
	t.Setenv("CALDAV_PASSWORD", "app-pass")
	t.Setenv("GOOGLE_CLIENT_ID", "gid")
	t.Setenv("HORIZON_DAYS", "14")
	t.Setenv("LOG_LEVEL", "verbose")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.Timezone != "Asia/Seoul" || cfg.CalDAV.Password != "app-pass" || cfg.Google.ClientID != "gid" || cfg.HorizonDays != 14 {
		t.Fatalf("ApplyEnv()=%+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel=%q, unknown levels fall back to info", cfg.LogLevel)
	}
}
