package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kvzd.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfig(t *testing.T) {
	path := writeConfig(t, `
bind = "tcp://127.0.0.1:7777"
workers = 4
shards = 16
metrics_addr = ":9090"
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bind != "tcp://127.0.0.1:7777" || cfg.Workers != 4 || cfg.Shards != 16 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Fatalf("metrics_addr = %q", cfg.MetricsAddr)
	}
}

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := DefaultServerConfig()
	if cfg != def {
		t.Fatalf("cfg = %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadServerConfigRejectsBadValues(t *testing.T) {
	cases := []string{
		`bind = ""`,
		`workers = 0`,
		`shards = -1`,
	}
	for _, body := range cases {
		if _, err := LoadServerConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("expected validation error for %q", body)
		}
	}
}

func TestLoadServerConfigRejectsBadToml(t *testing.T) {
	if _, err := LoadServerConfig(writeConfig(t, "bind = [")); err == nil {
		t.Fatal("expected parse error")
	}
}
