package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holdfast.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, "seed: 7\ndays: 90\nfamily_name: Marrow\nlog_level: debug\n")
	t.Setenv("HOLDFAST_DAYS", "5")
	t.Setenv("HOLDFAST_API_ADDR", ":8080")
	t.Setenv("HOLDFAST_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 7 || cfg.FamilyName != "Marrow" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Days != 5 || cfg.APIAddr != ":8080" || len(cfg.CORSOrigins) != 2 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.DBPath != Default().DBPath {
		t.Fatalf("unset fields should keep defaults, got %q", cfg.DBPath)
	}
	if lvl, _ := cfg.Level(); lvl != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", lvl)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"yaml":      "days: [1, 2",
		"negative":  "days: -1",
		"log level": "log_level: loud",
		"no db":     "db_path: \"\"",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("HOLDFAST_SEED", "not-a-number")
	if _, err := Load(""); err == nil {
		t.Fatal("expected env parse error")
	}
}
