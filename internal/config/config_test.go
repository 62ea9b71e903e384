package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.RefreshInterval != defaultRefreshInterval {
		t.Fatalf("RefreshInterval = %v, want %v", cfg.RefreshInterval, defaultRefreshInterval)
	}
	if cfg.LogStreamDelay != time.Second {
		t.Fatalf("LogStreamDelay = %v, want 1s", cfg.LogStreamDelay)
	}
	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_url = "  https://api.example.org  "
servers = ["https://api.example.org", "  ", "https://build.internal"]
user = " alice "
password = "secret"
refresh_interval = "30s"
log_stream_delay = "500ms"
log_file = "~/foreman.log"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://api.example.org" || cfg.User != "alice" || cfg.Password != "secret" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if want := []string{"https://api.example.org", "https://build.internal"}; !reflect.DeepEqual(cfg.Servers, want) {
		t.Fatalf("Servers = %v, want %v", cfg.Servers, want)
	}
	if cfg.RefreshInterval != 30*time.Second || cfg.LogStreamDelay != 500*time.Millisecond {
		t.Fatalf("intervals = %v, %v", cfg.RefreshInterval, cfg.LogStreamDelay)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want default", cfg.RequestTimeout)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
}

func TestLoad_EnvAndOverridePrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FOREMAN_USER", "bob")
	t.Setenv("FOREMAN_API_URL", "https://env.example.org")

	path := writeConfig(t, `
api_url = "https://file.example.org"
user = "alice"
`)

	l := NewLoader()
	l.SetOverride("api_url", "https://flag.example.org")
	cfg, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.User != "bob" {
		t.Fatalf("User = %q, want env value bob", cfg.User)
	}
	if cfg.APIURL != "https://flag.example.org" {
		t.Fatalf("APIURL = %q, want flag value", cfg.APIURL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
api_url = ""
refresh_interval = "10ms"
`)

	_, err := Load(path)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Load error = %v, want ValidationErrors", err)
	}
	fields := make(map[string]bool)
	for _, e := range verrs {
		fields[e.Tag+":"+strings.TrimPrefix(e.Field, "Config.")] = true
	}
	for _, want := range []string{"required:APIURL", "min:RefreshInterval"} {
		if !fields[want] {
			t.Fatalf("missing %s in %v", want, verrs)
		}
	}
	if !strings.Contains(err.Error(), "'APIURL' is required") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, "api_url = [unterminated")
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted malformed TOML")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/x/y.toml")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "x", "y.toml") {
		t.Fatalf("expandPath = %q", got)
	}
	if _, err := expandPath("   "); err == nil {
		t.Fatal("expandPath accepted empty path")
	}
}
