package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.Backend != BackendMemory {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendMemory)
	}
	if cfg.DebounceWindow != 250*time.Millisecond {
		t.Errorf("DebounceWindow = %v, want 250ms", cfg.DebounceWindow)
	}
	if cfg.AuditInterval != time.Hour {
		t.Errorf("AuditInterval = %v, want 1h", cfg.AuditInterval)
	}
	if cfg.MaxBodyBytes != 8<<20 {
		t.Errorf("MaxBodyBytes = %d, want %d", cfg.MaxBodyBytes, 8<<20)
	}
	if cfg.AllowedHosts != nil {
		t.Errorf("AllowedHosts = %v, want nil", cfg.AllowedHosts)
	}
	if cfg.RateBurst != 0 {
		t.Errorf("RateBurst = %d, want 0 (disabled)", cfg.RateBurst)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHATMARK_HTTP_LISTEN", ":9090")
	t.Setenv("CHATMARK_STORE_BACKEND", "SQLite")
	t.Setenv("CHATMARK_STORE_SQLITE_PATH", "/tmp/marks.db")
	t.Setenv("CHATMARK_EVENTS_DEBOUNCE", "1s")
	t.Setenv("CHATMARK_HTTP_ALLOWED_ORIGINS", "chrome-extension://*, 'http://localhost:5173'")
	t.Setenv("CHATMARK_LOG_LEVEL", "DEBUG")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenPort != ":9090" {
		t.Errorf("ListenPort = %q, want :9090", cfg.ListenPort)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want sqlite", cfg.Backend)
	}
	if cfg.SQLitePath != "/tmp/marks.db" {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.DebounceWindow != time.Second {
		t.Errorf("DebounceWindow = %v, want 1s", cfg.DebounceWindow)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	want := []string{"chrome-extension://*", "http://localhost:5173"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown backend",
			env:     map[string]string{"CHATMARK_STORE_BACKEND": "mongo"},
			wantErr: "unknown store.backend",
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"CHATMARK_LOG_LEVEL": "loud"},
			wantErr: "invalid log.level",
		},
		{
			name: "redis password required",
			env: map[string]string{
				"CHATMARK_STORE_BACKEND":          "redis",
				"CHATMARK_REDIS_PASSWORD_REQUIRED": "true",
			},
			wantErr: "redis.password is required",
		},
		{
			name:    "negative debounce",
			env:     map[string]string{"CHATMARK_EVENTS_DEBOUNCE": "-1s"},
			wantErr: "events.debounce",
		},
		{
			name:    "zero request timeout",
			env:     map[string]string{"CHATMARK_HTTP_REQUEST_TIMEOUT": "0s"},
			wantErr: "http.request_timeout",
		},
		{
			name:    "empty sqlite path",
			env:     map[string]string{"CHATMARK_STORE_BACKEND": "sqlite", "CHATMARK_STORE_SQLITE_PATH": " "},
			wantErr: "store.sqlite_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(NewViper())
			if err == nil {
				t.Fatalf("Load() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatmark.yaml")
	content := `
http:
  listen: ":7070"
  allowed_hosts:
    - marks.local
    - "*.example.com"
store:
  backend: redis
redis:
  addr: "redis:6379"
  db: 2
audit:
  interval: 0s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	v := NewViper()
	if err := ReadFile(v, path); err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenPort != ":7070" {
		t.Errorf("ListenPort = %q, want :7070", cfg.ListenPort)
	}
	if cfg.Backend != BackendRedis || cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis settings = %q %q %d", cfg.Backend, cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.AuditInterval != 0 {
		t.Errorf("AuditInterval = %v, want 0", cfg.AuditInterval)
	}
	want := []string{"marks.local", "*.example.com"}
	if !reflect.DeepEqual(cfg.AllowedHosts, want) {
		t.Errorf("AllowedHosts = %v, want %v", cfg.AllowedHosts, want)
	}
}

func TestReadFileMissing(t *testing.T) {
	if err := ReadFile(NewViper(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("ReadFile() with an explicit missing path should fail")
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{RedisUser: "default", RedisPassword: "hunter2"}
	r := cfg.Redacted()
	if r.RedisPassword == "hunter2" || r.RedisUser == "default" {
		t.Errorf("Redacted() leaked credentials: %+v", r)
	}
	if cfg.RedisPassword != "hunter2" {
		t.Error("Redacted() modified the original")
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single", input: "a", expected: []string{"a"}},
		{name: "spaces and quotes", input: ` "a" , 'b',c `, expected: []string{"a", "b", "c"}},
		{name: "blank entries", input: "a,,  ,b", expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}
