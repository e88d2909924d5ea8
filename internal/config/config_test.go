package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRequireEnvSlice(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		expected  []string
		wantPanic bool
	}{
		{
			name:      "single value",
			key:       "TEST_SLICE",
			value:     "value1",
			expected:  []string{"value1"},
			wantPanic: false,
		},
		{
			name:      "multiple values",
			key:       "TEST_SLICE_MULTI",
			value:     "value1, value2, value3",
			expected:  []string{"value1", "value2", "value3"},
			wantPanic: false,
		},
		{
			name:      "quoted values and empty entries",
			key:       "TEST_SLICE_QUOTED",
			value:     `"key-a", ,'key-b'`,
			expected:  []string{"key-a", "key-b"},
			wantPanic: false,
		},
		{
			name:      "only separators",
			key:       "TEST_SLICE_EMPTY",
			value:     " , ,",
			wantPanic: true,
		},
		{
			name:      "missing variable",
			key:       "TEST_SLICE_MISSING",
			value:     "",
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnvSlice() should have panicked")
					}
				}()
			}

			result := requireEnvSlice(tt.key)
			if !tt.wantPanic {
				if len(result) != len(tt.expected) {
					t.Errorf("requireEnvSlice() length = %v, want %v", len(result), len(tt.expected))
				}
				for i := range result {
					if result[i] != tt.expected[i] {
						t.Errorf("requireEnvSlice()[%d] = %v, want %v", i, result[i], tt.expected[i])
					}
				}
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("HOARDERD_API_KEYS", "k1,k2")
	t.Setenv("HOARDERD_STORE", "SQLite")
	t.Setenv("HOARDERD_CRAWLER_WORKERS", "2")
	t.Setenv("HOARDERD_PROBE_CIDRS", "10.0.0.0/8, 127.0.0.1")

	cfg := Load()
	if cfg.Store != StoreSQLite {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreSQLite)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[1] != "k2" {
		t.Errorf("APIKeys = %v", cfg.APIKeys)
	}
	if cfg.CrawlerWorkers != 2 {
		t.Errorf("CrawlerWorkers = %d, want 2", cfg.CrawlerWorkers)
	}
	if cfg.ListenPort != ":3000" {
		t.Errorf("ListenPort = %q, want default", cfg.ListenPort)
	}
	if len(cfg.ProbeCIDRs) != 2 || cfg.ProbeCIDRs[1] != "127.0.0.1" {
		t.Errorf("ProbeCIDRs = %v", cfg.ProbeCIDRs)
	}
	if cfg.AllowedHosts != nil {
		t.Errorf("AllowedHosts = %v, want none", cfg.AllowedHosts)
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("HOARDERD_API_KEYS", "k1")
	t.Setenv("HOARDERD_STORE", "postgres")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should have panicked")
		}
	}()
	Load()
}

func TestRedacted(t *testing.T) {
	cfg := &Config{APIKeys: []string{"secret"}, RedisPassword: "pw", RedisUser: "u"}
	red := cfg.Redacted()
	if red.APIKeys[0] == "secret" || red.RedisPassword == "pw" || red.RedisUser == "u" {
		t.Errorf("Redacted() leaked values: %+v", red)
	}
	if cfg.APIKeys[0] != "secret" {
		t.Error("Redacted() modified the original")
	}
}

func TestLoadClient(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "apiKey: from-file\nserverAddr: https://hoarder.example.com/\ntimeout: 5s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	tests := []struct {
		name       string
		env        map[string]string
		wantKey    string
		wantServer string
	}{
		{
			name:       "file only",
			wantKey:    "from-file",
			wantServer: "https://hoarder.example.com",
		},
		{
			name:       "env overrides file",
			env:        map[string]string{"HOARDER_API_KEY": "from-env", "HOARDER_SERVER_ADDR": "http://localhost:9000"},
			wantKey:    "from-env",
			wantServer: "http://localhost:9000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOARDER_API_KEY", "")
			t.Setenv("HOARDER_SERVER_ADDR", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadClient(path, false)
			if err != nil {
				t.Fatalf("LoadClient() error = %v", err)
			}
			if cfg.APIKey != tt.wantKey || cfg.ServerAddr != tt.wantServer {
				t.Errorf("LoadClient() = %+v", cfg)
			}
			if cfg.Timeout != 5*time.Second {
				t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
			}
		})
	}
}

func TestLoadClientMissingFile(t *testing.T) {
	t.Setenv("HOARDER_API_KEY", "")
	t.Setenv("HOARDER_SERVER_ADDR", "")
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := LoadClient(missing, true)
	if err != nil {
		t.Fatalf("LoadClient(optional) error = %v", err)
	}
	if cfg.ServerAddr != DefaultServerAddr {
		t.Errorf("ServerAddr = %q, want default", cfg.ServerAddr)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() without API key = nil, want error")
	}

	if _, err := LoadClient(missing, false); err == nil {
		t.Error("LoadClient(required) on a missing file = nil error")
	}
}

func TestLoadClientBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("apiKey: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadClient(path, true); err == nil {
		t.Error("LoadClient() on invalid YAML = nil error")
	}
}

func TestDefaultClientConfigPath(t *testing.T) {
	t.Setenv(XdgConfigHome, "/tmp/xdg")
	got, err := DefaultClientConfigPath()
	if err != nil {
		t.Fatalf("DefaultClientConfigPath() error = %v", err)
	}
	if got != filepath.Join("/tmp/xdg", "hoarder", "config.yaml") {
		t.Errorf("DefaultClientConfigPath() = %q", got)
	}
}
