package cadence

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		want    func(dir string) Config
		wantErr bool
	}{
		{
			name: "Defaults fill missing keys",
			body: `main_step = "10ms"`,
			want: func(dir string) Config {
				return Config{TeardownTimeout: 5 * time.Second, MainStep: 10 * time.Millisecond, Root: dir, MaxCatchUp: DefaultMaxCatchUp}
			},
		},
		{
			name: "Every key",
			body: "teardown_timeout = \"1s\"\nmain_step = \"16ms\"\nroot = \"assets\"\nmax_catch_up = -1\n",
			want: func(dir string) Config {
				root, _ := filepath.Abs("assets")
				return Config{TeardownTimeout: time.Second, MainStep: 16 * time.Millisecond, Root: root, MaxCatchUp: -1}
			},
		},
		{
			name: "Environment overrides file",
			body: `main_step = "10ms"`,
			env:  map[string]string{"CADENCE_MAIN_STEP": "5ms", "CADENCE_TEARDOWN_TIMEOUT": "2s"},
			want: func(dir string) Config {
				return Config{TeardownTimeout: 2 * time.Second, MainStep: 5 * time.Millisecond, Root: dir, MaxCatchUp: DefaultMaxCatchUp}
			},
		},
		{
			name:    "Invalid step",
			body:    `main_step = "0s"`,
			wantErr: true,
		},
		{
			name:    "Malformed file",
			body:    `main_step = `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			path := writeConfig(t, dir, tt.body)

			cfg, err := LoadConfig(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if want := tt.want(dir); cfg != want {
				t.Errorf("LoadConfig() = %+v, want %+v", cfg, want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestLoadDefaultConfigSearchesAncestors(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `main_step = "8ms"`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	cfg := LoadDefaultConfig(nil)
	if cfg.MainStep != 8*time.Millisecond {
		t.Errorf("MainStep = %v, want the 8ms from the ancestor file", cfg.MainStep)
	}
}

func TestLoadDefaultConfigFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `main_step = "nonsense"`)
	t.Chdir(dir)

	if cfg := LoadDefaultConfig(nil); cfg != DefaultConfig() {
		t.Errorf("Broken file did not fall back to defaults: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero step", func(c *Config) { c.MainStep = 0 }, true},
		{"negative teardown", func(c *Config) { c.TeardownTimeout = -time.Second }, true},
		{"zero catch-up", func(c *Config) { c.MaxCatchUp = 0 }, true},
		{"uncapped", func(c *Config) { c.MaxCatchUp = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
