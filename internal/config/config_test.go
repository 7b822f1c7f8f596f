package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// --- DefaultConfig ---

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.StartHour != 6 {
		t.Errorf("StartHour = %d, want 6", cfg.StartHour)
	}
	if cfg.EndHour != 9 {
		t.Errorf("EndHour = %d, want 9", cfg.EndHour)
	}
	if cfg.RetentionDays != 14 {
		t.Errorf("RetentionDays = %d, want 14", cfg.RetentionDays)
	}
	if cfg.TickInterval != time.Minute {
		t.Errorf("TickInterval = %s, want 1m", cfg.TickInterval)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

// --- Load ---

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load with missing file should not error, got: %v", err)
	}
	if cfg.StartHour != 6 || cfg.EndHour != 9 {
		t.Errorf("window = [%d,%d), want [6,9)", cfg.StartHour, cfg.EndHour)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"start_hour": 7, "end_hour": 21, "retention_days": 30, "tick_interval": "30s"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StartHour != 7 {
		t.Errorf("StartHour = %d, want 7", cfg.StartHour)
	}
	if cfg.EndHour != 21 {
		t.Errorf("EndHour = %d, want 21", cfg.EndHour)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", cfg.RetentionDays)
	}
	if cfg.TickInterval != 30*time.Second {
		t.Errorf("TickInterval = %s, want 30s", cfg.TickInterval)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"start_hour": 15, "end_hour": 18}`), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RetentionDays != 14 {
		t.Errorf("RetentionDays = %d, want default 14", cfg.RetentionDays)
	}
	if cfg.TickInterval != time.Minute {
		t.Errorf("TickInterval = %s, want default 1m", cfg.TickInterval)
	}
}

func TestLoad_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load with corrupt file should error")
	}
}

func TestLoadOrDefault_CorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := LoadOrDefault(path)
	if cfg.StartHour != 6 || cfg.EndHour != 9 {
		t.Errorf("fallback window = [%d,%d), want [6,9)", cfg.StartHour, cfg.EndHour)
	}
}

// --- Env overrides ---

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"start_hour": 7, "end_hour": 9}`), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv("LATCHKEY_START_HOUR", "5")
	t.Setenv("LATCHKEY_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StartHour != 5 {
		t.Errorf("StartHour = %d, want env override 5", cfg.StartHour)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

// --- WindowValid ---

func TestWindowValid_Cases(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"normal", 6, 9, true},
		{"midnight start", 0, 7, true},
		{"full waking day", 0, 23, true},
		{"inverted", 9, 6, false},
		{"empty", 8, 8, false},
		{"start out of range", -1, 9, false},
		{"end out of range", 6, 24, false},
	}

	for _, tc := range cases {
		cfg := Config{StartHour: tc.start, EndHour: tc.end}
		if got := cfg.WindowValid(); got != tc.want {
			t.Errorf("%s: WindowValid([%d,%d)) = %v, want %v", tc.name, tc.start, tc.end, got, tc.want)
		}
	}
}

func TestValidate_InvertedWindowErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartHour, cfg.EndHour = 9, 6
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate should flag an inverted window")
	}
}

// --- Retention ---

func TestRetention_Duration(t *testing.T) {
	cfg := Config{RetentionDays: 14}
	if got := cfg.Retention(); got != 14*24*time.Hour {
		t.Errorf("Retention = %s, want 336h", got)
	}
}
