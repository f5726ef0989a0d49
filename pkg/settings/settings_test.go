package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetRedisAddr(); got != "127.0.0.1:6379" {
		t.Errorf("GetRedisAddr() default = %q, want %q", got, "127.0.0.1:6379")
	}
	if got := s.GetCommandTimeout(); got != 0 {
		t.Errorf("GetCommandTimeout() default = %v, want 0", got)
	}
	if s.Inventory != "" || s.Catalog != "" {
		t.Errorf("Inventory/Catalog should be empty, got %q/%q", s.Inventory, s.Catalog)
	}
}

func TestSettings_SetGet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{key: "inventory", value: "lab.yaml", want: "lab.yaml"},
		{key: "catalog", value: "checks.yaml", want: "checks.yaml"},
		{key: "concurrency", value: "4", want: "4"},
		{key: "concurrency", value: "", want: ""},
		{key: "concurrency", value: "-1", wantErr: true},
		{key: "concurrency", value: "many", wantErr: true},
		{key: "command_timeout", value: "45s", want: "45s"},
		{key: "command_timeout", value: "soon", wantErr: true},
		{key: "log_level", value: "debug", want: "debug"},
		{key: "redis_addr", value: "10.0.0.5:6379", want: "10.0.0.5:6379"},
		{key: "history_file", value: "/var/log/newtcheck.jsonl", want: "/var/log/newtcheck.jsonl"},
		{key: "network", value: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			s := &Settings{}
			err := s.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, err := s.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error = %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestSettings_GetCommandTimeout(t *testing.T) {
	s := &Settings{CommandTimeout: "1m30s"}
	if got, want := s.GetCommandTimeout(), 90*time.Second; got != want {
		t.Errorf("GetCommandTimeout() = %v, want %v", got, want)
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{
		Inventory:   "lab.yaml",
		Catalog:     "checks.yaml",
		Concurrency: 3,
		LogLevel:    "debug",
	}

	s.Clear()

	if *s != (Settings{}) {
		t.Errorf("Clear() left %+v, want zero settings", *s)
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	original := &Settings{
		Inventory:      "lab.yaml",
		Catalog:        "checks.yaml",
		Concurrency:    4,
		CommandTimeout: "10s",
		LogLevel:       "warn",
		RedisAddr:      "redis:6379",
		HistoryFile:    "history.jsonl",
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if *loaded != *original {
		t.Errorf("LoadFrom() = %+v, want %+v", *loaded, *original)
	}
}

func TestSettings_LoadNonExistent(t *testing.T) {
	s, err := LoadFrom("/nonexistent/path/settings.json")
	if err != nil {
		t.Fatalf("LoadFrom() non-existent should not error: %v", err)
	}
	if s == nil || *s != (Settings{}) {
		t.Errorf("LoadFrom() non-existent = %+v, want empty settings", s)
	}
}

func TestSettings_LoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("invalid json {"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() with invalid JSON should error")
	}
}

func TestSettings_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "nested", "settings.json")

	s := &Settings{Inventory: "lab.yaml"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() should create directories: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("SaveTo() should have created the file")
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s := &Settings{Catalog: "checks.yaml"}
	if err := s.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Catalog != "checks.yaml" {
		t.Errorf("Load().Catalog = %q, want %q", loaded.Catalog, "checks.yaml")
	}
}
