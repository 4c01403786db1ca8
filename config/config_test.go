package config

import (
	"os"
	"path/filepath"
	"testing"

	"riscv-sim/core"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Hart.XLen != 64 {
		t.Errorf("expected xlen=64, got %d", cfg.Hart.XLen)
	}
	if cfg.Memory.RamSize != 16<<20 {
		t.Errorf("expected 16MiB ram, got %d", cfg.Memory.RamSize)
	}
	if !cfg.Run.EnableTriggers {
		t.Error("expected triggers enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	if path == "" {
		t.Fatal("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("expected path to end with config.toml, got %s", path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Hart.XLen = 32
	cfg.Hart.Extensions = []string{"M"}
	cfg.Trace.Enabled = true
	cfg.Trace.OutputFile = "out.trace"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Hart.XLen != 32 {
		t.Errorf("expected xlen=32, got %d", loaded.Hart.XLen)
	}
	if !loaded.Trace.Enabled || loaded.Trace.OutputFile != "out.trace" {
		t.Errorf("trace settings not round-tripped: %+v", loaded.Trace)
	}
}

func TestLoadNonExistentReturnsDefaults(t *testing.T) {
	tempDir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(tempDir, "nonexistent.toml"))
	if err != nil {
		t.Fatalf("LoadFrom should not error on missing file: %v", err)
	}
	if cfg.Hart.XLen != 64 {
		t.Error("expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")
	invalidTOML := "[hart]\nxlen = \"not a number\"\n"
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected error loading invalid TOML")
	}
}

func TestValidateRejectsBadXLen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hart.XLen = 16
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for xlen=16")
	}
}

func TestValidateRejectsOverlappingDCCM(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Memory.DCCMBase = cfg.Memory.RamBase
	cfg.Memory.DCCMSize = 4096
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for overlapping dccm/ram")
	}
}

func TestValidateRejectsUnknownExtension(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hart.Extensions = []string{"Q"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown extension")
	}
}

func TestEnabledExtensionsBits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hart.Extensions = []string{"m", "c"}
	bits := cfg.EnabledExtensions()
	if bits&core.ExtM == 0 || bits&core.ExtC == 0 {
		t.Errorf("expected M and C bits set, got %#x", bits)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}
}
