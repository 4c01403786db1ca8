// Package config loads the simulator's TOML run configuration:
// architectural parameters (XLEN, extensions), memory layout, trace
// and statistics output, and the conformance-test failure-injection
// hooks core.SimpleMemory exposes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"riscv-sim/core"
)

// Config is the full run configuration, decoded directly from TOML
// with the core.HartConfig/RunConfig values it maps to computed on
// demand rather than stored redundantly.
type Config struct {
	Debugger struct {
		HistorySize int `toml:"history_size"`
	} `toml:"debugger"`

	Hart struct {
		XLen            int      `toml:"xlen"` // 32 or 64
		Extensions      []string `toml:"extensions"` // "A","C","D","F","M","S","U"
		StoreQueueDepth int      `toml:"store_queue_depth"`
		LoadQueueDepth  int      `toml:"load_queue_depth"`
	} `toml:"hart"`

	Memory struct {
		RamBase  uint64 `toml:"ram_base"`
		RamSize  uint64 `toml:"ram_size"`
		DCCMBase uint64 `toml:"dccm_base"`
		DCCMSize uint64 `toml:"dccm_size"`
	} `toml:"memory"`

	Run struct {
		MaxInstructions uint64 `toml:"max_instructions"`
		HasMaxInstrs    bool   `toml:"limit_instructions"`
		StopAddr        uint64 `toml:"stop_addr"`
		HasStopAddr     bool   `toml:"use_stop_addr"`
		EnableTriggers  bool   `toml:"enable_triggers"`
		EnableCounters  bool   `toml:"enable_counters"`
	} `toml:"run"`

	Trace struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
		Tag        string `toml:"tag"`
	} `toml:"trace"`

	Statistics struct {
		Enabled    bool   `toml:"enabled"`
		OutputFile string `toml:"output_file"`
		Format     string `toml:"format"` // "text" or "json"
	} `toml:"statistics"`

	// FailureInjection configures core.SimpleMemory's conformance-test
	// hooks: addresses at which every matching access fails
	// (spec.md §4.4 "forced fetch-fail" / "force-fail test hook").
	FailureInjection struct {
		FetchFailAddrs []uint64 `toml:"fetch_fail_addrs"`
		ReadFailAddrs  []uint64 `toml:"read_fail_addrs"`
		WriteFailAddrs []uint64 `toml:"write_fail_addrs"`
	} `toml:"failure_injection"`
}

// DefaultConfig returns the configuration a bare "run this image"
// invocation uses when no config file is given: RV64IMAC, 16 MiB of
// RAM at 0x8000_0000, no limits, no trace.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Debugger.HistorySize = 1000

	cfg.Hart.XLen = 64
	cfg.Hart.Extensions = []string{"M", "A", "C"}
	cfg.Hart.StoreQueueDepth = 8
	cfg.Hart.LoadQueueDepth = 8

	cfg.Memory.RamBase = 0x8000_0000
	cfg.Memory.RamSize = 16 << 20
	cfg.Memory.DCCMBase = 0x1000_0000
	cfg.Memory.DCCMSize = 64 << 10

	cfg.Run.EnableTriggers = true
	cfg.Run.EnableCounters = true

	cfg.Trace.Tag = "I"

	cfg.Statistics.Format = "text"

	return cfg
}

// Validate rejects configurations core.NewHart/core.NewSimpleMemory
// would otherwise accept silently and misbehave on: an XLEN besides
// 32/64, a DCCM window overlapping RAM, or a negative queue depth.
func (c *Config) Validate() error {
	if c.Hart.XLen != 32 && c.Hart.XLen != 64 {
		return fmt.Errorf("config: xlen must be 32 or 64, got %d", c.Hart.XLen)
	}
	if c.Hart.StoreQueueDepth < 0 || c.Hart.LoadQueueDepth < 0 {
		return fmt.Errorf("config: queue depths must be non-negative")
	}
	if c.Memory.RamSize == 0 {
		return fmt.Errorf("config: memory.ram_size must be non-zero")
	}
	dccmEnd := c.Memory.DCCMBase + c.Memory.DCCMSize
	ramEnd := c.Memory.RamBase + c.Memory.RamSize
	if c.Memory.DCCMSize > 0 && c.Memory.DCCMBase < ramEnd && dccmEnd > c.Memory.RamBase {
		return fmt.Errorf("config: dccm region [%#x,%#x) overlaps ram region [%#x,%#x)",
			c.Memory.DCCMBase, dccmEnd, c.Memory.RamBase, ramEnd)
	}
	for _, e := range c.Hart.Extensions {
		if _, ok := extensionBits[strings.ToUpper(e)]; !ok {
			return fmt.Errorf("config: unknown extension %q", e)
		}
	}
	if c.Statistics.Enabled && c.Statistics.Format != "text" && c.Statistics.Format != "json" {
		return fmt.Errorf("config: statistics.format must be text or json, got %q", c.Statistics.Format)
	}
	return nil
}

var extensionBits = map[string]uint32{
	"A": core.ExtA, "C": core.ExtC, "D": core.ExtD, "F": core.ExtF,
	"M": core.ExtM, "S": core.ExtS, "U": core.ExtU, "B": core.ExtB,
}

// XLen returns the configured XLen as a core.XLen.
func (c *Config) XLen() core.XLen {
	if c.Hart.XLen == 32 {
		return core.XLen32
	}
	return core.XLen64
}

// EnabledExtensions ORs together the MISA-style bit for each entry in
// Hart.Extensions, the form core.HartConfig.EnabledExtensions expects.
func (c *Config) EnabledExtensions() uint32 {
	var bits uint32
	for _, e := range c.Hart.Extensions {
		bits |= extensionBits[strings.ToUpper(e)]
	}
	return bits
}

// NewMemory builds the core.SimpleMemory this configuration describes
// and wires in its failure-injection hooks.
func (c *Config) NewMemory() *core.SimpleMemory {
	mem := core.NewSimpleMemory(c.Memory.RamBase, c.Memory.RamSize, c.Memory.DCCMBase, c.Memory.DCCMSize)
	for _, a := range c.FailureInjection.FetchFailAddrs {
		mem.ForceFetchFail[a] = true
	}
	for _, a := range c.FailureInjection.ReadFailAddrs {
		mem.ForceReadFail[a] = true
	}
	for _, a := range c.FailureInjection.WriteFailAddrs {
		mem.ForceWriteFail[a] = true
	}
	return mem
}

// HartConfig builds the core.HartConfig this configuration describes,
// around the given memory (typically the one NewMemory returned).
func (c *Config) HartConfig(mem core.Memory) core.HartConfig {
	return core.HartConfig{
		XLen:              c.XLen(),
		EnabledExtensions: c.EnabledExtensions(),
		StoreQueueDepth:   c.Hart.StoreQueueDepth,
		LoadQueueDepth:    c.Hart.LoadQueueDepth,
		Mem:               mem,
	}
}

// RunConfig builds the core.RunConfig this configuration describes.
func (c *Config) RunConfig() core.RunConfig {
	return core.RunConfig{
		StopAddr:         c.Run.StopAddr,
		HasStopAddr:      c.Run.HasStopAddr,
		MaxInstructions:  c.Run.MaxInstructions,
		HasMaxInstrs:     c.Run.HasMaxInstrs,
		EnableTriggers:   c.Run.EnableTriggers,
		EnableCounters:   c.Run.EnableCounters,
		EnableStatistics: c.Statistics.Enabled,
	}
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "riscv-sim")
	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "riscv-sim")
	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, falling back
// to DefaultConfig if it doesn't exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes the configuration to the specified file in TOML form.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("config: create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("config: create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	return nil
}
