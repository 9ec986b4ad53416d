// Package config loads vmsnap settings from a YAML file and the environment.
//
// Precedence, lowest to highest: built-in defaults, the YAML file, the
// VMSNAP_* environment variables, then command line flags (applied by the
// CLI after Load returns).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/vmsnap/internal/libvirt"
	"github.com/jbweber/vmsnap/internal/lvm"
	"github.com/jbweber/vmsnap/internal/qemuimg"
)

// Environment variables that override file settings.
const (
	EnvLibvirtSocket = "VMSNAP_LIBVIRT_SOCKET"
	EnvOutputDir     = "VMSNAP_OUTPUT_DIR"
	EnvLogLevel      = "VMSNAP_LOG_LEVEL"
)

// Config represents the complete vmsnap configuration.
type Config struct {
	Libvirt LibvirtConfig `yaml:"libvirt"`
	Export  ExportConfig  `yaml:"export"`
	LVM     LVMConfig     `yaml:"lvm"`
	Log     LogConfig     `yaml:"log"`
}

// LibvirtConfig defines how to reach the libvirt daemon.
type LibvirtConfig struct {
	Socket  string        `yaml:"socket"`  // UNIX socket path
	Timeout time.Duration `yaml:"timeout"` // Dial timeout, e.g. "5s"
}

// ExportConfig defines how snapshot disks are exported.
type ExportConfig struct {
	QemuImg    string `yaml:"qemu_img"`   // qemu-img binary
	OutputDir  string `yaml:"output_dir"` // Default destination directory
	Compressed bool   `yaml:"compressed"` // Emit -O qcow2 -c
}

// LVMConfig defines how LVM snapshots are created.
type LVMConfig struct {
	Lvcreate     string `yaml:"lvcreate"`      // lvcreate binary
	SnapshotSize string `yaml:"snapshot_size"` // Copy-on-write size passed to -L
}

// LogConfig defines logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Libvirt: LibvirtConfig{
			Socket:  libvirt.DefaultSocket,
			Timeout: libvirt.DefaultTimeout,
		},
		Export: ExportConfig{
			QemuImg:    qemuimg.DefaultPath,
			Compressed: true,
		},
		LVM: LVMConfig{
			Lvcreate:     "lvcreate",
			SnapshotSize: lvm.DefaultSnapshotSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path and the environment, then validates it. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from VMSNAP_* variables. lookup has the
// signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLibvirtSocket); ok && v != "" {
		c.Libvirt.Socket = v
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.Export.OutputDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration for errors.
// Does not check that binaries or directories exist.
func (c *Config) Validate() error {
	if c.Libvirt.Socket == "" {
		return fmt.Errorf("libvirt.socket is required")
	}
	if c.Libvirt.Timeout < 0 {
		return fmt.Errorf("libvirt.timeout must be >= 0, got %s", c.Libvirt.Timeout)
	}
	if c.Export.QemuImg == "" {
		return fmt.Errorf("export.qemu_img is required")
	}
	if c.LVM.Lvcreate == "" {
		return fmt.Errorf("lvm.lvcreate is required")
	}
	if err := validateSize(c.LVM.SnapshotSize); err != nil {
		return fmt.Errorf("lvm.snapshot_size: %w", err)
	}

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error, got %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}

	return nil
}

// validateSize accepts lvcreate -L sizes such as "2G", "512M" or "1.5T".
func validateSize(size string) error {
	if size == "" {
		return fmt.Errorf("size is required")
	}

	num := strings.TrimRight(size, "bBsSkKmMgGtTpPeE")
	if num == "" || len(size)-len(num) > 1 {
		return fmt.Errorf("invalid size %q", size)
	}
	for i, r := range num {
		if (r < '0' || r > '9') && !(r == '.' && i > 0) {
			return fmt.Errorf("invalid size %q", size)
		}
	}

	return nil
}
