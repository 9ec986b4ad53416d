// Package output provides formatters for displaying vmsnap results
// in various formats (table, YAML, JSON).
package output

import (
	"fmt"

	"github.com/jbweber/vmsnap/internal/descriptor"
	"github.com/jbweber/vmsnap/internal/snapshot"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format for scripting.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// MachineInfo is the listing view of a managed domain.
type MachineInfo struct {
	Name  string `json:"name" yaml:"name"`
	UUID  string `json:"uuid" yaml:"uuid"`
	State string `json:"state" yaml:"state"`
}

// SnapshotInfo is the listing view of a domain snapshot.
type SnapshotInfo struct {
	Name         string `json:"name" yaml:"name"`
	Domain       string `json:"domain" yaml:"domain"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	CreationTime int64  `json:"creationTime" yaml:"creationTime"` // Seconds since the epoch
}

// Formatter formats vmsnap results for output.
type Formatter interface {
	// FormatMachines formats a list of managed domains.
	FormatMachines(machines []MachineInfo) (string, error)

	// FormatDisks formats a DiskMapping.
	FormatDisks(disks descriptor.DiskMapping) (string, error)

	// FormatSnapshots formats a list of snapshots.
	FormatSnapshots(snapshots []SnapshotInfo) (string, error)

	// FormatExportCommands formats export commands.
	FormatExportCommands(cmds []snapshot.ExportCommand) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}
