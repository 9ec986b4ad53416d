package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/vmsnap/internal/descriptor"
	"github.com/jbweber/vmsnap/internal/snapshot"
)

// JSONFormatter formats results as JSON. Lists are always arrays, never null.
type JSONFormatter struct{}

// FormatMachines formats domains as a JSON array.
func (f *JSONFormatter) FormatMachines(machines []MachineInfo) (string, error) {
	if machines == nil {
		machines = []MachineInfo{}
	}
	return marshalJSON(machines, "machines")
}

// FormatDisks formats a DiskMapping as a JSON array of {target, source}
// objects, preserving disk order.
func (f *JSONFormatter) FormatDisks(disks descriptor.DiskMapping) (string, error) {
	if disks == nil {
		disks = descriptor.DiskMapping{}
	}
	return marshalJSON(disks, "disks")
}

// FormatSnapshots formats snapshots as a JSON array.
func (f *JSONFormatter) FormatSnapshots(snapshots []SnapshotInfo) (string, error) {
	if snapshots == nil {
		snapshots = []SnapshotInfo{}
	}
	return marshalJSON(snapshots, "snapshots")
}

// FormatExportCommands formats commands as a JSON array. Each entry carries
// the argv and the rendered shell line.
func (f *JSONFormatter) FormatExportCommands(cmds []snapshot.ExportCommand) (string, error) {
	type entry struct {
		snapshot.ExportCommand
		Command string `json:"command"`
	}

	entries := make([]entry, 0, len(cmds))
	for _, c := range cmds {
		entries = append(entries, entry{ExportCommand: c, Command: c.String()})
	}
	return marshalJSON(entries, "export commands")
}

func marshalJSON(v any, what string) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to JSON: %w", what, err)
	}
	return string(data) + "\n", nil
}
