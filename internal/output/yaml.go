package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/vmsnap/internal/descriptor"
	"github.com/jbweber/vmsnap/internal/snapshot"
)

// YAMLFormatter formats results as YAML.
type YAMLFormatter struct{}

// FormatMachines formats domains as a YAML sequence.
func (f *YAMLFormatter) FormatMachines(machines []MachineInfo) (string, error) {
	if len(machines) == 0 {
		return "[]\n", nil
	}
	return marshalYAML(machines, "machines")
}

// FormatDisks formats a DiskMapping as a YAML mapping of target to source.
// yaml.v3 preserves the key order of a mapping node, so disk order is kept.
func (f *YAMLFormatter) FormatDisks(disks descriptor.DiskMapping) (string, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, d := range disks {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: d.Target},
			&yaml.Node{Kind: yaml.ScalarNode, Value: d.Source},
		)
	}
	if len(node.Content) == 0 {
		return "{}\n", nil
	}
	return marshalYAML(node, "disks")
}

// FormatSnapshots formats snapshots as a YAML sequence.
func (f *YAMLFormatter) FormatSnapshots(snapshots []SnapshotInfo) (string, error) {
	if len(snapshots) == 0 {
		return "[]\n", nil
	}
	return marshalYAML(snapshots, "snapshots")
}

// FormatExportCommands formats commands as a YAML sequence.
func (f *YAMLFormatter) FormatExportCommands(cmds []snapshot.ExportCommand) (string, error) {
	if len(cmds) == 0 {
		return "[]\n", nil
	}
	return marshalYAML(cmds, "export commands")
}

func marshalYAML(v any, what string) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to YAML: %w", what, err)
	}
	return string(data), nil
}
