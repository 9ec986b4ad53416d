package snapshot

import (
	"context"
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/jbweber/vmsnap/internal/descriptor"
	"github.com/jbweber/vmsnap/internal/errdefs"
	"github.com/jbweber/vmsnap/internal/naming"
	"github.com/jbweber/vmsnap/internal/qemuimg"
)

// ExportCommand is one qemu-img invocation that copies a single disk, as of
// the snapshot, into a destination file. It is not executed by this package.
type ExportCommand struct {
	Target      string   `json:"target" yaml:"target"`           // Disk target device (e.g. "vda")
	Source      string   `json:"source" yaml:"source"`           // Backing file read by qemu-img
	Destination string   `json:"destination" yaml:"destination"` // Output file
	Args        []string `json:"args" yaml:"args"`               // Full argv, Args[0] is the tool
}

// String renders the command as a shell command line.
func (c ExportCommand) String() string {
	return shellquote.Join(c.Args...)
}

type exportOptions struct {
	tool       string
	compressed bool
}

// ExportOption configures ExportCommands.
type ExportOption func(*exportOptions)

// WithTool sets the qemu-img binary. Defaults to "qemu-img".
func WithTool(path string) ExportOption {
	return func(o *exportOptions) {
		o.tool = path
	}
}

// WithCompression toggles compressed qcow2 output (-O qcow2 -c). Defaults to true.
func WithCompression(compressed bool) ExportOption {
	return func(o *exportOptions) {
		o.compressed = compressed
	}
}

// ExportCommands returns the qemu-img commands that export each backing disk
// of the snapshot into outputDir as
// backup-<domain>-<device>-<creationTime>.qcow.
//
// Disks whose destination file already exists are skipped and logged, so a
// re-run after a partial export only produces the missing files. If outputDir
// is not a directory no commands are produced and the error wraps
// errdefs.ErrNotDirectory.
func (s *Snapshot) ExportCommands(ctx context.Context, outputDir string, opts ...ExportOption) ([]ExportCommand, error) {
	if err := s.checkUsable(); err != nil {
		return nil, err
	}

	o := exportOptions{tool: qemuimg.DefaultPath, compressed: true}
	for _, opt := range opts {
		opt(&o)
	}

	logger := zerolog.Ctx(ctx)

	isDir, err := afero.IsDir(s.fs, outputDir)
	if err != nil || !isDir {
		logger.Error().Str("path", outputDir).Msg("not a directory")
		return nil, fmt.Errorf("failed to export snapshot %s: %w: %s", s.handle.Name, errdefs.ErrNotDirectory, outputDir)
	}

	// Name, creation time and disks come from the same descriptor.
	doc, err := s.xmlDesc()
	if err != nil {
		return nil, err
	}
	domainName, err := descriptor.Query(doc, descriptor.SnapshotPath("domain/name"))
	if err != nil {
		return nil, err
	}
	creationTime, err := descriptor.Query(doc, descriptor.SnapshotPath("creationTime"))
	if err != nil {
		return nil, err
	}
	disks, err := s.backingStore(doc)
	if err != nil {
		return nil, err
	}

	tool := qemuimg.New(o.tool)
	cmds := make([]ExportCommand, 0, len(disks))
	for _, disk := range disks {
		dest := naming.ExportPath(outputDir, domainName, disk.Target, creationTime)

		exists, err := afero.Exists(s.fs, dest)
		if err != nil {
			return nil, fmt.Errorf("failed to check export destination %s: %w", dest, err)
		}
		if exists {
			logger.Warn().Str("path", dest).Msg("file exists, skipping disk")
			continue
		}

		cmds = append(cmds, ExportCommand{
			Target:      disk.Target,
			Source:      disk.Source,
			Destination: dest,
			Args: tool.ConvertArgs(qemuimg.ConvertOptions{
				Snapshot:    s.handle.Name,
				Source:      disk.Source,
				Destination: dest,
				Compressed:  o.compressed,
			}),
		})
	}

	return cmds, nil
}
