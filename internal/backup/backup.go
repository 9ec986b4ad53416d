// Package backup exports the disks of a domain through a short-lived
// hypervisor snapshot.
//
// The snapshot only lives for the duration of Run: it is created, its
// export commands are produced (and optionally executed), and it is deleted
// again on every exit path.
package backup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/jbweber/vmsnap/internal/qemuimg"
	"github.com/jbweber/vmsnap/internal/snapshot"
)

// machine is the part of *vm.Machine a backup needs.
//
// In production, this is satisfied by *vm.Machine.
// In tests, this is satisfied by mock implementations.
type machine interface {
	Name() string
	WithSnapshot(ctx context.Context, description string, fn func(*snapshot.Snapshot) error) error
}

// commandRunner executes an export command.
//
// In production, this is satisfied by *qemuimg.Client.
// In tests, this is satisfied by mock implementations.
type commandRunner interface {
	Run(ctx context.Context, args []string) error
}

// Options configures a backup.
type Options struct {
	OutputDir   string // Destination directory, must exist
	Description string // Snapshot description
	QemuImg     string // qemu-img binary
	Compressed  bool   // Write compressed qcow2
	Execute     bool   // Run the commands instead of only returning them
}

// Result describes a finished backup.
type Result struct {
	Domain   string                   `json:"domain" yaml:"domain"`
	Snapshot string                   `json:"snapshot" yaml:"snapshot"`
	Commands []snapshot.ExportCommand `json:"commands" yaml:"commands"`
	Executed bool                     `json:"executed" yaml:"executed"`
}

// Run takes a snapshot of m, produces the export commands for it and, when
// opts.Execute is set, runs them with qemu-img and verifies every compressed
// output is a qcow2 image. The snapshot is deleted before Run returns.
//
// Without opts.Execute the returned commands reference a snapshot that no
// longer exists; they are only useful as a dry run.
func Run(ctx context.Context, m machine, opts Options) (*Result, error) {
	tool := qemuimg.New(opts.QemuImg)
	return runWithDeps(ctx, m, opts, tool, afero.NewOsFs())
}

// runWithDeps runs a backup with injected dependencies.
// This allows for testing by accepting interfaces instead of concrete types.
func runWithDeps(ctx context.Context, m machine, opts Options, runner commandRunner, fs afero.Fs) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	result := &Result{Domain: m.Name()}

	tool := opts.QemuImg
	if tool == "" {
		tool = qemuimg.DefaultPath
	}

	err := m.WithSnapshot(ctx, opts.Description, func(snap *snapshot.Snapshot) error {
		result.Snapshot = snap.Name()

		cmds, err := snap.ExportCommands(ctx, opts.OutputDir,
			snapshot.WithTool(tool),
			snapshot.WithCompression(opts.Compressed),
		)
		if err != nil {
			return err
		}
		result.Commands = cmds

		if !opts.Execute {
			return nil
		}

		for _, cmd := range cmds {
			if err := runner.Run(ctx, cmd.Args); err != nil {
				return fmt.Errorf("failed to export disk %s of %s: %w", cmd.Target, m.Name(), err)
			}

			if opts.Compressed {
				if err := qemuimg.VerifyQCOW2(fs, cmd.Destination); err != nil {
					return err
				}
			}

			logger.Info().
				Str("domain", m.Name()).
				Str("target", cmd.Target).
				Str("path", cmd.Destination).
				Msg("exported disk")
		}
		result.Executed = true

		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to back up domain %s: %w", m.Name(), err)
	}

	return result, nil
}
