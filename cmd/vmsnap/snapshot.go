package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jbweber/vmsnap/internal/errdefs"
	"github.com/jbweber/vmsnap/internal/output"
	"github.com/jbweber/vmsnap/internal/snapshot"
	"github.com/jbweber/vmsnap/internal/vm"
)

// Snapshot management commands
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage domain snapshots",
	Long: `Manage hypervisor snapshots of libvirt domains.

Snapshots created here persist until deleted. Use "vmsnap backup" for a
snapshot that only lives for the duration of an export.`,
}

func init() {
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)

	snapshotCreateCmd.Flags().String("description", "", "Snapshot description")

	snapshotExportCmd.Flags().String("qemu-img", "", "qemu-img binary (default from config)")
	snapshotExportCmd.Flags().Bool("no-compress", false, "Write raw images instead of compressed qcow2")
}

// lookupSnapshot resolves a named snapshot of a named domain.
func lookupSnapshot(ctx context.Context, conn *vm.Connection, domain, name string) (*vm.Machine, *snapshot.Snapshot, error) {
	m, err := conn.Machine(ctx, domain)
	if err != nil {
		return nil, nil, err
	}

	snap, err := m.Snapshot(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	return m, snap, nil
}

// snapshotInfo reads the listing view of a snapshot.
func snapshotInfo(ctx context.Context, domain string, snap *snapshot.Snapshot) (output.SnapshotInfo, error) {
	info := output.SnapshotInfo{Name: snap.Name(), Domain: domain}

	desc, err := snap.Description(ctx)
	if err != nil && !errors.Is(err, errdefs.ErrMissingAttribute) {
		return info, err
	}
	info.Description = desc

	created, err := snap.CreationTime(ctx)
	if err != nil {
		return info, err
	}
	info.CreationTime, err = strconv.ParseInt(created, 10, 64)
	if err != nil {
		return info, fmt.Errorf("invalid creation time %q for snapshot %s: %w", created, snap.Name(), err)
	}

	return info, nil
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create <domain>",
	Short: "Create a snapshot of a domain",
	Long: `Create a hypervisor snapshot of a domain.

libvirt names the snapshot after its creation time.

Example:
  vmsnap snapshot create db1 --description "before upgrade"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		ctx := cmd.Context()
		client, conn, err := connect(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		m, err := conn.Machine(ctx, args[0])
		if err != nil {
			return err
		}

		snap, err := m.CreateSnapshot(ctx, description)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Snapshot %s of %s created\n", snap.Name(), m.Name())
		return nil
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list <domain>",
	Short: "List the snapshots of a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, conn, err := connect(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		m, err := conn.Machine(ctx, args[0])
		if err != nil {
			return err
		}

		names, err := m.Snapshots(ctx)
		if err != nil {
			return err
		}

		infos := make([]output.SnapshotInfo, 0, len(names))
		for _, name := range names {
			snap, err := m.Snapshot(ctx, name)
			if err != nil {
				return err
			}
			info, err := snapshotInfo(ctx, m.Name(), snap)
			if err != nil {
				return err
			}
			infos = append(infos, info)
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}
		result, err := formatter.FormatSnapshots(infos)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <domain> <snapshot>",
	Short: "Delete a snapshot",
	Long: `Delete a hypervisor snapshot of a domain.

Example:
  vmsnap snapshot delete db1 1700000000`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, conn, err := connect(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		_, snap, err := lookupSnapshot(ctx, conn, args[0], args[1])
		if err != nil {
			return err
		}

		if err := snap.Delete(ctx); err != nil {
			return err
		}

		fmt.Printf("✓ Snapshot %s of %s deleted\n", args[1], args[0])
		return nil
	},
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <domain> <snapshot> [output-dir]",
	Short: "Print the commands that export a snapshot",
	Long: `Print the qemu-img commands that copy each disk of a snapshot into
output-dir as backup-<domain>-<device>-<creation time>.qcow.

Disks whose destination already exists are skipped. The commands are printed,
not run. output-dir defaults to the export.output_dir setting.

Example:
  vmsnap snapshot export db1 1700000000 /var/backups`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir := cfg.Export.OutputDir
		if len(args) == 3 {
			outputDir = args[2]
		}
		if outputDir == "" {
			return fmt.Errorf("no output directory given and export.output_dir is not set")
		}

		tool, _ := cmd.Flags().GetString("qemu-img")
		if tool == "" {
			tool = cfg.Export.QemuImg
		}
		compressed := cfg.Export.Compressed
		if noCompress, _ := cmd.Flags().GetBool("no-compress"); noCompress {
			compressed = false
		}

		ctx := cmd.Context()
		client, conn, err := connect(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		_, snap, err := lookupSnapshot(ctx, conn, args[0], args[1])
		if err != nil {
			return err
		}

		cmds, err := snap.ExportCommands(ctx, outputDir,
			snapshot.WithTool(tool),
			snapshot.WithCompression(compressed),
		)
		if err != nil {
			return err
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}
		result, err := formatter.FormatExportCommands(cmds)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}
