package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/vmsnap/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup <domain> [output-dir]",
	Short: "Back up a domain through a temporary snapshot",
	Long: `Snapshot a domain, export its disks and delete the snapshot again.

Without --run the export commands are only printed. They reference the
temporary snapshot, which is gone by the time they are shown. With --run
each command is executed with qemu-img and compressed output is checked to
be qcow2 before the snapshot is deleted.

output-dir defaults to the export.output_dir setting.

Example:
  vmsnap backup db1 /var/backups --run`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := backup.Options{
			OutputDir:  cfg.Export.OutputDir,
			QemuImg:    cfg.Export.QemuImg,
			Compressed: cfg.Export.Compressed,
		}
		if len(args) == 2 {
			opts.OutputDir = args[1]
		}
		if opts.OutputDir == "" {
			return fmt.Errorf("no output directory given and export.output_dir is not set")
		}
		opts.Description, _ = cmd.Flags().GetString("description")
		opts.Execute, _ = cmd.Flags().GetBool("run")
		if noCompress, _ := cmd.Flags().GetBool("no-compress"); noCompress {
			opts.Compressed = false
		}

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

		result, err := backup.Run(ctx, m, opts)
		if err != nil {
			return err
		}

		if result.Executed {
			fmt.Printf("✓ Exported %d disk(s) of %s from snapshot %s\n", len(result.Commands), result.Domain, result.Snapshot)
			return nil
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}
		out, err := formatter.FormatExportCommands(result.Commands)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(out)
		return nil
	},
}

func init() {
	backupCmd.Flags().String("description", "vmsnap backup", "Snapshot description")
	backupCmd.Flags().Bool("run", false, "Run the export commands instead of printing them")
	backupCmd.Flags().Bool("no-compress", false, "Write raw images instead of compressed qcow2")
}
