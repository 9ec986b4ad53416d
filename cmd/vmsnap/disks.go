package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var disksCmd = &cobra.Command{
	Use:   "disks <domain>",
	Short: "List the disks of a domain",
	Long: `List the file and block backed disks of a domain, keyed by target device.

CD-ROMs and disks with snapshot=external are not shown.`,
	Args: cobra.ExactArgs(1),
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

		disks, err := m.Disks(ctx)
		if err != nil {
			return fmt.Errorf("failed to list disks: %w", err)
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}
		result, err := formatter.FormatDisks(disks)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}

var lvmSnapshotCmd = &cobra.Command{
	Use:   "lvm-snapshot <domain>",
	Short: "Snapshot the LVM volumes behind a domain",
	Long: `Create an LVM snapshot of every disk of a domain with lvcreate.

Snapshots are named <domain>-<target>-snap-<unix time>, e.g.
web01-vdb-snap-1700000000, and sized from the lvm.snapshot_size setting.
Disks whose snapshot fails are left out of the output and reported
in the error.

Example:
  vmsnap lvm-snapshot web01`,
	Args: cobra.ExactArgs(1),
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

		created, snapErr := m.CreateLVMSnapshot(ctx)

		formatter, err := newFormatter()
		if err != nil {
			return err
		}
		result, err := formatter.FormatDisks(created)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return snapErr
	},
}
