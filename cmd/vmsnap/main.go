package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jbweber/vmsnap/internal/config"
	"github.com/jbweber/vmsnap/internal/libvirt"
	"github.com/jbweber/vmsnap/internal/logging"
	"github.com/jbweber/vmsnap/internal/lvm"
	"github.com/jbweber/vmsnap/internal/output"
	"github.com/jbweber/vmsnap/internal/vm"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Global flags
var (
	configPath   string
	socketPath   string
	logLevel     string
	outputFormat string
	noHeaders    bool
)

// cfg is loaded once per invocation by the root PersistentPreRunE.
var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vmsnap",
	Short: "vmsnap - Libvirt snapshot and backup tool",
	Long: `vmsnap is a CLI tool for snapshotting libvirt domains and exporting
their disks.

It lists domains and their disks, takes hypervisor and LVM snapshots, and
produces the qemu-img commands that copy a snapshot's disks to a backup
directory.`,
	Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "libvirt UNIX socket (default "+libvirt.DefaultSocket+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, yaml, json")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false, "Omit table headers")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(testConnCmd)
	rootCmd.AddCommand(disksCmd)
	rootCmd.AddCommand(lvmSnapshotCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(backupCmd)
}

// setup loads the configuration, applies flag overrides and installs the
// logger on the command context.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("socket") {
		loaded.Libvirt.Socket = socketPath
	}
	if cmd.Flags().Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := output.ValidateFormat(outputFormat); err != nil {
		return err
	}

	logger, err := logging.New(loaded.Log.Level, loaded.Log.Format, os.Stderr)
	if err != nil {
		return err
	}

	cfg = loaded
	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}

// connect dials libvirt and returns the client with a Connection over it.
// The caller must close the client with closeClient.
func connect(ctx context.Context) (*libvirt.Client, *vm.Connection, error) {
	client, err := libvirt.ConnectWithContext(ctx, cfg.Libvirt.Socket, cfg.Libvirt.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to libvirt: %w", err)
	}

	conn := vm.NewConnection(client, vm.WithLVM(lvm.New(cfg.LVM.Lvcreate), cfg.LVM.SnapshotSize))
	return client, conn, nil
}

func closeClient(ctx context.Context, client *libvirt.Client) {
	if err := client.Close(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close libvirt connection")
	}
}

func newFormatter() (output.Formatter, error) {
	return output.NewFormatter(output.Options{
		Format:    output.Format(outputFormat),
		NoHeaders: noHeaders,
	})
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List domains",
	Long: `List every domain defined on the hypervisor, running ones first.

Shows domain name, UUID and state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, conn, err := connect(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		machines, err := conn.Machines(ctx)
		if err != nil {
			return fmt.Errorf("failed to list domains: %w", err)
		}

		infos := make([]output.MachineInfo, 0, len(machines))
		for _, m := range machines {
			state, err := m.State(ctx)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("domain", m.Name()).Msg("failed to get domain state")
				state = "-"
			}
			infos = append(infos, output.MachineInfo{Name: m.Name(), UUID: m.UUID(), State: state})
		}

		formatter, err := newFormatter()
		if err != nil {
			return err
		}
		result, err := formatter.FormatMachines(infos)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}

var testConnCmd = &cobra.Command{
	Use:   "test-conn",
	Short: "Test libvirt connection",
	Long:  `Test connectivity to the libvirt daemon and display version information.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fmt.Println("Testing libvirt connection...")

		client, _, err := connect(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		fmt.Println("✓ Connected to libvirt daemon")

		if err := client.Ping(); err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}

		info, err := client.Info()
		if err != nil {
			return err
		}

		fmt.Printf("✓ Libvirt version: %s\n", info.Version)
		fmt.Printf("✓ Hypervisor hostname: %s\n", info.Hostname)
		fmt.Printf("✓ Connection URI: %s\n", info.URI)

		fmt.Println("\nConnection test successful!")
		return nil
	},
}
