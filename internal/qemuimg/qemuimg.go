// Package qemuimg wraps the qemu-img command line tool.
//
// It synthesizes the argument lists for exporting a disk image at an
// internal snapshot, runs them, and checks the format of produced images.
//
//	client := qemuimg.New("")
//	args := client.ConvertArgs(qemuimg.ConvertOptions{
//	    Snapshot:    "1700000000",
//	    Source:      "/var/lib/libvirt/images/db1.qcow2",
//	    Destination: "/backup/backup-db1-vda-1700000000.qcow",
//	    Compressed:  true,
//	})
//	err := client.Run(ctx, args)
package qemuimg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPath is the qemu-img binary resolved from PATH.
const DefaultPath = "qemu-img"

// Client runs qemu-img.
type Client struct {
	path    string
	timeout time.Duration
}

// New creates a new qemu-img client.
// If path is empty, DefaultPath is used.
func New(path string) *Client {
	if path == "" {
		path = DefaultPath
	}
	return &Client{
		path:    path,
		timeout: 6 * time.Hour, // full-disk exports of large images are slow
	}
}

// WithTimeout sets the timeout applied to each Run.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// Path returns the qemu-img binary this client invokes.
func (c *Client) Path() string {
	return c.path
}

// ConvertOptions describes one snapshot export.
type ConvertOptions struct {
	Snapshot    string // Internal snapshot (or machine) name passed with -s
	Source      string // Source image file
	Destination string // Output file
	Compressed  bool   // Write compressed qcow2 (-O qcow2 -c)
}

// ConvertArgs returns the argv for exporting a snapshot:
//
//	<path> convert [-O qcow2 -c] -s <snapshot> <source> <destination>
func (c *Client) ConvertArgs(opts ConvertOptions) []string {
	args := []string{c.path, "convert"}
	if opts.Compressed {
		args = append(args, "-O", "qcow2", "-c")
	}
	return append(args, "-s", opts.Snapshot, opts.Source, opts.Destination)
}

// Run executes a command produced by this package.
// The command's combined output is included in the error on failure.
func (c *Client) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("empty command")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("cmd", strings.Join(args, " ")).Msg("running qemu-img")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to run %s: %w, output: %s",
			strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}

	return nil
}
