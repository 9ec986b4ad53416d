// Package lvm wraps the lvcreate command line tool for creating
// copy-on-write snapshots of logical volumes.
package lvm

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultSnapshotSize is the copy-on-write space reserved for each snapshot.
const DefaultSnapshotSize = "2G"

// Client runs lvcreate.
type Client struct {
	lvcreatePath string
}

// New creates a new lvm client.
// If lvcreatePath is empty, "lvcreate" is resolved from PATH.
func New(lvcreatePath string) *Client {
	if lvcreatePath == "" {
		lvcreatePath = "lvcreate"
	}
	return &Client{lvcreatePath: lvcreatePath}
}

// SnapshotArgs returns the argv for creating a snapshot named name of the
// origin volume, reserving size (e.g. "2G") for changes:
//
//	lvcreate -n <name> -s <origin> -L<size>
func (c *Client) SnapshotArgs(name, origin, size string) []string {
	if size == "" {
		size = DefaultSnapshotSize
	}
	return []string{c.lvcreatePath, "-n", name, "-s", origin, "-L" + size}
}

// CreateSnapshot runs lvcreate to snapshot origin as name.
// The command's combined output is included in the error on failure.
func (c *Client) CreateSnapshot(ctx context.Context, name, origin, size string) error {
	args := c.SnapshotArgs(name, origin, size)
	zerolog.Ctx(ctx).Info().Str("cmd", strings.Join(args, " ")).Msg("creating LVM snapshot")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s of %s: %w, output: %s",
			name, origin, err, strings.TrimSpace(string(output)))
	}

	return nil
}
