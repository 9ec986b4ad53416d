package lvm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "lvcreate", New("").lvcreatePath)
	assert.Equal(t, "/sbin/lvcreate", New("/sbin/lvcreate").lvcreatePath)
}

func TestClient_SnapshotArgs(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name string
		size string
		want []string
	}{
		{
			name: "default size",
			want: []string{"lvcreate", "-n", "web01-vdb-snap-1", "-s", "/dev/vg0/web01-vdb", "-L2G"},
		},
		{
			name: "explicit size",
			size: "512M",
			want: []string{"lvcreate", "-n", "web01-vdb-snap-1", "-s", "/dev/vg0/web01-vdb", "-L512M"},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := New("").SnapshotArgs("web01-vdb-snap-1", "/dev/vg0/web01-vdb", tc.size)
			assert.Equal(t, tc.want, got)
		})
	}
}

// writeScript writes an executable shell script standing in for lvcreate.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lvcreate")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestClient_CreateSnapshot(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available, skipping test")
	}

	t.Run("success", func(t *testing.T) {
		argsFile := filepath.Join(t.TempDir(), "args")
		script := writeScript(t, `printf '%s\n' "$*" > `+argsFile)

		err := New(script).CreateSnapshot(context.Background(), "web01-vdb-snap-1", "/dev/vg0/web01-vdb", "")
		require.NoError(t, err)

		data, err := os.ReadFile(argsFile)
		require.NoError(t, err)
		assert.Equal(t, "-n web01-vdb-snap-1 -s /dev/vg0/web01-vdb -L2G\n", string(data))
	})

	t.Run("failure includes output", func(t *testing.T) {
		script := writeScript(t, `echo "Volume group not found" >&2; exit 5`)

		err := New(script).CreateSnapshot(context.Background(), "s", "/dev/vg9/x", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Volume group not found")
	})

	t.Run("missing binary", func(t *testing.T) {
		err := New(filepath.Join(t.TempDir(), "nope")).CreateSnapshot(context.Background(), "s", "/dev/vg0/x", "")
		require.Error(t, err)
	})
}
