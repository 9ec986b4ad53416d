package snapshot

import (
	"context"
	"testing"

	"github.com/digitalocean/go-libvirt"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/vmsnap/internal/errdefs"
)

const twoDiskSnapshotXML = `<domainsnapshot>
  <name>1700000000</name>
  <creationTime>1700000000</creationTime>
  <domain type='kvm'>
    <name>web01</name>
    <uuid>4dea22b3-1d52-d8f3-2516-782e98ab3fa0</uuid>
    <devices>
      <disk type='file' device='disk'>
        <source file='/var/lib/libvirt/images/web01.qcow2'/>
        <target dev='vda' bus='virtio'/>
      </disk>
      <disk type='file' device='disk'>
        <source file='/var/lib/libvirt/images/web01 data.qcow2'/>
        <target dev='vdb' bus='virtio'/>
      </disk>
      <disk type='file' device='disk' snapshot='external'>
        <source file='/var/lib/libvirt/images/web01-scratch.qcow2'/>
        <target dev='vdc' bus='virtio'/>
      </disk>
    </devices>
  </domain>
</domainsnapshot>`

// newExportSnapshot returns a snapshot backed by an in-memory filesystem
// holding an empty /backup directory.
func newExportSnapshot(t *testing.T, xml, name string) (*Snapshot, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/backup", 0o755))

	handle := libvirt.DomainSnapshot{Name: name, Dom: libvirt.Domain{Name: "db1"}}
	return New(newMockLibvirtClient(xml), handle, WithFs(fs)), fs
}

func TestExportCommands_Scenario(t *testing.T) {
	snap, _ := newExportSnapshot(t, db1SnapshotXML, "db1")

	cmds, err := snap.ExportCommands(context.Background(), "/backup")
	require.NoError(t, err)
	require.Len(t, cmds, 1)

	assert.Equal(t,
		"qemu-img convert -O qcow2 -c -s db1 /var/lib/libvirt/images/db1.qcow2 /backup/backup-db1-vda-1000.qcow",
		cmds[0].String())
	assert.Equal(t, "vda", cmds[0].Target)
	assert.Equal(t, "/var/lib/libvirt/images/db1.qcow2", cmds[0].Source)
	assert.Equal(t, "/backup/backup-db1-vda-1000.qcow", cmds[0].Destination)
}

func TestExportCommands_SingleDescriptorFetch(t *testing.T) {
	mock := newMockLibvirtClient(twoDiskSnapshotXML)
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/backup", 0o755))
	snap := New(mock, libvirt.DomainSnapshot{Name: "1700000000"}, WithFs(fs))

	cmds, err := snap.ExportCommands(context.Background(), "/backup")
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, 1, mock.getXMLCalls)
	assert.Equal(t, StateQueried, snap.State())
}

func TestExportCommands_Options(t *testing.T) {
	tests := []struct {
		name         string
		opts         []ExportOption
		wantCompress bool
		wantTool     string
	}{
		{name: "defaults", wantCompress: true, wantTool: "qemu-img"},
		{name: "uncompressed", opts: []ExportOption{WithCompression(false)}, wantTool: "qemu-img"},
		{
			name:         "custom tool",
			opts:         []ExportOption{WithTool("/opt/qemu/bin/qemu-img")},
			wantCompress: true,
			wantTool:     "/opt/qemu/bin/qemu-img",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, _ := newExportSnapshot(t, twoDiskSnapshotXML, "1700000000")

			cmds, err := snap.ExportCommands(context.Background(), "/backup", tt.opts...)
			require.NoError(t, err)
			require.Len(t, cmds, 2)

			for _, cmd := range cmds {
				line := cmd.String()
				assert.Equal(t, tt.wantTool, cmd.Args[0])
				assert.Equal(t, "convert", cmd.Args[1])
				if tt.wantCompress {
					assert.Contains(t, line, "-O qcow2 -c")
				} else {
					assert.NotContains(t, line, "-O qcow2 -c")
				}
				assert.Contains(t, line, "-s 1700000000")
				assert.Equal(t, "/backup/backup-web01-"+cmd.Target+"-1700000000.qcow", cmd.Destination)
			}
		})
	}
}

func TestExportCommands_QuotesPaths(t *testing.T) {
	snap, _ := newExportSnapshot(t, twoDiskSnapshotXML, "1700000000")

	cmds, err := snap.ExportCommands(context.Background(), "/backup")
	require.NoError(t, err)
	require.Len(t, cmds, 2)

	assert.Equal(t, "/var/lib/libvirt/images/web01 data.qcow2", cmds[1].Args[7])
	assert.Contains(t, cmds[1].String(), `'/var/lib/libvirt/images/web01 data.qcow2'`)
}

func TestExportCommands_SkipsExisting(t *testing.T) {
	ctx := context.Background()
	snap, fs := newExportSnapshot(t, twoDiskSnapshotXML, "1700000000")

	first, err := snap.ExportCommands(ctx, "/backup")
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Simulate the first export having completed for vda only.
	require.NoError(t, afero.WriteFile(fs, first[0].Destination, []byte("done"), 0o644))

	second, err := snap.ExportCommands(ctx, "/backup")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "vdb", second[0].Target)

	// Once everything exists, nothing is left to do.
	require.NoError(t, afero.WriteFile(fs, first[1].Destination, []byte("done"), 0o644))

	third, err := snap.ExportCommands(ctx, "/backup")
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestExportCommands_NotADirectory(t *testing.T) {
	snap, fs := newExportSnapshot(t, db1SnapshotXML, "db1")
	require.NoError(t, afero.WriteFile(fs, "/backup.tar", []byte("x"), 0o644))

	for _, dir := range []string{"/nonexistent", "/backup.tar"} {
		t.Run(dir, func(t *testing.T) {
			cmds, err := snap.ExportCommands(context.Background(), dir)
			require.ErrorIs(t, err, errdefs.ErrNotDirectory)
			assert.Nil(t, cmds)
		})
	}
}

func TestExportCommands_MissingCreationTime(t *testing.T) {
	xml := `<domainsnapshot><name>s</name><domain><name>db1</name></domain></domainsnapshot>`
	snap, _ := newExportSnapshot(t, xml, "s")

	_, err := snap.ExportCommands(context.Background(), "/backup")
	require.ErrorIs(t, err, errdefs.ErrMissingAttribute)
}
