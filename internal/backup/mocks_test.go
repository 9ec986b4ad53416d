package backup

import (
	"context"
	"errors"

	"github.com/digitalocean/go-libvirt"
	"github.com/spf13/afero"

	"github.com/jbweber/vmsnap/internal/qemuimg"
	"github.com/jbweber/vmsnap/internal/snapshot"
	"github.com/jbweber/vmsnap/internal/vm"
)

var (
	_ machine       = (*vm.Machine)(nil)
	_ commandRunner = (*qemuimg.Client)(nil)
)

// mockSnapshotClient is a mock implementation of snapshot.LibvirtClient for testing.
type mockSnapshotClient struct {
	xml         string
	deleteErr   error
	deleteCalls int
}

func (m *mockSnapshotClient) SnapshotXML(libvirt.DomainSnapshot) (string, error) {
	return m.xml, nil
}

func (m *mockSnapshotClient) SnapshotDelete(libvirt.DomainSnapshot) error {
	m.deleteCalls++
	return m.deleteErr
}

// mockMachine is a mock implementation of the machine interface for testing.
// Its snapshots read their descriptor from client and check files on fs.
type mockMachine struct {
	name      string
	client    *mockSnapshotClient
	fs        afero.Fs
	createErr error
}

func (m *mockMachine) Name() string {
	return m.name
}

func (m *mockMachine) WithSnapshot(ctx context.Context, _ string, fn func(*snapshot.Snapshot) error) error {
	if m.createErr != nil {
		return m.createErr
	}

	handle := libvirt.DomainSnapshot{Name: "1000", Dom: libvirt.Domain{Name: m.name}}
	snap := snapshot.New(m.client, handle, snapshot.WithFs(m.fs))

	err := fn(snap)
	if snap.State() != snapshot.StateDeleted {
		err = errors.Join(err, snap.Delete(ctx))
	}
	return err
}

// mockRunner is a mock implementation of the commandRunner interface for
// testing. It writes output for each destination onto fs.
type mockRunner struct {
	fs      afero.Fs
	content []byte
	err     error
	calls   [][]string
}

func (m *mockRunner) Run(_ context.Context, args []string) error {
	m.calls = append(m.calls, args)
	if m.err != nil {
		return m.err
	}
	return afero.WriteFile(m.fs, args[len(args)-1], m.content, 0o644)
}
