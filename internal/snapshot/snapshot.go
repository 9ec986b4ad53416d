// Package snapshot wraps a libvirt domain snapshot handle.
//
// A Snapshot reads its attributes from the snapshot descriptor XML each time
// they are requested; nothing is cached. Once Delete succeeds the handle is
// dead and every further call fails with errdefs.ErrInvalidHandle.
//
//	snap, err := machine.CreateSnapshot(ctx, "nightly")
//	if err != nil {
//	    return err
//	}
//	defer snap.Delete(ctx)
//
//	cmds, err := snap.ExportCommands(ctx, "/var/backups")
package snapshot

import (
	"context"
	"fmt"

	"github.com/digitalocean/go-libvirt"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/jbweber/vmsnap/internal/descriptor"
	"github.com/jbweber/vmsnap/internal/errdefs"
)

// LibvirtClient defines the libvirt operations a Snapshot needs.
//
// In production, this is satisfied by *libvirt.Client from internal/libvirt.
// In tests, this is satisfied by mock implementations.
type LibvirtClient interface {
	// SnapshotXML returns the snapshot descriptor XML
	SnapshotXML(snap libvirt.DomainSnapshot) (string, error)

	// SnapshotDelete deletes the snapshot
	SnapshotDelete(snap libvirt.DomainSnapshot) error
}

// State is the lifecycle state of a Snapshot handle.
type State int

const (
	// StateCreated is a handle that has not been queried yet.
	StateCreated State = iota
	// StateQueried is a handle that has served at least one query.
	StateQueried
	// StateDeleted is a released handle. There is no way back.
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateQueried:
		return "queried"
	case StateDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Snapshot is a point-in-time snapshot of a domain.
type Snapshot struct {
	client LibvirtClient
	handle libvirt.DomainSnapshot
	fs     afero.Fs
	state  State
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithFs sets the filesystem used for export destination checks.
// Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *Snapshot) {
		s.fs = fs
	}
}

// New wraps an existing snapshot handle. The caller owns the returned
// Snapshot and is responsible for calling Delete when the hypervisor
// snapshot is no longer needed.
func New(client LibvirtClient, handle libvirt.DomainSnapshot, opts ...Option) *Snapshot {
	s := &Snapshot{
		client: client,
		handle: handle,
		fs:     afero.NewOsFs(),
		state:  StateCreated,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the snapshot name assigned by libvirt.
func (s *Snapshot) Name() string {
	return s.handle.Name
}

// Handle returns the underlying go-libvirt snapshot handle.
func (s *Snapshot) Handle() libvirt.DomainSnapshot {
	return s.handle
}

// State returns the lifecycle state of the handle.
func (s *Snapshot) State() State {
	return s.state
}

// checkUsable fails once the handle has been deleted.
func (s *Snapshot) checkUsable() error {
	if s.state == StateDeleted {
		return fmt.Errorf("%w: snapshot %s of domain %s was deleted",
			errdefs.ErrInvalidHandle, s.handle.Name, s.handle.Dom.Name)
	}
	return nil
}

// xmlDesc fetches the current descriptor document.
func (s *Snapshot) xmlDesc() (string, error) {
	if err := s.checkUsable(); err != nil {
		return "", err
	}

	doc, err := s.client.SnapshotXML(s.handle)
	if err != nil {
		return "", fmt.Errorf("failed to get XML for snapshot %s: %w", s.handle.Name, err)
	}

	s.state = StateQueried
	return doc, nil
}

// Query evaluates an XPath expression against the snapshot descriptor and
// returns the trimmed text of the first match. A missing node yields an
// error wrapping errdefs.ErrMissingAttribute.
func (s *Snapshot) Query(_ context.Context, expr string) (string, error) {
	doc, err := s.xmlDesc()
	if err != nil {
		return "", err
	}
	return descriptor.Query(doc, expr)
}

// Property returns a child of the <domainsnapshot> root by relative path,
// e.g. "state", "parent/name" or "memory/@snapshot".
func (s *Snapshot) Property(ctx context.Context, name string) (string, error) {
	return s.Query(ctx, descriptor.SnapshotPath(name))
}

// DomainUUID returns the UUID of the domain the snapshot was taken from.
func (s *Snapshot) DomainUUID(ctx context.Context) (string, error) {
	return s.Property(ctx, "domain/uuid")
}

// DomainName returns the name of the domain the snapshot was taken from.
func (s *Snapshot) DomainName(ctx context.Context) (string, error) {
	return s.Property(ctx, "domain/name")
}

// CreationTime returns the snapshot creation time in seconds since the epoch,
// exactly as libvirt recorded it.
func (s *Snapshot) CreationTime(ctx context.Context) (string, error) {
	return s.Property(ctx, "creationTime")
}

// Description returns the snapshot description.
func (s *Snapshot) Description(ctx context.Context) (string, error) {
	return s.Property(ctx, "description")
}

// BackingStore returns the file-backed disks of the domain as captured in the
// snapshot descriptor.
func (s *Snapshot) BackingStore(_ context.Context) (descriptor.DiskMapping, error) {
	doc, err := s.xmlDesc()
	if err != nil {
		return nil, err
	}
	return s.backingStore(doc)
}

// backingStore enumerates the file-backed disks of a fetched descriptor.
func (s *Snapshot) backingStore(doc string) (descriptor.DiskMapping, error) {
	disks, err := descriptor.SnapshotDisks(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate disks of snapshot %s: %w", s.handle.Name, err)
	}

	return disks, nil
}

// Delete removes the snapshot from the hypervisor and invalidates the handle.
// Deleting an already deleted handle fails with errdefs.ErrInvalidHandle.
func (s *Snapshot) Delete(ctx context.Context) error {
	if err := s.checkUsable(); err != nil {
		return err
	}

	if err := s.client.SnapshotDelete(s.handle); err != nil {
		return fmt.Errorf("failed to delete snapshot %s of domain %s: %w",
			s.handle.Name, s.handle.Dom.Name, err)
	}

	s.state = StateDeleted
	zerolog.Ctx(ctx).Debug().
		Str("domain", s.handle.Dom.Name).
		Str("snapshot", s.handle.Name).
		Msg("deleted snapshot")

	return nil
}
