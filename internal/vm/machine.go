package vm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jbweber/vmsnap/internal/descriptor"
	"github.com/jbweber/vmsnap/internal/errdefs"
	"github.com/jbweber/vmsnap/internal/lvm"
	"github.com/jbweber/vmsnap/internal/naming"
	"github.com/jbweber/vmsnap/internal/snapshot"
)

// Machine is a domain known to the hypervisor. It only observes the domain;
// the hypervisor owns its lifecycle.
type Machine struct {
	client       LibvirtClient
	domain       libvirt.Domain
	volumes      volumeSnapshotter
	snapshotSize string
	now          func() time.Time
	snapshotOpts []snapshot.Option
}

// Option configures a Machine.
type Option func(*Machine)

// WithLVM sets the tool used by CreateLVMSnapshot and the space reserved for
// each snapshot volume. Defaults to lvcreate from PATH and lvm.DefaultSnapshotSize.
func WithLVM(client *lvm.Client, size string) Option {
	return func(m *Machine) {
		m.volumes = client
		if size != "" {
			m.snapshotSize = size
		}
	}
}

// WithSnapshotOptions sets the options applied to every Snapshot the machine
// creates or looks up.
func WithSnapshotOptions(opts ...snapshot.Option) Option {
	return func(m *Machine) {
		m.snapshotOpts = append(m.snapshotOpts, opts...)
	}
}

// NewMachine wraps a domain handle.
func NewMachine(client LibvirtClient, domain libvirt.Domain, opts ...Option) *Machine {
	return newMachine(client, domain, opts...)
}

func newMachine(client LibvirtClient, domain libvirt.Domain, opts ...Option) *Machine {
	m := &Machine{
		client:       client,
		domain:       domain,
		volumes:      lvm.New(""),
		snapshotSize: lvm.DefaultSnapshotSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the domain name.
func (m *Machine) Name() string {
	return m.domain.Name
}

// UUID returns the domain UUID in canonical form.
func (m *Machine) UUID() string {
	return uuid.UUID(m.domain.UUID).String()
}

// Domain returns the underlying go-libvirt domain handle.
func (m *Machine) Domain() libvirt.Domain {
	return m.domain
}

// State returns the human-readable domain state, e.g. "running" or
// "shutoff (destroyed)".
func (m *Machine) State(_ context.Context) (string, error) {
	state, reason, err := m.client.DomainState(m.domain)
	if err != nil {
		return "", fmt.Errorf("failed to get state of domain %s: %w", m.domain.Name, err)
	}
	return stateToString(state, reason), nil
}

// Disks returns the snapshot-able disks from the live domain descriptor.
// The source is the block device when present, otherwise the file path.
func (m *Machine) Disks(_ context.Context) (descriptor.DiskMapping, error) {
	doc, err := m.client.DomainXML(m.domain)
	if err != nil {
		return nil, fmt.Errorf("failed to get XML for domain %s: %w", m.domain.Name, err)
	}

	disks, err := descriptor.DomainDisks(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate disks of domain %s: %w", m.domain.Name, err)
	}

	return disks, nil
}

// CreateSnapshot creates a hypervisor snapshot with an optional description.
// The caller owns the returned Snapshot and must Delete it.
//
// Hypervisor snapshots do not work for LVM-backed disks; use
// CreateLVMSnapshot for those.
func (m *Machine) CreateSnapshot(ctx context.Context, description string) (*snapshot.Snapshot, error) {
	doc, err := descriptor.SnapshotRequestXML(description)
	if err != nil {
		return nil, fmt.Errorf("%w: domain %s: %w", errdefs.ErrSnapshotCreation, m.domain.Name, err)
	}

	handle, err := m.client.SnapshotCreate(m.domain, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: domain %s: %w", errdefs.ErrSnapshotCreation, m.domain.Name, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("domain", m.domain.Name).
		Str("snapshot", handle.Name).
		Msg("created snapshot")

	return snapshot.New(m.client, handle, m.snapshotOpts...), nil
}

// WithSnapshot creates a snapshot, passes it to fn and deletes it when fn
// returns or panics. A failed deletion is joined with fn's error. If fn
// deletes the snapshot itself nothing more is done.
func (m *Machine) WithSnapshot(ctx context.Context, description string, fn func(*snapshot.Snapshot) error) (err error) {
	snap, err := m.CreateSnapshot(ctx, description)
	if err != nil {
		return err
	}

	defer func() {
		r := recover()
		if snap.State() != snapshot.StateDeleted {
			if delErr := snap.Delete(ctx); delErr != nil {
				zerolog.Ctx(ctx).Error().Err(delErr).
					Str("domain", m.domain.Name).
					Str("snapshot", snap.Name()).
					Msg("failed to release snapshot")
				err = errors.Join(err, delErr)
			}
		}
		if r != nil {
			panic(r)
		}
	}()

	return fn(snap)
}

// CreateLVMSnapshot snapshots every disk of the machine with lvcreate and
// returns the new volumes keyed by target device. Each volume is named
// {machine}-{target}-snap-{unixTimestamp} and lives next to its origin.
//
// Every disk is attempted. Disks whose snapshot failed are left out of the
// mapping and reported in the returned error, one ErrSnapshotCreation per
// disk, so a non-nil error can come with a partial mapping.
func (m *Machine) CreateLVMSnapshot(ctx context.Context) (descriptor.DiskMapping, error) {
	logger := zerolog.Ctx(ctx)

	disks, err := m.Disks(ctx)
	if err != nil {
		return nil, err
	}

	ts := m.now().Unix()
	snapshots := make(descriptor.DiskMapping, 0, len(disks))
	var errs []error
	for _, disk := range disks {
		name := naming.LVMSnapshotName(m.domain.Name, disk.Target, ts)

		if err := m.volumes.CreateSnapshot(ctx, name, disk.Source, m.snapshotSize); err != nil {
			logger.Warn().Err(err).
				Str("domain", m.domain.Name).
				Str("target", disk.Target).
				Msg("LVM snapshot failed, omitting disk")
			errs = append(errs, fmt.Errorf("%w: disk %s of domain %s: %w",
				errdefs.ErrSnapshotCreation, disk.Target, m.domain.Name, err))
			continue
		}

		snapshots = append(snapshots, descriptor.Disk{
			Target: disk.Target,
			Source: naming.LVMSnapshotPath(disk.Source, name),
		})
	}

	return snapshots, errors.Join(errs...)
}

// Snapshot looks up an existing snapshot by name. The caller decides
// whether to Delete it.
func (m *Machine) Snapshot(_ context.Context, name string) (*snapshot.Snapshot, error) {
	handle, err := m.client.SnapshotLookup(m.domain, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up snapshot %s of domain %s: %w", name, m.domain.Name, err)
	}
	return snapshot.New(m.client, handle, m.snapshotOpts...), nil
}

// Snapshots returns the names of the domain's existing snapshots.
func (m *Machine) Snapshots(_ context.Context) ([]string, error) {
	names, err := m.client.SnapshotNames(m.domain)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots of domain %s: %w", m.domain.Name, err)
	}
	return names, nil
}
