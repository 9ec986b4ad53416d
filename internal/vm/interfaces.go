package vm

import (
	"context"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/vmsnap/internal/snapshot"
)

// LibvirtClient defines the libvirt operations needed by Connection and
// Machine. It embeds the operations a snapshot.Snapshot needs, since
// snapshots created here share the same client.
//
// In production, this is satisfied by *libvirt.Client from internal/libvirt.
// In tests, this is satisfied by mock implementations.
type LibvirtClient interface {
	snapshot.LibvirtClient

	// ListActiveDomainIDs returns the transient IDs of running domains
	ListActiveDomainIDs() ([]int32, error)

	// ListInactiveDomainNames returns the names of defined but inactive domains
	ListInactiveDomainNames() ([]string, error)

	// DomainLookupByID looks up an active domain by its transient ID
	DomainLookupByID(id int32) (libvirt.Domain, error)

	// DomainLookupByName looks up a domain by name
	DomainLookupByName(name string) (libvirt.Domain, error)

	// DomainState returns the state and state reason of a domain
	DomainState(dom libvirt.Domain) (state int32, reason int32, err error)

	// DomainXML returns the live domain descriptor
	DomainXML(dom libvirt.Domain) (string, error)

	// SnapshotCreate creates a snapshot from a <domainsnapshot> document
	SnapshotCreate(dom libvirt.Domain, xml string) (libvirt.DomainSnapshot, error)

	// SnapshotLookup looks up an existing snapshot by name
	SnapshotLookup(dom libvirt.Domain, name string) (libvirt.DomainSnapshot, error)

	// SnapshotNames returns the snapshot names of a domain
	SnapshotNames(dom libvirt.Domain) ([]string, error)
}

// volumeSnapshotter creates copy-on-write snapshots of logical volumes.
//
// In production, this is satisfied by *lvm.Client.
// In tests, this is satisfied by mock implementations.
type volumeSnapshotter interface {
	// CreateSnapshot snapshots origin as a new volume called name
	CreateSnapshot(ctx context.Context, name, origin, size string) error
}
