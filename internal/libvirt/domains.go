package libvirt

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/vmsnap/internal/errdefs"
)

// The methods below give the consumer-side LibvirtClient interfaces of
// internal/vm and internal/snapshot a fixed shape. Flags are always zero.
// Errors caused by a lost connection wrap errdefs.ErrConnection; errors
// reported by the daemon are returned as is.

// rpc returns the live connection or an ErrConnection error.
func (c *Client) rpc() (*libvirt.Libvirt, error) {
	if c.libvirt == nil {
		return nil, fmt.Errorf("%w: client not connected", errdefs.ErrConnection)
	}
	return c.libvirt, nil
}

// isTransportError reports whether err means the socket to the daemon is gone.
func isTransportError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}

// rpcError wraps transport failures of an RPC with errdefs.ErrConnection.
func rpcError(call string, err error) error {
	if err == nil || !isTransportError(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", errdefs.ErrConnection, call, err)
}

// ListActiveDomainIDs returns the transient IDs of the running domains.
func (c *Client) ListActiveDomainIDs() ([]int32, error) {
	l, err := c.rpc()
	if err != nil {
		return nil, err
	}

	n, err := l.ConnectNumOfDomains()
	if err != nil {
		return nil, rpcError("ConnectNumOfDomains", err)
	}
	if n == 0 {
		return []int32{}, nil
	}

	ids, err := l.ConnectListDomains(n)
	if err != nil {
		return nil, rpcError("ConnectListDomains", err)
	}
	return ids, nil
}

// ListInactiveDomainNames returns the names of the defined but inactive domains.
func (c *Client) ListInactiveDomainNames() ([]string, error) {
	l, err := c.rpc()
	if err != nil {
		return nil, err
	}

	n, err := l.ConnectNumOfDefinedDomains()
	if err != nil {
		return nil, rpcError("ConnectNumOfDefinedDomains", err)
	}
	if n == 0 {
		return []string{}, nil
	}

	names, err := l.ConnectListDefinedDomains(n)
	if err != nil {
		return nil, rpcError("ConnectListDefinedDomains", err)
	}
	return names, nil
}

// DomainLookupByID looks up a running domain by its transient ID.
func (c *Client) DomainLookupByID(id int32) (libvirt.Domain, error) {
	l, err := c.rpc()
	if err != nil {
		return libvirt.Domain{}, err
	}

	dom, err := l.DomainLookupByID(id)
	if err != nil {
		return libvirt.Domain{}, rpcError("DomainLookupByID", err)
	}
	return dom, nil
}

// DomainLookupByName looks up a domain by name.
func (c *Client) DomainLookupByName(name string) (libvirt.Domain, error) {
	l, err := c.rpc()
	if err != nil {
		return libvirt.Domain{}, err
	}

	dom, err := l.DomainLookupByName(name)
	if err != nil {
		return libvirt.Domain{}, rpcError("DomainLookupByName", err)
	}
	return dom, nil
}

// DomainState returns the state and state reason of a domain.
func (c *Client) DomainState(dom libvirt.Domain) (int32, int32, error) {
	l, err := c.rpc()
	if err != nil {
		return 0, 0, err
	}

	state, reason, err := l.DomainGetState(dom, 0)
	if err != nil {
		return 0, 0, rpcError("DomainGetState", err)
	}
	return state, reason, nil
}

// DomainXML returns the live descriptor of a domain.
func (c *Client) DomainXML(dom libvirt.Domain) (string, error) {
	l, err := c.rpc()
	if err != nil {
		return "", err
	}

	doc, err := l.DomainGetXMLDesc(dom, 0)
	if err != nil {
		return "", rpcError("DomainGetXMLDesc", err)
	}
	return doc, nil
}

// SnapshotCreate creates a snapshot of dom from a <domainsnapshot> document.
func (c *Client) SnapshotCreate(dom libvirt.Domain, xml string) (libvirt.DomainSnapshot, error) {
	l, err := c.rpc()
	if err != nil {
		return libvirt.DomainSnapshot{}, err
	}

	snap, err := l.DomainSnapshotCreateXML(dom, xml, 0)
	if err != nil {
		return libvirt.DomainSnapshot{}, rpcError("DomainSnapshotCreateXML", err)
	}
	return snap, nil
}

// SnapshotLookup looks up an existing snapshot of dom by name.
func (c *Client) SnapshotLookup(dom libvirt.Domain, name string) (libvirt.DomainSnapshot, error) {
	l, err := c.rpc()
	if err != nil {
		return libvirt.DomainSnapshot{}, err
	}

	snap, err := l.DomainSnapshotLookupByName(dom, name, 0)
	if err != nil {
		return libvirt.DomainSnapshot{}, rpcError("DomainSnapshotLookupByName", err)
	}
	return snap, nil
}

// SnapshotNames returns the names of the snapshots of dom.
func (c *Client) SnapshotNames(dom libvirt.Domain) ([]string, error) {
	l, err := c.rpc()
	if err != nil {
		return nil, err
	}

	n, err := l.DomainSnapshotNum(dom, 0)
	if err != nil {
		return nil, rpcError("DomainSnapshotNum", err)
	}
	if n == 0 {
		return []string{}, nil
	}

	names, err := l.DomainSnapshotListNames(dom, n, 0)
	if err != nil {
		return nil, rpcError("DomainSnapshotListNames", err)
	}
	return names, nil
}

// SnapshotXML returns the descriptor of a snapshot.
func (c *Client) SnapshotXML(snap libvirt.DomainSnapshot) (string, error) {
	l, err := c.rpc()
	if err != nil {
		return "", err
	}

	doc, err := l.DomainSnapshotGetXMLDesc(snap, 0)
	if err != nil {
		return "", rpcError("DomainSnapshotGetXMLDesc", err)
	}
	return doc, nil
}

// SnapshotDelete deletes a snapshot and its metadata.
func (c *Client) SnapshotDelete(snap libvirt.DomainSnapshot) error {
	l, err := c.rpc()
	if err != nil {
		return err
	}
	return rpcError("DomainSnapshotDelete", l.DomainSnapshotDelete(snap, 0))
}
