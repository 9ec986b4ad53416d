package vm

import (
	"context"
	"fmt"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jbweber/vmsnap/internal/errdefs"
)

// Connection lists and looks up the domains managed by a hypervisor.
type Connection struct {
	client LibvirtClient
	opts   []Option
}

// NewConnection wraps an established libvirt client. The options are applied
// to every Machine the connection returns.
func NewConnection(client LibvirtClient, opts ...Option) *Connection {
	return &Connection{client: client, opts: opts}
}

// Machines returns every managed domain, active or defined-but-inactive.
//
// Active domains are enumerated by ID and inactive ones by name. A domain
// that changes state between the two enumerations can appear in both, so the
// result is de-duplicated by UUID. Active domains come first, each group in
// enumeration order.
//
// A domain that disappears between listing and lookup is logged and skipped.
// Listing failures wrap errdefs.ErrConnection.
func (c *Connection) Machines(ctx context.Context) ([]*Machine, error) {
	logger := zerolog.Ctx(ctx)

	active, err := c.activeDomains(ctx)
	if err != nil {
		return nil, err
	}
	inactive, err := c.inactiveDomains(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(active)+len(inactive))
	machines := make([]*Machine, 0, len(active)+len(inactive))
	for _, dom := range append(active, inactive...) {
		id := uuid.UUID(dom.UUID)
		if _, ok := seen[id]; ok {
			logger.Debug().Str("domain", dom.Name).Msg("domain listed twice, skipping duplicate")
			continue
		}
		seen[id] = struct{}{}
		machines = append(machines, newMachine(c.client, dom, c.opts...))
	}

	return machines, nil
}

// Machine looks up a single domain by name.
func (c *Connection) Machine(_ context.Context, name string) (*Machine, error) {
	dom, err := c.client.DomainLookupByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up domain %s: %w", errdefs.ErrConnection, name, err)
	}
	return newMachine(c.client, dom, c.opts...), nil
}

// activeDomains looks up the running domains by their transient IDs.
func (c *Connection) activeDomains(ctx context.Context) ([]libvirt.Domain, error) {
	ids, err := c.client.ListActiveDomainIDs()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list active domains: %w", errdefs.ErrConnection, err)
	}

	domains := make([]libvirt.Domain, 0, len(ids))
	for _, id := range ids {
		dom, err := c.client.DomainLookupByID(id)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Int32("id", id).Msg("failed to look up active domain, skipping")
			continue
		}
		domains = append(domains, dom)
	}

	return domains, nil
}

// inactiveDomains looks up the defined but inactive domains by name.
func (c *Connection) inactiveDomains(ctx context.Context) ([]libvirt.Domain, error) {
	names, err := c.client.ListInactiveDomainNames()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list inactive domains: %w", errdefs.ErrConnection, err)
	}

	domains := make([]libvirt.Domain, 0, len(names))
	for _, name := range names {
		dom, err := c.client.DomainLookupByName(name)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("domain", name).Msg("failed to look up inactive domain, skipping")
			continue
		}
		domains = append(domains, dom)
	}

	return domains, nil
}
