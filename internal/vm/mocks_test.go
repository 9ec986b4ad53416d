package vm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/digitalocean/go-libvirt"
)

// mockLibvirtClient is a mock implementation of the LibvirtClient interface for testing.
type mockLibvirtClient struct {
	mu sync.Mutex

	// Configurable behavior
	activeIDs          []int32
	definedNames       []string
	domainsByID        map[int32]libvirt.Domain
	domainsByName      map[string]libvirt.Domain
	domainXML          map[string]string
	listErr            error
	domainStateFunc    func(dom libvirt.Domain) (int32, int32, error)
	snapshotCreateFunc func(dom libvirt.Domain, xml string) (libvirt.DomainSnapshot, error)
	snapshotDeleteFunc func(snap libvirt.DomainSnapshot) error
	snapshotXML        string
	snapshotNames      []string
	snapshotLookupFunc func(dom libvirt.Domain, name string) (libvirt.DomainSnapshot, error)

	// Call tracking
	domainLookupByIDCalls   []int32
	domainLookupByNameCalls []string
	snapshotCreateCalls     []string
	snapshotDeleteCalls     []libvirt.DomainSnapshot
}

// newMockLibvirtClient creates a new mock libvirt client with no domains.
func newMockLibvirtClient() *mockLibvirtClient {
	m := &mockLibvirtClient{
		domainsByID:   map[int32]libvirt.Domain{},
		domainsByName: map[string]libvirt.Domain{},
		domainXML:     map[string]string{},
	}

	// Default: domain state is running
	m.domainStateFunc = func(dom libvirt.Domain) (int32, int32, error) {
		return domainStateRunning, 0, nil
	}

	// Default: snapshot creation succeeds and is named after the domain
	m.snapshotCreateFunc = func(dom libvirt.Domain, xml string) (libvirt.DomainSnapshot, error) {
		return libvirt.DomainSnapshot{Name: dom.Name, Dom: dom}, nil
	}

	// Default: snapshot deletion succeeds
	m.snapshotDeleteFunc = func(snap libvirt.DomainSnapshot) error {
		return nil
	}

	// Default: lookups of known snapshot names succeed
	m.snapshotLookupFunc = func(dom libvirt.Domain, name string) (libvirt.DomainSnapshot, error) {
		for _, n := range m.snapshotNames {
			if n == name {
				return libvirt.DomainSnapshot{Name: name, Dom: dom}, nil
			}
		}
		return libvirt.DomainSnapshot{}, fmt.Errorf("snapshot not found: %s", name)
	}

	return m
}

// addActive registers a running domain.
func (m *mockLibvirtClient) addActive(dom libvirt.Domain) {
	m.activeIDs = append(m.activeIDs, dom.ID)
	m.domainsByID[dom.ID] = dom
	m.domainsByName[dom.Name] = dom
}

// addDefined registers a defined but inactive domain.
func (m *mockLibvirtClient) addDefined(dom libvirt.Domain) {
	m.definedNames = append(m.definedNames, dom.Name)
	m.domainsByName[dom.Name] = dom
}

func (m *mockLibvirtClient) ListActiveDomainIDs() ([]int32, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.activeIDs, nil
}

func (m *mockLibvirtClient) ListInactiveDomainNames() ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.definedNames, nil
}

func (m *mockLibvirtClient) DomainLookupByID(id int32) (libvirt.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domainLookupByIDCalls = append(m.domainLookupByIDCalls, id)
	dom, ok := m.domainsByID[id]
	if !ok {
		return libvirt.Domain{}, fmt.Errorf("domain not found: id %d", id)
	}
	return dom, nil
}

func (m *mockLibvirtClient) DomainLookupByName(name string) (libvirt.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domainLookupByNameCalls = append(m.domainLookupByNameCalls, name)
	dom, ok := m.domainsByName[name]
	if !ok {
		return libvirt.Domain{}, fmt.Errorf("domain not found: %s", name)
	}
	return dom, nil
}

func (m *mockLibvirtClient) DomainState(dom libvirt.Domain) (int32, int32, error) {
	return m.domainStateFunc(dom)
}

func (m *mockLibvirtClient) DomainXML(dom libvirt.Domain) (string, error) {
	xml, ok := m.domainXML[dom.Name]
	if !ok {
		return "", fmt.Errorf("no XML for domain %s", dom.Name)
	}
	return xml, nil
}

func (m *mockLibvirtClient) SnapshotCreate(dom libvirt.Domain, xml string) (libvirt.DomainSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotCreateCalls = append(m.snapshotCreateCalls, xml)
	return m.snapshotCreateFunc(dom, xml)
}

func (m *mockLibvirtClient) SnapshotLookup(dom libvirt.Domain, name string) (libvirt.DomainSnapshot, error) {
	return m.snapshotLookupFunc(dom, name)
}

func (m *mockLibvirtClient) SnapshotNames(dom libvirt.Domain) ([]string, error) {
	return m.snapshotNames, nil
}

func (m *mockLibvirtClient) SnapshotXML(snap libvirt.DomainSnapshot) (string, error) {
	return m.snapshotXML, nil
}

func (m *mockLibvirtClient) SnapshotDelete(snap libvirt.DomainSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotDeleteCalls = append(m.snapshotDeleteCalls, snap)
	return m.snapshotDeleteFunc(snap)
}

// lvcreateCall records one CreateSnapshot invocation.
type lvcreateCall struct {
	name   string
	origin string
	size   string
}

// mockVolumeSnapshotter is a mock implementation of the volumeSnapshotter interface for testing.
type mockVolumeSnapshotter struct {
	// Configurable behavior
	failOrigins map[string]error

	// Call tracking
	calls []lvcreateCall
}

func (m *mockVolumeSnapshotter) CreateSnapshot(_ context.Context, name, origin, size string) error {
	m.calls = append(m.calls, lvcreateCall{name: name, origin: origin, size: size})
	return m.failOrigins[origin]
}

// withVolumeSnapshotter replaces the lvcreate runner.
func withVolumeSnapshotter(v volumeSnapshotter) Option {
	return func(m *Machine) {
		m.volumes = v
	}
}

// withClock pins the time used for snapshot names.
func withClock(t time.Time) Option {
	return func(m *Machine) {
		m.now = func() time.Time { return t }
	}
}

// testUUID returns a domain UUID whose bytes are all b.
func testUUID(b byte) libvirt.UUID {
	var u libvirt.UUID
	for i := range u {
		u[i] = b
	}
	return u
}
