package snapshot

import (
	"fmt"

	"github.com/digitalocean/go-libvirt"
)

// mockLibvirtClient is a mock implementation of LibvirtClient for testing.
type mockLibvirtClient struct {
	// Configurable behavior
	xmlDesc    string
	getXMLErr  error
	deleteFunc func(snap libvirt.DomainSnapshot) error

	// Call tracking
	getXMLCalls int
	deleteCalls []libvirt.DomainSnapshot
}

// newMockLibvirtClient creates a mock that serves xmlDesc and deletes successfully.
func newMockLibvirtClient(xmlDesc string) *mockLibvirtClient {
	return &mockLibvirtClient{
		xmlDesc: xmlDesc,
		deleteFunc: func(libvirt.DomainSnapshot) error {
			return nil
		},
	}
}

func (m *mockLibvirtClient) SnapshotXML(snap libvirt.DomainSnapshot) (string, error) {
	m.getXMLCalls++
	if m.getXMLErr != nil {
		return "", m.getXMLErr
	}
	return m.xmlDesc, nil
}

func (m *mockLibvirtClient) SnapshotDelete(snap libvirt.DomainSnapshot) error {
	m.deleteCalls = append(m.deleteCalls, snap)
	return m.deleteFunc(snap)
}

// errRPC simulates a failed libvirt RPC.
var errRPC = fmt.Errorf("rpc: connection reset by peer")
