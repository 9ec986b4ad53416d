package descriptor

import (
	"fmt"

	"libvirt.org/go/libvirtxml"
)

// SnapshotRequestXML builds the minimal <domainsnapshot> document submitted
// to create a snapshot. The description is embedded only when non-empty;
// libvirt fills in the name and creation time.
func SnapshotRequestXML(description string) (string, error) {
	snap := &libvirtxml.DomainSnapshot{
		Description: description,
	}

	doc, err := snap.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot XML: %w", err)
	}

	return doc, nil
}
