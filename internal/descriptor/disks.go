// Package descriptor reads libvirt descriptor XML documents.
//
// Domain and snapshot descriptors are parsed with libvirtxml into typed
// structs. Disk enumeration produces a DiskMapping, a read-only view that is
// rebuilt from the document on every call and never cached.
//
// For properties without a typed accessor, Query evaluates an XPath
// expression against the raw document and returns the first match's text.
package descriptor

import (
	"fmt"

	"libvirt.org/go/libvirtxml"
)

const (
	// diskDevice is the only <disk device="..."> value that is enumerated.
	diskDevice = "disk"
	// externalSnapshot marks disks whose snapshots are handled outside libvirt.
	externalSnapshot = "external"
)

// Disk is one entry of a DiskMapping.
type Disk struct {
	Target string `json:"target" yaml:"target"` // Target device name (e.g. "vdb")
	Source string `json:"source" yaml:"source"` // Backing block device or file path
}

// DiskMapping is an ordered mapping from target device to backing store path.
// Entries appear in document order and each target appears once.
type DiskMapping []Disk

// Get returns the source for a target device.
func (m DiskMapping) Get(target string) (string, bool) {
	for _, d := range m {
		if d.Target == target {
			return d.Source, true
		}
	}
	return "", false
}

// Targets returns the target device names in order.
func (m DiskMapping) Targets() []string {
	targets := make([]string, 0, len(m))
	for _, d := range m {
		targets = append(targets, d.Target)
	}
	return targets
}

// Map returns the mapping as a plain map.
func (m DiskMapping) Map() map[string]string {
	out := make(map[string]string, len(m))
	for _, d := range m {
		out[d.Target] = d.Source
	}
	return out
}

// set inserts or replaces target. A repeated target keeps its first position.
func (m DiskMapping) set(target, source string) DiskMapping {
	for i := range m {
		if m[i].Target == target {
			m[i].Source = source
			return m
		}
	}
	return append(m, Disk{Target: target, Source: source})
}

// sourceFunc selects the backing path of a disk.
type sourceFunc func(disk *libvirtxml.DomainDisk) string

// blockOrFileSource prefers source/@dev and falls back to source/@file.
// Live domains may be backed by either.
func blockOrFileSource(disk *libvirtxml.DomainDisk) string {
	if disk.Source == nil {
		return ""
	}
	if disk.Source.Block != nil && disk.Source.Block.Dev != "" {
		return disk.Source.Block.Dev
	}
	if disk.Source.File != nil {
		return disk.Source.File.File
	}
	return ""
}

// fileSource only reads source/@file. Snapshot descriptors are assumed to be
// file-backed.
func fileSource(disk *libvirtxml.DomainDisk) string {
	if disk.Source == nil || disk.Source.File == nil {
		return ""
	}
	return disk.Source.File.File
}

// collectDisks applies the disk filter to a parsed domain.
func collectDisks(domain *libvirtxml.Domain, source sourceFunc) DiskMapping {
	mapping := DiskMapping{}
	if domain == nil || domain.Devices == nil {
		return mapping
	}

	for i := range domain.Devices.Disks {
		disk := &domain.Devices.Disks[i]
		if disk.Device != diskDevice {
			continue
		}
		if disk.Snapshot == externalSnapshot {
			continue
		}

		target := ""
		if disk.Target != nil {
			target = disk.Target.Dev
		}
		mapping = mapping.set(target, source(disk))
	}

	return mapping
}

// DomainDisks enumerates the snapshot-able disks of a domain descriptor.
//
// Disks with device != "disk" or snapshot == "external" are skipped. The
// source is the block device path when present, otherwise the file path.
func DomainDisks(domainXML string) (DiskMapping, error) {
	var domain libvirtxml.Domain
	if err := domain.Unmarshal(domainXML); err != nil {
		return nil, fmt.Errorf("failed to parse domain XML: %w", err)
	}

	return collectDisks(&domain, blockOrFileSource), nil
}

// SnapshotDisks enumerates the disks of the domain embedded in a snapshot
// descriptor, as they existed when the snapshot was taken.
//
// The same filter as DomainDisks applies, but only source/@file is read.
func SnapshotDisks(snapshotXML string) (DiskMapping, error) {
	var snap libvirtxml.DomainSnapshot
	if err := snap.Unmarshal(snapshotXML); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot XML: %w", err)
	}

	return collectDisks(snap.Domain, fileSource), nil
}
