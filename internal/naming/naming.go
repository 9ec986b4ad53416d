// Package naming provides the naming conventions for artifacts vmsnap
// produces: LVM snapshot volumes and exported disk images.
package naming

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// LVMSnapshotName returns the logical volume name for an LVM snapshot of one
// of a machine's disks.
// Format: {machine}-{target}-snap-{unixTimestamp}
//
// Example: ("web01", "vdb", 1700000000) → web01-vdb-snap-1700000000
func LVMSnapshotName(machine, target string, unixTime int64) string {
	return fmt.Sprintf("%s-%s-snap-%s", machine, target, strconv.FormatInt(unixTime, 10))
}

// LVMSnapshotPath returns the device path of a new snapshot volume. The
// snapshot lives in the same volume group directory as its origin.
//
// Example: ("/dev/vg0/web01-vdb", "web01-vdb-snap-1") → /dev/vg0/web01-vdb-snap-1
func LVMSnapshotPath(originVolume, snapshotName string) string {
	return filepath.Join(filepath.Dir(originVolume), snapshotName)
}

// ExportFileName returns the file name of an exported snapshot disk.
// Format: backup-{domain}-{device}-{creationTime}.qcow
//
// Example: ("db1", "vda", "1000") → backup-db1-vda-1000.qcow
func ExportFileName(domain, device, creationTime string) string {
	return fmt.Sprintf("backup-%s-%s-%s.qcow", domain, device, creationTime)
}

// ExportPath returns the destination path of an exported snapshot disk
// inside outputDir.
func ExportPath(outputDir, domain, device, creationTime string) string {
	return filepath.Join(outputDir, ExportFileName(domain, device, creationTime))
}
