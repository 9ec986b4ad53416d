// Package vm adds snapshot and backup helpers on top of a libvirt connection.
//
// A Connection lists every managed domain, running or defined-but-inactive.
// Each domain is returned as a Machine, which wraps the go-libvirt domain
// handle and exposes:
//   - Disks: the snapshot-able disks from the live domain descriptor
//   - CreateSnapshot / WithSnapshot: hypervisor snapshots, owned or scoped
//   - CreateLVMSnapshot: lvcreate snapshots of block-backed disks
//   - Snapshot / Snapshots: access to existing snapshots
//
// Usage:
//
//	client, err := libvirt.ConnectWithContext(ctx, "", 0)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	machines, err := vm.NewConnection(client).Machines(ctx)
//	for _, m := range machines {
//	    err := m.WithSnapshot(ctx, "Backup", func(s *snapshot.Snapshot) error {
//	        cmds, err := s.ExportCommands(ctx, "/var/tmp")
//	        ...
//	    })
//	}
//
// Error Handling:
//
// Errors wrap the sentinels in internal/errdefs. Listing and lookup failures
// wrap ErrConnection, snapshot failures wrap ErrSnapshotCreation. Nothing is
// retried; the caller owns retry policy.
//
// Concurrency:
//
// A Connection and its Machines are meant for a single caller. The
// hypervisor is the only arbiter of concurrent access to the same domain.
package vm
