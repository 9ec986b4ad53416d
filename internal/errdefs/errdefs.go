// Package errdefs defines the error kinds shared across vmsnap packages.
//
// Errors returned by vmsnap wrap one of these sentinels with context, so
// callers match them with errors.Is:
//
//	snap, err := machine.CreateSnapshot(ctx, "nightly")
//	if errors.Is(err, errdefs.ErrSnapshotCreation) {
//	    // hypervisor rejected the snapshot
//	}
package errdefs

import "errors"

var (
	// ErrConnection reports an unreachable hypervisor or an invalid connection.
	ErrConnection = errors.New("hypervisor connection error")

	// ErrSnapshotCreation reports a failed hypervisor or volume-tool snapshot call.
	ErrSnapshotCreation = errors.New("snapshot creation failed")

	// ErrInvalidHandle reports an operation on a deleted or released handle.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrMissingAttribute reports a descriptor property that is not present.
	ErrMissingAttribute = errors.New("missing descriptor attribute")

	// ErrNotDirectory reports an export target that is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)
