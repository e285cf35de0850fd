// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package fencesync defines the interface to the CPU-side synchronization
// primitives that the core uses to duplicate and wait on dequeue/release
// fences. These primitives are external collaborators (see the owning
// specification's scope section): the core never calls dup(2) or a
// sync-fence wait syscall itself, it goes through this interface so the
// fence-FD lifetime rules stay testable without a real kernel fence.
package fencesync

import "errors"

// FD is a synchronization-object file descriptor. NoFence (-1) means
// "no fence": the slot or operation it is attached to need not wait on
// anything.
type FD int

// NoFence is the sentinel value meaning "no fence present".
const NoFence FD = -1

// ErrClosed is returned by a Syncer when asked to act on an FD that was
// already closed through that same Syncer.
var ErrClosed = errors.New("fencesync: file descriptor already closed")

// Syncer duplicates, waits on and closes fence file descriptors.
//
// Ownership: a successful Dup yields a new FD the caller now owns;
// Close consumes the FD passed to it; Wait leaves ownership with the
// caller, who decides whether to also Close after waiting.
type Syncer interface {
	// Dup duplicates fd, returning a new descriptor referring to the
	// same underlying fence. The original fd is left untouched.
	Dup(fd FD) (FD, error)

	// Wait blocks until fd signals, or returns an error. It does not
	// take ownership of fd; the caller must still close it if owned.
	Wait(fd FD) error

	// Close closes fd. Closing NoFence is a no-op.
	Close(fd FD) error
}
