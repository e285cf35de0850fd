// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package fake provides a fencesync.Syncer suitable for tests: it hands
// out monotonically increasing descriptor values and records every Wait
// and Close call so that test code can assert FDs are neither leaked nor
// double-closed.
package fake

import (
	"sync"

	"github.com/gviegas/wsiandroid/fencesync"
)

// Syncer is a fencesync.Syncer that fabricates descriptors instead of
// using real kernel fences.
type Syncer struct {
	mu      sync.Mutex
	next    fencesync.FD
	closed  map[fencesync.FD]bool
	waited  map[fencesync.FD]int
	dupFail bool // if true, the next Dup call fails
}

// NewSyncer creates an empty fake Syncer.
func NewSyncer() *Syncer {
	return &Syncer{
		next:   1,
		closed: make(map[fencesync.FD]bool),
		waited: make(map[fencesync.FD]int),
	}
}

// NewFence fabricates a new, never-yet-seen fence FD for test setup
// (standing in for a fence the window or driver would hand the core).
func (s *Syncer) NewFence() fencesync.FD {
	s.mu.Lock()
	defer s.mu.Unlock()
	fd := s.next
	s.next++
	return fd
}

// FailNextDup makes the next call to Dup return an error, simulating
// dup(2) failure so callers can exercise the degrade-to-wait path.
func (s *Syncer) FailNextDup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dupFail = true
}

func (s *Syncer) Dup(fd fencesync.FD) (fencesync.FD, error) {
	if fd == fencesync.NoFence {
		return fencesync.NoFence, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed[fd] {
		return fencesync.NoFence, fencesync.ErrClosed
	}
	if s.dupFail {
		s.dupFail = false
		return fencesync.NoFence, errDup
	}
	dup := s.next
	s.next++
	return dup, nil
}

func (s *Syncer) Wait(fd fencesync.FD) error {
	if fd == fencesync.NoFence {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed[fd] {
		return fencesync.ErrClosed
	}
	s.waited[fd]++
	return nil
}

func (s *Syncer) Close(fd fencesync.FD) error {
	if fd == fencesync.NoFence {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed[fd] {
		return fencesync.ErrClosed
	}
	s.closed[fd] = true
	return nil
}

// Closed reports whether fd was closed through this Syncer.
func (s *Syncer) Closed(fd fencesync.FD) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed[fd]
}

// Waited reports how many times Wait was called for fd.
func (s *Syncer) Waited(fd fencesync.FD) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waited[fd]
}

var errDup = dupError{}

type dupError struct{}

func (dupError) Error() string { return "fencesync/fake: dup failed" }
