// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package fake provides a gpudriver.Driver suitable for tests: it
// fabricates image handles and fences without touching a real GPU,
// and records enough call history for tests to assert FD ownership
// and failure-injection paths.
package fake

import (
	"errors"
	"sync"

	"github.com/gviegas/wsiandroid/fencesync"
	"github.com/gviegas/wsiandroid/gpudriver"
)

type image struct {
	id int
}

// Driver is an in-process fake of gpudriver.Driver.
type Driver struct {
	mu sync.Mutex

	nextImg   int
	destroyed map[*image]bool

	Syncer *fencesyncFake

	// FailCreateImage, if set, makes the next CreateImage call fail.
	FailCreateImage bool

	// FailAcquireImage, if set, makes the next AcquireImage call fail
	// (the fence is still consumed, matching the driver contract).
	FailAcquireImage bool

	// FailQueueSignalRelease, if set, makes the next
	// QueueSignalReleaseImage call fail.
	FailQueueSignalRelease bool

	nextFence fencesync.FD

	acquireCalls int
	releaseCalls int
}

// fencesyncFake lets the fake Driver consume (close) fences exactly
// like a real driver would, without importing the fencesync/fake
// package's exported API surface as a dependency of this one - the
// fake Driver owns a minimal private closer instead.
type fencesyncFake struct {
	mu     sync.Mutex
	closed map[fencesync.FD]bool
}

func (s *fencesyncFake) close(fd fencesync.FD) {
	if fd == fencesync.NoFence {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed == nil {
		s.closed = make(map[fencesync.FD]bool)
	}
	s.closed[fd] = true
}

// Closed reports whether fd was consumed (closed) by this Driver.
func (s *fencesyncFake) Closed(fd fencesync.FD) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed[fd]
}

// NewDriver creates an empty fake Driver.
func NewDriver() *Driver {
	return &Driver{
		destroyed: make(map[*image]bool),
		Syncer:    &fencesyncFake{},
		nextFence: 1000,
	}
}

func (d *Driver) CreateImage(info gpudriver.ImageCreateInfo) (gpudriver.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailCreateImage {
		d.FailCreateImage = false
		return nil, errors.New("fake driver: create image failed")
	}
	d.nextImg++
	return &image{id: d.nextImg}, nil
}

func (d *Driver) DestroyImage(img gpudriver.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if im, ok := img.(*image); ok {
		d.destroyed[im] = true
	}
}

// Destroyed reports whether img was passed to DestroyImage.
func (d *Driver) Destroyed(img gpudriver.Image) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	im, ok := img.(*image)
	return ok && d.destroyed[im]
}

func (d *Driver) AcquireImage(img gpudriver.Image, fence fencesync.FD, sem gpudriver.Semaphore, fen gpudriver.Fence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquireCalls++
	// The driver always consumes the fence, success or failure.
	d.Syncer.close(fence)
	if d.FailAcquireImage {
		d.FailAcquireImage = false
		return errors.New("fake driver: acquire image failed")
	}
	return nil
}

func (d *Driver) QueueSignalReleaseImage(waitSems []gpudriver.Semaphore, img gpudriver.Image) (fencesync.FD, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.releaseCalls++
	if d.FailQueueSignalRelease {
		d.FailQueueSignalRelease = false
		return fencesync.NoFence, errors.New("fake driver: queue signal release failed")
	}
	fd := d.nextFence
	d.nextFence++
	return fd, nil
}

// AcquireCalls reports how many times AcquireImage was called.
func (d *Driver) AcquireCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acquireCalls
}

// ReleaseCalls reports how many times QueueSignalReleaseImage was
// called.
func (d *Driver) ReleaseCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.releaseCalls
}
