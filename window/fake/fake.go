// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package fake provides a window.Window suitable for tests: a small
// in-process buffer queue that tracks allocation count, dequeue/queue/
// cancel state and frame timestamps without touching a real compositor.
package fake

import (
	"errors"
	"sync"

	"github.com/gviegas/wsiandroid/fencesync"
	"github.com/gviegas/wsiandroid/window"
)

// buffer is the concrete type behind window.Buffer in this fake.
type buffer struct {
	id int
}

// frame records one queued frame's requested present time, used to
// answer GetFrameTimestamps.
type frame struct {
	ts window.FrameTimestamps
	ok bool
}

// Window is an in-process fake of window.Window.
type Window struct {
	mu sync.Mutex

	width, height int32
	transformHint uint32
	minUndequeued int32

	api window.API

	bufferCount  int
	format       window.PixelFormat
	dataSpace    window.DataSpace
	bufTransform uint32
	scaling      window.ScalingMode
	usage        window.UsageFlags
	swapInterval int
	shared       bool
	autoRefresh  bool
	damage       []window.Rect

	free   []*buffer
	nextID int

	refreshPeriod uint64
	tsEnabled     bool
	frames        []frame // most recent last

	// FailQuery, when non-nil, makes every Query for a parameter it
	// maps to a non-nil error return that error.
	FailQuery map[window.Param]error

	// FailDequeue, if set, makes the next DequeueBuffer fail.
	FailDequeue bool
}

// API is re-exported for convenience in test code constructing a Window.
type API = window.API

// NewWindow creates a fake window with the given default geometry and
// transform hint.
func NewWindow(width, height int32, transformHint uint32) *Window {
	return &Window{
		width:         width,
		height:        height,
		transformHint: transformHint,
		minUndequeued: 2,
		refreshPeriod: 16666667,
	}
}

// SetMinUndequeuedBuffers configures the value NATIVE_WINDOW_MIN_UNDEQUEUED_BUFFERS
// reports, for tests exercising the slot-count computation.
func (w *Window) SetMinUndequeuedBuffers(n int32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minUndequeued = n
}

// SetRefreshPeriod configures the period GetRefreshCyclePeriod reports.
func (w *Window) SetRefreshPeriod(ns uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refreshPeriod = ns
}

// BufferCount reports the queue's current configured buffer count.
func (w *Window) BufferCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bufferCount
}

// Connected reports the API currently connected, if any.
func (w *Window) Connected() window.API {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.api
}

// Usage reports the usage flags accumulated via SetUsage.
func (w *Window) Usage() window.UsageFlags {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.usage
}

// SwapInterval reports the last interval set via SetSwapInterval.
func (w *Window) SwapInterval() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.swapInterval
}

// BuffersTransform reports the last native transform set on the queue.
func (w *Window) BuffersTransform() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bufTransform
}

func (w *Window) Query(p window.Param) (int32, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.FailQuery[p]; err != nil {
		return 0, err
	}
	switch p {
	case window.ParamDefaultWidth:
		return w.width, nil
	case window.ParamDefaultHeight:
		return w.height, nil
	case window.ParamTransformHint:
		return int32(w.transformHint), nil
	case window.ParamMinUndequeuedBuffers:
		return w.minUndequeued, nil
	default:
		return 0, errors.New("fake window: unsupported query parameter")
	}
}

func (w *Window) APIConnect(api window.API) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.api != window.APINone && api != window.APINone {
		return errors.New("fake window: already connected")
	}
	w.api = api
	return nil
}

func (w *Window) APIDisconnect(api window.API) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.api != api {
		return errors.New("fake window: not connected by that api")
	}
	w.api = window.APINone
	return nil
}

func (w *Window) SetBufferCount(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bufferCount = n
	if n == 0 {
		w.free = nil
		w.nextID = 0
		return nil
	}
	w.free = w.free[:0]
	for i := 0; i < n; i++ {
		w.nextID++
		w.free = append(w.free, &buffer{id: w.nextID})
	}
	return nil
}

func (w *Window) SetBuffersFormat(f window.PixelFormat) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.format = f
	return nil
}

func (w *Window) SetBuffersDataSpace(d window.DataSpace) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dataSpace = d
	return nil
}

func (w *Window) SetBuffersDimensions(width, height int32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width, w.height = width, height
	return nil
}

func (w *Window) SetBuffersTransform(rot uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bufTransform = rot
	return nil
}

func (w *Window) SetBuffersTimestamp(t int64) error {
	return nil
}

func (w *Window) SetScalingMode(m window.ScalingMode) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scaling = m
	return nil
}

func (w *Window) SetUsage(u window.UsageFlags) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.usage |= u
	return nil
}

func (w *Window) SetSwapInterval(interval int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.swapInterval = interval
	return nil
}

func (w *Window) SetSharedBufferMode(shared bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shared = shared
	return nil
}

func (w *Window) SetAutoRefresh(auto bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.autoRefresh = auto
	return nil
}

func (w *Window) SetSurfaceDamage(rects []window.Rect) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.damage = rects
	return nil
}

// Damage returns the rectangles passed to the most recent
// SetSurfaceDamage call, for test assertions.
func (w *Window) Damage() []window.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.damage
}

func (w *Window) DequeueBuffer() (window.Buffer, fencesync.FD, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailDequeue {
		w.FailDequeue = false
		return nil, fencesync.NoFence, errors.New("fake window: dequeue failed")
	}
	if len(w.free) == 0 {
		return nil, fencesync.NoFence, errors.New("fake window: no free buffers")
	}
	b := w.free[len(w.free)-1]
	w.free = w.free[:len(w.free)-1]
	return b, fencesync.NoFence, nil
}

func (w *Window) QueueBuffer(buf window.Buffer, fence fencesync.FD) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := buf.(*buffer)
	if !ok || b == nil {
		return errors.New("fake window: not a buffer from this queue")
	}
	w.free = append(w.free, b)
	w.frames = append(w.frames, frame{ok: true})
	return nil
}

func (w *Window) CancelBuffer(buf window.Buffer, fence fencesync.FD) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := buf.(*buffer)
	if !ok || b == nil {
		return errors.New("fake window: not a buffer from this queue")
	}
	w.free = append(w.free, b)
	return nil
}

func (w *Window) EnableFrameTimestamps(enable bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tsEnabled = enable
}

func (w *Window) GetRefreshCyclePeriod() (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refreshPeriod, nil
}

// PushFrameTimestamps injects a ready timestamp record for test setup,
// standing in for the compositor's own asynchronous population of the
// extended timestamp history.
func (w *Window) PushFrameTimestamps(ts window.FrameTimestamps) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = append(w.frames, frame{ts: ts, ok: true})
}

func (w *Window) GetFrameTimestamps(framesAgo int, desiredPresentTime uint64) (window.FrameTimestamps, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.tsEnabled {
		return window.FrameTimestamps{}, false, errors.New("fake window: frame timestamps not enabled")
	}
	n := len(w.frames)
	if framesAgo >= n {
		return window.FrameTimestamps{}, false, nil
	}
	for i := n - 1 - framesAgo; i >= 0; i-- {
		f := w.frames[i]
		if f.ok && f.ts.RequestedPresentTime == desiredPresentTime {
			return f.ts, true, nil
		}
	}
	return window.FrameTimestamps{}, false, nil
}
