// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package window defines the interface to the native, buffer-queue-backed
// window that a Surface wraps. It generalizes the operations the core
// issues against an ANativeWindow: parameter queries, buffer-queue
// producer calls (dequeue/queue/cancel), API connect/disconnect, and the
// SetBuffers*/SetUsage/SetScalingMode family used to configure the queue
// before a Swapchain starts dequeuing from it.
//
// Window is an external collaborator (see the owning specification's
// scope section): this package never talks to a real compositor, it only
// describes the vtable the core consumes. A concrete implementation, and
// a fake one for tests, live outside this package.
package window

import "github.com/gviegas/wsiandroid/fencesync"

// Param identifies a queryable window property.
type Param int

// Queryable parameters.
const (
	ParamDefaultWidth Param = iota
	ParamDefaultHeight
	ParamTransformHint
	ParamMinUndequeuedBuffers
	ParamConcreteType
)

// API identifies the graphics API connecting to or disconnecting from
// the window's buffer queue.
type API int

// Supported APIs.
const (
	APINone API = iota
	APIGPU
)

// PixelFormat is a native buffer pixel format.
type PixelFormat int

// Supported pixel formats.
const (
	FormatRGBA8888 PixelFormat = iota
	FormatRGB565
)

// DataSpace is a native buffer color/data space.
type DataSpace int

// Supported data spaces.
const (
	DataSpaceUnknown DataSpace = iota
	DataSpaceSRGBLinear
)

// ScalingMode controls how a buffer is fit to the window when its size
// does not match the window's.
type ScalingMode int

// Supported scaling modes.
const (
	ScalingFreeze ScalingMode = iota
	ScalingScaleToWindow
)

// UsageFlags are native gralloc usage bits, combined with whatever the
// GPU driver reports through its own gralloc-usage query.
type UsageFlags uint64

// Usage bits the core itself may set, independent of the driver's query.
const (
	UsageFrontBuffer UsageFlags = 1 << iota
)

// Rect is an axis-aligned native-window rectangle, using the native
// y-up convention: Top is the larger y value and Bottom the smaller.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// Buffer is an opaque reference to a native graphics buffer, as handed
// out by DequeueBuffer and consumed by QueueBuffer/CancelBuffer and by
// the driver's image-creation call.
type Buffer interface{}

// FrameTimestamps holds one frame's timestamp history, matching the
// subset of ANativeWindow's extended timestamp API the Timing Store
// consumes.
type FrameTimestamps struct {
	RequestedPresentTime  uint64
	AcquireTime           uint64
	LatchTime             uint64
	FirstRefreshStartTime uint64
	LastRefreshStartTime  uint64
	DequeueReadyTime      uint64
	RenderCompleteTime    uint64
	CompositionLatchTime  uint64
	DisplayPresentTime    uint64
	ReleaseTime           uint64
}

// Window is the buffer-queue-backed surface a Swapchain dequeues from
// and queues into.
type Window interface {
	// Query reads an integer window parameter.
	Query(p Param) (int32, error)

	// APIConnect associates api as the producer of this window's queue.
	APIConnect(api API) error

	// APIDisconnect removes the association made by APIConnect.
	APIDisconnect(api API) error

	// SetBufferCount sets the number of buffers the queue allocates.
	// Setting it to 0 resets the queue's allocation state.
	SetBufferCount(n int) error

	// SetBuffersFormat sets the pixel format of buffers to be allocated.
	SetBuffersFormat(f PixelFormat) error

	// SetBuffersDataSpace sets the data space of buffers to be allocated.
	SetBuffersDataSpace(d DataSpace) error

	// SetBuffersDimensions sets the width and height of buffers to be
	// allocated.
	SetBuffersDimensions(width, height int32) error

	// SetBuffersTransform sets the native transform the compositor
	// applies to every buffer from this queue.
	SetBuffersTransform(rot uint32) error

	// SetBuffersTimestamp timestamps the next buffer to be queued.
	// A value of 0 opts out of timestamping.
	SetBuffersTimestamp(t int64) error

	// SetScalingMode sets the queue's scaling mode.
	SetScalingMode(m ScalingMode) error

	// SetUsage ORs the given flags into the queue's gralloc usage.
	SetUsage(u UsageFlags) error

	// SetSwapInterval sets the minimum number of vsyncs between buffer
	// presentations.
	SetSwapInterval(interval int) error

	// SetSharedBufferMode toggles shared-buffer (single-buffer) mode.
	SetSharedBufferMode(shared bool) error

	// SetAutoRefresh toggles automatic re-presentation of the last
	// queued buffer, valid only in shared-buffer mode.
	SetAutoRefresh(auto bool) error

	// SetSurfaceDamage hints the compositor which regions of the next
	// queued buffer changed since the last one. An empty slice means
	// the whole buffer changed; a nil slice clears the hint.
	SetSurfaceDamage(rects []Rect) error

	// DequeueBuffer retrieves a buffer the caller may render into. The
	// returned fence must be waited on (or duplicated and waited on)
	// before the buffer's contents are safe to read or write, and is
	// owned by the caller.
	DequeueBuffer() (buf Buffer, fence fencesync.FD, err error)

	// QueueBuffer submits buf for presentation, gated on fence. The
	// window takes ownership of fence regardless of the return value.
	QueueBuffer(buf Buffer, fence fencesync.FD) error

	// CancelBuffer returns buf to the queue without presenting it,
	// gated on fence. The window takes ownership of fence regardless
	// of the return value.
	CancelBuffer(buf Buffer, fence fencesync.FD) error

	// EnableFrameTimestamps turns the extended frame-timestamp API on
	// or off for this window.
	EnableFrameTimestamps(enable bool)

	// GetRefreshCyclePeriod returns the display's nominal refresh
	// period in nanoseconds.
	GetRefreshCyclePeriod() (uint64, error)

	// GetFrameTimestamps returns the timestamp record for the frame
	// whose desired/requested present time equals desiredPresentTime,
	// searched starting framesAgo frames back from the most recently
	// queued frame. ok is false if no such record exists yet (its
	// timestamps are not finalized, or it was never queued).
	GetFrameTimestamps(framesAgo int, desiredPresentTime uint64) (ts FrameTimestamps, ok bool, err error)
}
