// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package swapchain implements the rotating set of compositor-backed
// images a Surface presents through: creation against a window.Window
// and gpudriver.Driver, acquire/present of individual slots, and the
// orphan/destroy teardown paths.
//
// Grounded line-for-line on CreateSwapchainKHR, AcquireNextImageKHR,
// QueuePresentKHR, OrphanSwapchain, ReleaseSwapchainImage and
// DestroySwapchainKHR in swapchain.cpp.
package swapchain

import (
	stderrors "errors"
	"log"
	"sync"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/gviegas/wsiandroid/alloc"
	"github.com/gviegas/wsiandroid/fencesync"
	"github.com/gviegas/wsiandroid/gpudriver"
	"github.com/gviegas/wsiandroid/internal/handle"
	"github.com/gviegas/wsiandroid/surface"
	"github.com/gviegas/wsiandroid/timing"
	"github.com/gviegas/wsiandroid/transform"
	"github.com/gviegas/wsiandroid/window"
)

// Sentinel errors surfaced by this package, matching the subset of
// VkResult values this module ever returns for swapchain operations.
var (
	ErrOutOfHostMemory   = errors.New("swapchain: out of host memory")
	ErrInitFailed        = errors.New("swapchain: native window initialization failed")
	ErrNativeWindowInUse = errors.New("swapchain: native window already in use by another swapchain")
	ErrOutOfDate         = errors.New("swapchain: swapchain is out of date")
)

// PresentMode selects how the presentation engine schedules queued
// buffers, mirroring surface.PresentMode.
type PresentMode = surface.PresentMode

// CreateInfo carries everything Create needs, mirroring
// VkSwapchainCreateInfoKHR's fields this module actually consumes.
type CreateInfo struct {
	MinImageCount uint32
	ImageFormat   gpudriver.Format
	ImageExtent   surface.Extent
	ImageUsage    gpudriver.UsageFlags
	PreTransform  transform.SurfaceTransform
	PresentMode   PresentMode
	OldSwapchain  handle.H
	Allocator     alloc.Allocator
}

// imageSlot is one of the swapchain's rotating image slots.
type imageSlot struct {
	buf      window.Buffer
	img      gpudriver.Image
	fence    fencesync.FD // dequeue fence; NoFence when not dequeued
	dequeued bool
}

// Swapchain is a rotating set of compositor-backed images.
type Swapchain struct {
	mu sync.Mutex

	handle handle.H

	win    window.Window
	drv    gpudriver.Driver
	syncer fencesync.Syncer
	alloc  alloc.Allocator

	slots []imageSlot

	// damageScratch backs the native-convention rectangles QueuePresent
	// derives from a caller's damage regions, grown on demand through
	// alloc and reused across presents instead of reallocated each
	// time.
	damageScratch []byte

	// acquirable models "images that can currently be acquired":
	// len(slots) - minUndequeued permits, acquired on dequeue-success
	// and released when a slot returns to the window. Kept as an
	// auditable bound; it never blocks a caller because blocking is
	// always delegated to window.DequeueBuffer, so it is only ever
	// tried, never waited on.
	acquirable *semaphore.Weighted

	timestampsEnabled bool
	timing            timing.Store

	minRefreshDuration uint64
	maxRefreshDuration uint64
}

var (
	registryMu sync.Mutex
	registry   handle.Table[*Swapchain]
)

// handleFromSwapchain returns the handle naming sc, or the zero handle
// if sc is nil - matching the "no old swapchain" case of CreateInfo.
func handleFromSwapchain(sc *Swapchain) handle.H {
	if sc == nil {
		return 0
	}
	return sc.handle
}

// Lookup resolves h to the Swapchain it currently names, if any.
func Lookup(h handle.H) (*Swapchain, bool) {
	if h == 0 {
		return nil, false
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	sc := registry.Get(h)
	if sc == nil {
		return nil, false
	}
	return *sc, true
}

// Result mirrors the subset of VkResult values a present operation can
// produce, ranked by WorstResult for the multi-swapchain case.
type Result int

// Present result codes, least to most severe under WorstResult, except
// ResultIncomplete, which WorstResult ranks the same as ResultSuccess.
const (
	ResultSuccess Result = iota
	ResultSuboptimal
	ResultOutOfHostMemory
	ResultOutOfDeviceMemory
	ResultOutOfDate
	ResultSurfaceLost
	ResultDeviceLost
	ResultIncomplete
)

var resultRank = map[Result]int{
	ResultSuccess:           0,
	ResultIncomplete:        0,
	ResultSuboptimal:        1,
	ResultOutOfHostMemory:   2,
	ResultOutOfDeviceMemory: 3,
	ResultOutOfDate:         4,
	ResultSurfaceLost:       5,
	ResultDeviceLost:        6,
}

// WorstResult ranks a against b and returns whichever is more severe,
// matching WorstPresentResult's priority order: DEVICE_LOST >
// SURFACE_LOST > OUT_OF_DATE > OUT_OF_DEVICE_MEMORY > OUT_OF_HOST_MEMORY
// > SUBOPTIMAL > SUCCESS.
func WorstResult(a, b Result) Result {
	if resultRank[b] > resultRank[a] {
		return b
	}
	return a
}

// resultFromErr classifies a Driver error into a Result, consulting
// gpudriver.CodedError when the error implements it and defaulting to
// out-of-host-memory otherwise - the original source's catch-all for
// an unclassified driver failure.
func resultFromErr(err error) Result {
	var coded gpudriver.CodedError
	if stderrors.As(err, &coded) {
		switch coded.ResultCode() {
		case gpudriver.ResultCodeOutOfDeviceMemory:
			return ResultOutOfDeviceMemory
		case gpudriver.ResultCodeDeviceLost:
			return ResultDeviceLost
		case gpudriver.ResultCodeSurfaceLost:
			return ResultSurfaceLost
		}
	}
	return ResultOutOfHostMemory
}

// Create performs the full swapchain creation sequence against s,
// resetting and reconfiguring the window before populating every slot.
// On failure, every buffer dequeued so far is cancelled back to the
// window, every image created so far is destroyed, and no new handle is
// recorded as the surface's active swapchain. The window's reset and
// reconfiguration are not undone, and a swapchain named by
// info.OldSwapchain stays orphaned.
func Create(s *surface.Surface, info CreateInfo, drv gpudriver.Driver, syncer fencesync.Syncer) (*Swapchain, error) {
	a := info.Allocator
	if a == nil {
		a = alloc.Default
	}
	win := s.Window()

	// Step 1: surface consistency check + orphan the prior swapchain.
	prior, _ := Lookup(info.OldSwapchain)
	if s.ActiveSwapchain() != info.OldSwapchain {
		return nil, ErrNativeWindowInUse
	}
	if prior != nil {
		prior.Orphan(s)
	}

	// Step 2: reset the native window.
	if err := resetWindow(win); err != nil {
		return nil, err
	}

	// Step 3: configure window parameters.
	nativeFormat := nativePixelFormat(info.ImageFormat)
	if err := configureWindow(win, nativeFormat, info.ImageExtent, info.PreTransform); err != nil {
		return nil, err
	}

	// Step 4: compute slot count.
	minUndequeued, err := win.Query(window.ParamMinUndequeuedBuffers)
	if err != nil || minUndequeued < 0 {
		return nil, errors.Wrap(ErrInitFailed, "query min undequeued buffers")
	}
	if info.PresentMode == surface.PresentModeMailbox {
		minUndequeued++
	}
	numImages := int(info.MinImageCount) - 1 + int(minUndequeued)
	if err := win.SetBufferCount(numImages); err != nil {
		return nil, errors.Wrap(ErrInitFailed, "set buffer count: "+err.Error())
	}

	// Step 5: select image-usage bits.
	var swapchainUsage gpudriver.SwapchainImageUsageFlags
	switch info.PresentMode {
	case surface.PresentModeFrontBufferDemandRefresh, surface.PresentModeFrontBufferContinuousRefresh:
		swapchainUsage |= gpudriver.SwapchainImageUsageFrontBuffer
		if err := win.SetSharedBufferMode(true); err != nil {
			return nil, errors.Wrap(ErrInitFailed, "set shared buffer mode: "+err.Error())
		}
		if info.PresentMode == surface.PresentModeFrontBufferContinuousRefresh {
			if err := win.SetAutoRefresh(true); err != nil {
				return nil, errors.Wrap(ErrInitFailed, "set auto refresh: "+err.Error())
			}
		}
	}
	grallocUsage, err := gpudriver.QueryGrallocUsage(drv, info.ImageFormat, info.ImageUsage, swapchainUsage)
	if err != nil {
		return nil, errors.Wrap(ErrInitFailed, "query gralloc usage: "+err.Error())
	}
	if err := win.SetUsage(window.UsageFlags(grallocUsage)); err != nil {
		return nil, errors.Wrap(ErrInitFailed, "set usage: "+err.Error())
	}

	// Step 6: final swap interval.
	swapInterval := 1
	if info.PresentMode == surface.PresentModeMailbox {
		swapInterval = 0
	}
	if err := win.SetSwapInterval(swapInterval); err != nil {
		return nil, errors.Wrap(ErrInitFailed, "set swap interval: "+err.Error())
	}

	// Step 7: allocate the Swapchain object and its Timing Store.
	if !a.Reserve(1, alloc.ScopeObject) {
		return nil, ErrOutOfHostMemory
	}
	refresh, err := win.GetRefreshCyclePeriod()
	if err != nil {
		return nil, errors.Wrap(ErrInitFailed, "get refresh cycle period: "+err.Error())
	}
	sc := &Swapchain{
		win:                win,
		drv:                drv,
		syncer:             syncer,
		alloc:              a,
		acquirable:         semaphore.NewWeighted(int64(numImages - int(minUndequeued))),
		minRefreshDuration: refresh,
		maxRefreshDuration: refresh,
	}

	// Step 8: populate slots.
	sc.slots = make([]imageSlot, 0, numImages)
	var createErr error
	for i := 0; i < numImages; i++ {
		buf, fence, err := win.DequeueBuffer()
		if err != nil {
			createErr = errors.Wrap(ErrInitFailed, "dequeue buffer: "+err.Error())
			break
		}
		slot := imageSlot{buf: buf, fence: fence, dequeued: true}

		img, err := drv.CreateImage(gpudriver.ImageCreateInfo{
			Format:              info.ImageFormat,
			Width:               int32(info.ImageExtent.Width),
			Height:              int32(info.ImageExtent.Height),
			Usage:               info.ImageUsage,
			SwapchainImageUsage: swapchainUsage,
			NativeBuffer:        buf,
		})
		if err != nil {
			sc.slots = append(sc.slots, slot)
			createErr = err
			break
		}
		slot.img = img
		sc.slots = append(sc.slots, slot)
	}

	// Step 9: return all buffers (success or failure), tearing down on
	// failure.
	for i := range sc.slots {
		slot := &sc.slots[i]
		if !slot.dequeued {
			continue
		}
		if err := win.CancelBuffer(slot.buf, slot.fence); err != nil {
			log.Printf("swapchain: cancel buffer during create: %v", err)
		}
		slot.fence = fencesync.NoFence
		slot.dequeued = false
	}
	if createErr != nil {
		for i := range sc.slots {
			if sc.slots[i].img != nil {
				drv.DestroyImage(sc.slots[i].img)
			}
		}
		return nil, createErr
	}

	registryMu.Lock()
	sc.handle = registry.Insert(sc)
	registryMu.Unlock()

	s.SetActiveSwapchain(sc.handle)
	return sc, nil
}

func resetWindow(win window.Window) error {
	if err := win.APIDisconnect(window.APIGPU); err != nil {
		log.Printf("swapchain: reset: APIDisconnect: %v", err)
	}
	if err := win.APIConnect(window.APIGPU); err != nil {
		log.Printf("swapchain: reset: APIConnect: %v", err)
	}
	if err := win.SetBufferCount(0); err != nil {
		return errors.Wrap(ErrInitFailed, "set buffer count(0): "+err.Error())
	}
	if err := win.SetSwapInterval(1); err != nil {
		return errors.Wrap(ErrInitFailed, "set swap interval(1): "+err.Error())
	}
	if err := win.SetSharedBufferMode(false); err != nil {
		return errors.Wrap(ErrInitFailed, "set shared buffer mode(false): "+err.Error())
	}
	if err := win.SetAutoRefresh(false); err != nil {
		return errors.Wrap(ErrInitFailed, "set auto refresh(false): "+err.Error())
	}
	return nil
}

func configureWindow(win window.Window, nativeFormat window.PixelFormat, extent surface.Extent, preTransform transform.SurfaceTransform) error {
	if err := win.SetBuffersFormat(nativeFormat); err != nil {
		return errors.Wrap(ErrInitFailed, "set buffers format: "+err.Error())
	}
	if err := win.SetBuffersDataSpace(window.DataSpaceSRGBLinear); err != nil {
		return errors.Wrap(ErrInitFailed, "set buffers data space: "+err.Error())
	}
	if err := win.SetBuffersDimensions(int32(extent.Width), int32(extent.Height)); err != nil {
		return errors.Wrap(ErrInitFailed, "set buffers dimensions: "+err.Error())
	}
	if err := win.SetBuffersTransform(uint32(transform.ToInverseNative(preTransform))); err != nil {
		return errors.Wrap(ErrInitFailed, "set buffers transform: "+err.Error())
	}
	if err := win.SetScalingMode(window.ScalingScaleToWindow); err != nil {
		return errors.Wrap(ErrInitFailed, "set scaling mode: "+err.Error())
	}
	return nil
}

func nativePixelFormat(f gpudriver.Format) window.PixelFormat {
	switch f {
	case gpudriver.FormatRGBA8UNorm, gpudriver.FormatRGBA8SRGB:
		return window.FormatRGBA8888
	case gpudriver.FormatR5G6B5UNormPack16:
		return window.FormatRGB565
	default:
		return window.FormatRGBA8888
	}
}

// Handle returns the opaque handle naming sc.
func (sc *Swapchain) Handle() handle.H { return sc.handle }

// ImageCount returns the number of images sc owns.
func (sc *Swapchain) ImageCount() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.slots)
}

// Images copies into out as many driver images as fit, returning the
// number copied and whether the result was truncated. A nil out only
// reports the total count.
func (sc *Swapchain) Images(out []gpudriver.Image) (n int, incomplete bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if out == nil {
		return len(sc.slots), false
	}
	for n = 0; n < len(out) && n < len(sc.slots); n++ {
		out[n] = sc.slots[n].img
	}
	return n, n < len(sc.slots)
}

// AcquireNextImage dequeues a buffer from the window and readies its
// slot for rendering, returning the slot index. Timeouts other than
// infinite are not implemented; a non-nil timeout is logged and
// treated as infinite.
func (sc *Swapchain) AcquireNextImage(s *surface.Surface, sem gpudriver.Semaphore, fen gpudriver.Fence, timeout *time.Duration) (int, Result, error) {
	if timeout != nil {
		log.Printf("swapchain: acquire: finite timeout %v not implemented, treated as infinite", *timeout)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if s.ActiveSwapchain() != sc.handle {
		return 0, ResultOutOfDate, nil
	}

	buf, fence, err := sc.win.DequeueBuffer()
	if err != nil {
		return 0, 0, errors.Wrap(ErrOutOfDate, err.Error())
	}

	idx := -1
	for i := range sc.slots {
		if sc.slots[i].buf == buf {
			idx = i
			break
		}
	}
	if idx < 0 {
		if err := sc.win.CancelBuffer(buf, fence); err != nil {
			log.Printf("swapchain: acquire: cancel unrecognized buffer: %v", err)
		}
		return 0, ResultOutOfDate, nil
	}
	slot := &sc.slots[idx]

	if !sc.acquirable.TryAcquire(1) {
		log.Printf("swapchain: acquire: acquirable budget exhausted unexpectedly")
	}

	dup := fencesync.NoFence
	if fence != fencesync.NoFence {
		d, dupErr := sc.syncer.Dup(fence)
		if dupErr != nil {
			log.Printf("swapchain: acquire: dup fence: %v", dupErr)
			if waitErr := sc.syncer.Wait(fence); waitErr != nil {
				log.Printf("swapchain: acquire: wait fence after dup failure: %v", waitErr)
			}
		} else {
			dup = d
		}
	}

	if err := sc.drv.AcquireImage(slot.img, dup, sem, fen); err != nil {
		if cancelErr := sc.win.CancelBuffer(buf, fence); cancelErr != nil {
			log.Printf("swapchain: acquire: cancel after driver failure: %v", cancelErr)
		}
		sc.acquirable.Release(1)
		return 0, 0, err
	}

	slot.fence = fence
	slot.dequeued = true
	return idx, ResultSuccess, nil
}

// DamageRect is a present-region rectangle in the GPU API's
// offset+extent convention (y-down from the top), matching
// VkRectLayerKHR.
type DamageRect struct {
	OffsetX, OffsetY int32
	Width, Height    uint32
}

// convertDamage derives the native window's {left, top, right, bottom}
// rectangles from rects, y-flipping each one: native top = y + height,
// native bottom = y, since the native convention is y-up relative to
// the GPU API's y-down rectangles. The backing buffer is grown on
// demand through sc.alloc and reused across calls; on allocation
// failure the hint is dropped entirely for this present, never
// partially applied. sc.mu must already be held.
func (sc *Swapchain) convertDamage(rects []DamageRect) []window.Rect {
	if len(rects) == 0 {
		return nil
	}
	size := len(rects) * int(unsafe.Sizeof(window.Rect{}))
	buf := sc.alloc.Realloc(sc.damageScratch, size, alloc.ScopeCommand)
	if buf == nil {
		log.Printf("swapchain: present: damage scratch allocation failed, dropping hint")
		return nil
	}
	sc.damageScratch = buf
	out := unsafe.Slice((*window.Rect)(unsafe.Pointer(&buf[0])), len(rects))
	for i, r := range rects {
		out[i] = window.Rect{
			Left:   r.OffsetX,
			Top:    r.OffsetY + int32(r.Height),
			Right:  r.OffsetX + int32(r.Width),
			Bottom: r.OffsetY,
		}
	}
	return out
}

// QueuePresent hands imageIndex's buffer back to the compositor,
// enrolling a timing record whenever hasPresentTimes is set and
// escalating a queueBuffer failure into an orphan of sc. It returns
// this swapchain's Result; callers presenting to several swapchains in
// one call merge these with WorstResult.
func (sc *Swapchain) QueuePresent(s *surface.Surface, imageIndex int, waitSems []gpudriver.Semaphore, damage []DamageRect, presentID uint32, desiredPresentTime uint64, hasPresentTimes bool) Result {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if imageIndex < 0 || imageIndex >= len(sc.slots) {
		return ResultOutOfDate
	}
	slot := &sc.slots[imageIndex]

	// Step 1: obtain the release fence unconditionally, before checking
	// whether sc is still the surface's active swapchain.
	releaseFence, err := sc.drv.QueueSignalReleaseImage(waitSems, slot.img)
	if err != nil {
		result := resultFromErr(err)
		sc.releaseSlot(nil, fencesync.NoFence, slot)
		sc.orphanLocked(s)
		return result
	}

	// Step 2: active check.
	if s.ActiveSwapchain() != sc.handle {
		sc.releaseSlot(nil, releaseFence, slot)
		return ResultOutOfDate
	}
	win := sc.win

	// Step 3: surface damage.
	if len(damage) > 0 {
		if native := sc.convertDamage(damage); native != nil {
			if err := win.SetSurfaceDamage(native); err != nil {
				log.Printf("swapchain: present: set surface damage: %v", err)
			}
		}
	}

	// Step 4: present-timing hint. A present-times chain enrolls a
	// Timing Record regardless of desiredPresentTime's value - only the
	// SetBuffersTimestamp call itself is conditioned on it being
	// nonzero, per the "present ASAP but still track this ID" case.
	if hasPresentTimes {
		if !sc.timestampsEnabled {
			sc.win.EnableFrameTimestamps(true)
			sc.timestampsEnabled = true
		}
		if desiredPresentTime != 0 {
			if err := win.SetBuffersTimestamp(int64(desiredPresentTime)); err != nil {
				log.Printf("swapchain: present: set buffers timestamp: %v", err)
			}
		}
		sc.timing.Enroll(timing.NewRecord(presentID, desiredPresentTime))
	}

	// Step 5: hand the buffer back to the compositor.
	result := ResultSuccess
	if err := win.QueueBuffer(slot.buf, releaseFence); err != nil {
		log.Printf("swapchain: present: queue buffer: %v", err)
		result = ResultOutOfDate
	} else {
		if slot.fence != fencesync.NoFence {
			if err := sc.syncer.Close(slot.fence); err != nil {
				log.Printf("swapchain: present: close dequeue fence: %v", err)
			}
		}
		slot.fence = fencesync.NoFence
		slot.dequeued = false
		sc.acquirable.Release(1)
	}

	// Step 6: escalate a failed queueBuffer into an orphan. QueueBuffer
	// always consumes releaseFence itself, win or not, so only the
	// slot's own dequeue fence remains to dispose of.
	if result != ResultSuccess {
		sc.releaseSlot(nil, fencesync.NoFence, slot)
		sc.orphanLocked(s)
	}

	return result
}

// releaseSlot returns slot to its non-dequeued, unallocated state. If
// slot was dequeued, releaseFence (or, when none was supplied, slot's
// own dequeue fence) is handed to win's cancelBuffer if win is live, or
// waited on and closed directly if not. sc.mu must already be held.
func (sc *Swapchain) releaseSlot(win window.Window, releaseFence fencesync.FD, slot *imageSlot) {
	if slot.dequeued {
		if releaseFence != fencesync.NoFence {
			if slot.fence != fencesync.NoFence {
				if err := sc.syncer.Close(slot.fence); err != nil {
					log.Printf("swapchain: release slot: close dequeue fence: %v", err)
				}
			}
		} else {
			releaseFence = slot.fence
		}
		slot.fence = fencesync.NoFence

		if win != nil {
			if err := win.CancelBuffer(slot.buf, releaseFence); err != nil {
				log.Printf("swapchain: release slot: cancel buffer: %v", err)
			}
		} else if releaseFence != fencesync.NoFence {
			if err := sc.syncer.Wait(releaseFence); err != nil {
				log.Printf("swapchain: release slot: wait fence: %v", err)
			}
			if err := sc.syncer.Close(releaseFence); err != nil {
				log.Printf("swapchain: release slot: close fence: %v", err)
			}
		}

		slot.dequeued = false
		sc.acquirable.Release(1)
	}
	if slot.img != nil {
		sc.drv.DestroyImage(slot.img)
		slot.img = nil
	}
	slot.buf = nil
}

// Orphan detaches sc from s if it is still s's active swapchain,
// releasing every non-dequeued slot (a dequeued slot is left alone
// until QueuePresent or Destroy releases it) and clearing the timing
// store.
func (sc *Swapchain) Orphan(s *surface.Surface) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.orphanLocked(s)
}

func (sc *Swapchain) orphanLocked(s *surface.Surface) {
	if s.ActiveSwapchain() != sc.handle {
		return
	}
	s.SetActiveSwapchain(0)
	for i := range sc.slots {
		if !sc.slots[i].dequeued {
			sc.releaseSlot(nil, fencesync.NoFence, &sc.slots[i])
		}
	}
	sc.timing.Clear()
}

// Destroy releases every slot sc owns, regardless of its dequeued
// state, and removes sc from the handle registry. Unlike Orphan,
// every slot is released uniformly here: whether the window receives
// the buffer back or the fence is simply waited on and closed depends
// only on whether sc is still s's active swapchain, not on each slot's
// individual dequeued flag.
func (sc *Swapchain) Destroy(s *surface.Surface) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	active := s.ActiveSwapchain() == sc.handle
	var win window.Window
	if active {
		win = sc.win
	}

	if sc.timestampsEnabled && active {
		sc.win.EnableFrameTimestamps(false)
	}
	sc.timestampsEnabled = false

	for i := range sc.slots {
		sc.releaseSlot(win, fencesync.NoFence, &sc.slots[i])
	}
	sc.slots = nil
	sc.timing.Clear()

	sc.alloc.Free(sc.damageScratch, alloc.ScopeCommand)
	sc.damageScratch = nil
	sc.alloc.Free(nil, alloc.ScopeObject)

	if active {
		s.SetActiveSwapchain(0)
	}

	registryMu.Lock()
	registry.Remove(sc.handle)
	registryMu.Unlock()
}

// EnableFrameTimestamps turns present-timing collection on the window
// on or off, clearing any buffered timing records when turned off.
func (sc *Swapchain) EnableFrameTimestamps(enable bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.win.EnableFrameTimestamps(enable)
	sc.timestampsEnabled = enable
	if !enable {
		sc.timing.Clear()
	}
}

// RefreshCycleDuration reports the compositor's refresh period this
// swapchain observed at creation, reused as both the min and max bound
// since this module never measures jitter directly.
func (sc *Swapchain) RefreshCycleDuration() (min, max uint64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.minRefreshDuration, sc.maxRefreshDuration
}

// PastPresentationTiming refreshes the timing store from the window
// and drains every record ready since the last call into out, up to
// len(out), returning the number copied and whether more were ready
// than fit.
func (sc *Swapchain) PastPresentationTiming(out []timing.Values) (n int, incomplete bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.timestampsEnabled {
		return 0, false
	}
	sc.timing.Refresh(sc.win, sc.minRefreshDuration)
	ready := sc.timing.NumReady()
	n = sc.timing.Drain(out)
	return n, n < ready
}

// Status reports whether sc is still s's active swapchain.
func (sc *Swapchain) Status(s *surface.Surface) Result {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if s.ActiveSwapchain() != sc.handle {
		return ResultOutOfDate
	}
	return ResultSuccess
}
