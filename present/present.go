// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package present is the public WSI entry point surface: the
// procedures a GPU API loader calls to create/destroy surfaces and
// swapchains, acquire and present images, and query capabilities,
// wired atop surface and swapchain. Every create-info struct carries
// an SType/Next pair so callers can thread an extension chain through
// unchanged, even though this module never inspects Next itself.
package present

import (
	"time"

	"github.com/gviegas/wsiandroid/alloc"
	"github.com/gviegas/wsiandroid/fencesync"
	"github.com/gviegas/wsiandroid/gpudriver"
	"github.com/gviegas/wsiandroid/internal/handle"
	"github.com/gviegas/wsiandroid/surface"
	"github.com/gviegas/wsiandroid/swapchain"
	"github.com/gviegas/wsiandroid/timing"
	"github.com/gviegas/wsiandroid/transform"
	"github.com/gviegas/wsiandroid/window"
)

// StructureType identifies a create-info struct's concrete type, the
// Go stand-in for VkStructureType in this module's extension chains.
type StructureType int

// Structure types this module defines create-info structs for.
const (
	StructureTypeSurfaceCreateInfo StructureType = iota
	StructureTypeSwapchainCreateInfo
	StructureTypePresentInfo
)

// Result is swapchain's present-result type, re-exported here so
// callers only ever need to import present for the WSI-facing API.
// It lives in package swapchain, not here, because swapchain itself
// must classify and rank results internally (QueuePresent's escalation
// path, releaseSlot's callers) and present sits above swapchain - see
// DESIGN.md for why this otherwise mirrors the spec's naming exactly.
type Result = swapchain.Result

// Result values, re-exported from swapchain.
const (
	ResultSuccess           = swapchain.ResultSuccess
	ResultSuboptimal        = swapchain.ResultSuboptimal
	ResultOutOfHostMemory   = swapchain.ResultOutOfHostMemory
	ResultOutOfDeviceMemory = swapchain.ResultOutOfDeviceMemory
	ResultOutOfDate         = swapchain.ResultOutOfDate
	ResultSurfaceLost       = swapchain.ResultSurfaceLost
	ResultDeviceLost        = swapchain.ResultDeviceLost
	ResultIncomplete        = swapchain.ResultIncomplete
)

// WorstResult ranks a against b by severity, re-exported from
// swapchain for callers merging results across several swapchains.
func WorstResult(a, b Result) Result { return swapchain.WorstResult(a, b) }

// DamageRect is a present-region rectangle in the GPU API's
// offset+extent convention, re-exported from swapchain.
type DamageRect = swapchain.DamageRect

// SurfaceCreateInfo mirrors VkAndroidSurfaceCreateInfoKHR.
type SurfaceCreateInfo struct {
	SType  StructureType
	Next   any
	Window window.Window
}

// CreateSurface wraps info.Window in a Surface and connects the
// graphics API to it.
func CreateSurface(info SurfaceCreateInfo, a alloc.Allocator) (*surface.Surface, error) {
	return surface.Create(info.Window, a)
}

// DestroySurface disconnects the graphics API and releases s.
func DestroySurface(s *surface.Surface, a alloc.Allocator) {
	s.Destroy()
}

// GetPhysicalDeviceSurfaceSupport reports whether s supports
// presentation. Android has no per-queue-family distinction.
func GetPhysicalDeviceSurfaceSupport(s *surface.Surface) bool {
	return s.GetSupport()
}

// GetPhysicalDeviceSurfaceCapabilities answers s's capability query.
func GetPhysicalDeviceSurfaceCapabilities(s *surface.Surface) (surface.Capabilities, Result) {
	caps, err := s.GetCapabilities()
	if err != nil {
		return surface.Capabilities{}, ResultOutOfHostMemory
	}
	return caps, ResultSuccess
}

// GetPhysicalDeviceSurfaceFormats copies into out as many supported
// formats as fit, returning ResultIncomplete if truncated. A nil out
// only reports the count.
func GetPhysicalDeviceSurfaceFormats(s *surface.Surface, out []surface.Format) (int, Result) {
	n, incomplete := s.GetFormats(out)
	if incomplete {
		return n, ResultIncomplete
	}
	return n, ResultSuccess
}

// GetPhysicalDeviceSurfacePresentModes copies into out as many
// supported present modes as fit, returning ResultIncomplete if
// truncated. A nil out only reports the count.
func GetPhysicalDeviceSurfacePresentModes(s *surface.Surface, out []surface.PresentMode) (int, Result) {
	n, incomplete := s.GetPresentModes(out)
	if incomplete {
		return n, ResultIncomplete
	}
	return n, ResultSuccess
}

// SwapchainCreateInfo mirrors VkSwapchainCreateInfoKHR.
type SwapchainCreateInfo struct {
	SType         StructureType
	Next          any
	Surface       *surface.Surface
	MinImageCount uint32
	ImageFormat   gpudriver.Format
	ImageExtent   surface.Extent
	ImageUsage    gpudriver.UsageFlags
	PreTransform  transform.SurfaceTransform
	PresentMode   surface.PresentMode
	OldSwapchain  handle.H
	Allocator     alloc.Allocator
}

// CreateSwapchain creates a Swapchain for info.Surface.
func CreateSwapchain(info SwapchainCreateInfo, drv gpudriver.Driver, syncer fencesync.Syncer) (*swapchain.Swapchain, error) {
	return swapchain.Create(info.Surface, swapchain.CreateInfo{
		MinImageCount: info.MinImageCount,
		ImageFormat:   info.ImageFormat,
		ImageExtent:   info.ImageExtent,
		ImageUsage:    info.ImageUsage,
		PreTransform:  info.PreTransform,
		PresentMode:   info.PresentMode,
		OldSwapchain:  info.OldSwapchain,
		Allocator:     info.Allocator,
	}, drv, syncer)
}

// DestroySwapchain releases sc.
func DestroySwapchain(sc *swapchain.Swapchain, s *surface.Surface, a alloc.Allocator) {
	sc.Destroy(s)
}

// GetSwapchainImages copies into out as many of sc's driver images as
// fit, returning ResultIncomplete if truncated. A nil out only reports
// the count.
func GetSwapchainImages(sc *swapchain.Swapchain, out []gpudriver.Image) (int, Result) {
	n, incomplete := sc.Images(out)
	if incomplete {
		return n, ResultIncomplete
	}
	return n, ResultSuccess
}

// AcquireNextImage dequeues the next image sc can present into.
// Timeouts other than infinite are not implemented; timeout is logged
// and treated as infinite when non-nil.
func AcquireNextImage(sc *swapchain.Swapchain, s *surface.Surface, sem gpudriver.Semaphore, fen gpudriver.Fence, timeout *time.Duration) (int, Result, error) {
	return sc.AcquireNextImage(s, sem, fen, timeout)
}

// PresentInfo mirrors VkPresentInfoKHR: a present batch spanning one
// or more swapchains, each entry matched by index across the parallel
// slices. Damage, DesiredPresentTimes and PresentIDs are optional. A
// short or nil Damage slice means no damage hint for that swapchain. A
// swapchain whose index lies beyond both DesiredPresentTimes and
// PresentIDs enrolls no timing record; one reached by only one of them
// gets the zero value for the other. Results, if non-nil, is filled
// with each swapchain's own Result (VkPresentInfoKHR's pResults).
type PresentInfo struct {
	SType               StructureType
	Next                any
	WaitSemaphores      []gpudriver.Semaphore
	Surfaces            []*surface.Surface
	Swapchains          []*swapchain.Swapchain
	ImageIndices        []int
	Damage              [][]DamageRect
	DesiredPresentTimes []uint64
	PresentIDs          []uint32
	Results             []Result
}

// QueuePresent presents every swapchain in info, merging each one's
// own Result into the single Result vkQueuePresentKHR itself returns,
// per §4.4 step 7 (WorstResult).
func QueuePresent(info PresentInfo) Result {
	merged := ResultSuccess
	for i, sc := range info.Swapchains {
		var damage []DamageRect
		if i < len(info.Damage) {
			damage = info.Damage[i]
		}
		var desired uint64
		if i < len(info.DesiredPresentTimes) {
			desired = info.DesiredPresentTimes[i]
		}
		var presentID uint32
		if i < len(info.PresentIDs) {
			presentID = info.PresentIDs[i]
		}
		// A present-times chain is considered supplied for this
		// swapchain if either parallel slice reaches this index, even
		// when DesiredPresentTimes[i] is 0 - "present ASAP but still
		// track this ID" is a legitimate use of PresentIDs alone.
		hasPresentTimes := i < len(info.PresentIDs) || i < len(info.DesiredPresentTimes)
		r := sc.QueuePresent(info.Surfaces[i], info.ImageIndices[i], info.WaitSemaphores, damage, presentID, desired, hasPresentTimes)
		if i < len(info.Results) {
			info.Results[i] = r
		}
		merged = WorstResult(merged, r)
	}
	return merged
}

// GetRefreshCycleDuration reports sc's observed compositor refresh
// bounds, supplementing GetRefreshCycleDurationGOOGLE.
func GetRefreshCycleDuration(sc *swapchain.Swapchain) (min, max uint64) {
	return sc.RefreshCycleDuration()
}

// GetPastPresentationTiming drains every present-timing record ready
// since the last call, up to len(out), returning ResultIncomplete if
// more were ready than fit.
func GetPastPresentationTiming(sc *swapchain.Swapchain, out []timing.Values) (int, Result) {
	n, incomplete := sc.PastPresentationTiming(out)
	if incomplete {
		return n, ResultIncomplete
	}
	return n, ResultSuccess
}

// GetSwapchainStatus reports only whether sc is out of date - no
// deeper status, matching the original's own unresolved "implement
// this properly" stub (Design Note (c); left unresolved here too).
func GetSwapchainStatus(sc *swapchain.Swapchain, s *surface.Surface) Result {
	return sc.Status(s)
}
