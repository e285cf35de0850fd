// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package surface implements the graphics-API-visible handle for a
// native window: Surface wraps a window.Window, tracks which Swapchain
// (if any) is currently active for it, and answers the capability/
// format/present-mode/support queries a loader issues before creating
// a swapchain.
//
// Grounded on CreateAndroidSurfaceKHR, DestroySurfaceKHR,
// GetPhysicalDeviceSurfaceSupportKHR,
// GetPhysicalDeviceSurfaceCapabilitiesKHR,
// GetPhysicalDeviceSurfaceFormatsKHR and
// GetPhysicalDeviceSurfacePresentModesKHR in swapchain.cpp.
package surface

import (
	"github.com/pkg/errors"

	"github.com/gviegas/wsiandroid/alloc"
	"github.com/gviegas/wsiandroid/gpudriver"
	"github.com/gviegas/wsiandroid/internal/handle"
	"github.com/gviegas/wsiandroid/transform"
	"github.com/gviegas/wsiandroid/window"
)

// ErrInitFailed is returned when Create cannot connect the graphics API
// to the native window.
var ErrInitFailed = errors.New("surface: native window initialization failed")

// ErrOutOfHostMemory is returned when the caller's allocator cannot
// satisfy an object-scope allocation.
var ErrOutOfHostMemory = errors.New("surface: out of host memory")

// Format pairs an image format with its color/data space, matching
// VkSurfaceFormatKHR.
type Format struct {
	ImageFormat gpudriver.Format
	ColorSpace  int
}

// ColorSpaceSRGBNonlinear is the only color space this module reports.
const ColorSpaceSRGBNonlinear = 0

// PresentMode identifies a supported present mode.
type PresentMode int

// Supported present modes.
const (
	PresentModeMailbox PresentMode = iota
	PresentModeFIFO
	PresentModeFrontBufferDemandRefresh
	PresentModeFrontBufferContinuousRefresh
)

// Extent is a 2D integer size.
type Extent struct {
	Width, Height uint32
}

// Capabilities answers GetPhysicalDeviceSurfaceCapabilitiesKHR.
type Capabilities struct {
	MinImageCount           uint32
	MaxImageCount           uint32
	CurrentExtent           Extent
	MinImageExtent          Extent
	MaxImageExtent          Extent
	MaxImageArrayLayers     uint32
	SupportedTransforms     transform.SurfaceTransform
	CurrentTransform        transform.SurfaceTransform
	SupportedCompositeAlpha CompositeAlpha
	SupportedUsageFlags     gpudriver.UsageFlags
}

// CompositeAlpha identifies how a surface's alpha channel composites
// with the content behind it. This module only ever reports Inherit:
// on Android, composition is a window-manager property the WSI layer
// cannot change.
type CompositeAlpha int

// CompositeAlphaInherit is the sole supported composite-alpha mode.
const CompositeAlphaInherit CompositeAlpha = 0

// hardcoded format and present-mode lists, matching kFormats/kModes.
var formats = []Format{
	{ImageFormat: gpudriver.FormatRGBA8UNorm, ColorSpace: ColorSpaceSRGBNonlinear},
	{ImageFormat: gpudriver.FormatRGBA8SRGB, ColorSpace: ColorSpaceSRGBNonlinear},
	{ImageFormat: gpudriver.FormatR5G6B5UNormPack16, ColorSpace: ColorSpaceSRGBNonlinear},
}

var presentModes = []PresentMode{
	PresentModeMailbox,
	PresentModeFIFO,
	PresentModeFrontBufferDemandRefresh,
	PresentModeFrontBufferContinuousRefresh,
}

// Surface is the graphics-API handle for a native window.
type Surface struct {
	win             window.Window
	alloc           alloc.Allocator
	activeSwapchain handle.H
}

// Create allocates a Surface over win and connects the graphics API to
// it. On failure, no Surface is returned and the connection attempt is
// undone.
func Create(win window.Window, a alloc.Allocator) (*Surface, error) {
	if a == nil {
		a = alloc.Default
	}
	if !a.Reserve(1, alloc.ScopeObject) {
		return nil, ErrOutOfHostMemory
	}
	if err := win.APIConnect(window.APIGPU); err != nil {
		return nil, errors.Wrap(ErrInitFailed, err.Error())
	}
	return &Surface{win: win, alloc: a}, nil
}

// Destroy disconnects the graphics API from the native window and
// releases s. If a swapchain is still active, destroying it first is
// the caller's responsibility; Destroy only logs the condition.
func (s *Surface) Destroy() {
	if err := s.win.APIDisconnect(window.APIGPU); err != nil {
		logf("surface: APIDisconnect: %v", err)
	}
	if s.activeSwapchain != 0 {
		logf("surface: destroyed with active swapchain handle %d still set", s.activeSwapchain)
	}
	s.alloc.Free(nil, alloc.ScopeObject)
}

// Window returns the native window this surface wraps.
func (s *Surface) Window() window.Window { return s.win }

// ActiveSwapchain returns the handle of the swapchain currently active
// for this surface, or 0 if none.
func (s *Surface) ActiveSwapchain() handle.H { return s.activeSwapchain }

// SetActiveSwapchain records h as this surface's active swapchain.
func (s *Surface) SetActiveSwapchain(h handle.H) { s.activeSwapchain = h }

// GetSupport reports whether this surface supports presentation.
// Android has no per-queue-family distinction, so this is always true.
func (s *Surface) GetSupport() bool { return true }

// GetCapabilities queries the native window for its default geometry
// and transform hint and returns the fixed capability set this module
// supports.
func (s *Surface) GetCapabilities() (Capabilities, error) {
	width, err := s.win.Query(window.ParamDefaultWidth)
	if err != nil {
		return Capabilities{}, errors.Wrap(ErrInitFailed, "query default width: "+err.Error())
	}
	height, err := s.win.Query(window.ParamDefaultHeight)
	if err != nil {
		return Capabilities{}, errors.Wrap(ErrInitFailed, "query default height: "+err.Error())
	}
	hint, err := s.win.Query(window.ParamTransformHint)
	if err != nil {
		return Capabilities{}, errors.Wrap(ErrInitFailed, "query transform hint: "+err.Error())
	}
	return Capabilities{
		MinImageCount:           2,
		MaxImageCount:           3,
		CurrentExtent:           Extent{Width: uint32(width), Height: uint32(height)},
		MinImageExtent:          Extent{Width: 1, Height: 1},
		MaxImageExtent:          Extent{Width: 4096, Height: 4096},
		MaxImageArrayLayers:     1,
		SupportedTransforms:     transform.Supported,
		CurrentTransform:        transform.ToAPI(transform.Rotation(hint)),
		SupportedCompositeAlpha: CompositeAlphaInherit,
		SupportedUsageFlags: gpudriver.UsageTransferSrc | gpudriver.UsageTransferDst |
			gpudriver.UsageSampled | gpudriver.UsageStorage |
			gpudriver.UsageColorAttachment | gpudriver.UsageInputAttachment,
	}, nil
}

// GetFormats copies into out as many supported formats as fit,
// returning the number copied and whether the result was truncated
// (incomplete). A nil out only reports the total count.
func (s *Surface) GetFormats(out []Format) (n int, incomplete bool) {
	return copyIncomplete(formats, out)
}

// GetPresentModes copies into out as many supported present modes as
// fit, returning the number copied and whether the result was
// truncated. A nil out only reports the total count.
func (s *Surface) GetPresentModes(out []PresentMode) (n int, incomplete bool) {
	return copyIncomplete(presentModes, out)
}

func copyIncomplete[T any](all, out []T) (n int, incomplete bool) {
	if out == nil {
		return len(all), false
	}
	n = copy(out, all)
	return n, n < len(all)
}
