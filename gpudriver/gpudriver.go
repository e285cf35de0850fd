// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package gpudriver defines the interface to the GPU driver entry
// points a Swapchain calls to alias a native buffer as a driver image,
// acquire and release those images, and query the gralloc usage bits
// the driver wants ORed into the native window's buffer allocation.
//
// Driver is an external collaborator (see the owning specification's
// scope section): the core never links against a concrete graphics API,
// it only describes the vtable slice it consumes. It is named distinctly
// from any "driver" package that models a whole GPU backend, since this
// interface's sole purpose is the narrow swapchain-image boundary.
package gpudriver

import (
	"github.com/gviegas/wsiandroid/fencesync"
	"github.com/gviegas/wsiandroid/window"
)

// Image is an opaque handle to a driver-side image aliasing a native
// buffer.
type Image interface{}

// Semaphore is an opaque handle to a driver-side semaphore the caller
// supplies for queue-ordered synchronization.
type Semaphore interface{}

// Fence is an opaque handle to a driver-side fence the caller supplies
// to be signalled when an operation completes.
type Fence interface{}

// Format is a driver-defined image format identifier.
type Format int

// Image formats this module knows about, independent of any concrete
// graphics API's own format enumeration. A Surface reports these as its
// supported surface formats, and Swapchain.Create maps them to a native
// window pixel format.
const (
	FormatRGBA8UNorm Format = iota
	FormatRGBA8SRGB
	FormatR5G6B5UNormPack16
)

// UsageFlags are driver-side image usage bits, matching the GPU API's
// image-usage flag set the spec enumerates for surface capabilities.
type UsageFlags uint32

// Usage bits a Surface reports as supported.
const (
	UsageTransferSrc UsageFlags = 1 << iota
	UsageTransferDst
	UsageSampled
	UsageStorage
	UsageColorAttachment
	UsageInputAttachment
)

// SwapchainImageUsageFlags are the Android-specific swapchain-image
// usage bits (VkSwapchainImageUsageFlagsANDROID in the original API).
type SwapchainImageUsageFlags uint32

// Swapchain-image usage bits.
const (
	SwapchainImageUsageFrontBuffer SwapchainImageUsageFlags = 1 << iota
)

// ImageCreateInfo carries everything the driver needs to alias a native
// buffer as a driver image, equivalent to chaining
// VkImageCreateInfo -> VkNativeBufferANDROID -> VkSwapchainImageCreateInfoANDROID.
type ImageCreateInfo struct {
	Format              Format
	Width, Height       int32
	Usage               UsageFlags
	SwapchainImageUsage SwapchainImageUsageFlags
	NativeBuffer        window.Buffer
	NativeBufferHandle  uintptr
	NativeBufferStride  int32
	NativeBufferFormat  int32
	NativeBufferUsage   uint64
}

// Driver is the GPU driver's swapchain-facing entry points.
type Driver interface {
	// CreateImage aliases a native buffer as a driver image, per info.
	CreateImage(info ImageCreateInfo) (Image, error)

	// DestroyImage destroys a driver image previously returned by
	// CreateImage.
	DestroyImage(img Image)

	// AcquireImage makes img safe to use once fence (if not NoFence)
	// signals, and arranges for sem and/or fen to be signalled when the
	// image is ready. The driver always consumes fence, on both success
	// and failure; the caller must never close it itself.
	AcquireImage(img Image, fence fencesync.FD, sem Semaphore, fen Fence) error

	// QueueSignalReleaseImage asks the driver to signal a release fence
	// for img once every semaphore in waitSems has signalled. The
	// returned fence is owned by the caller.
	QueueSignalReleaseImage(waitSems []Semaphore, img Image) (fencesync.FD, error)
}

// GrallocUsageV2 is the optional capability a Driver may implement to
// answer a gralloc-usage query that also takes the swapchain-image
// usage flags into account (GetSwapchainGrallocUsage2ANDROID). Callers
// type-assert for it before falling back to GrallocUsageV1.
type GrallocUsageV2 interface {
	GrallocUsageV2(format Format, imageUsage UsageFlags, swapchainUsage SwapchainImageUsageFlags) (uint64, error)
}

// GrallocUsageV1 is the optional, older gralloc-usage query
// (GetSwapchainGrallocUsageANDROID), consulted only if GrallocUsageV2
// is not implemented.
type GrallocUsageV1 interface {
	GrallocUsageV1(format Format, imageUsage UsageFlags) (uint64, error)
}

// Default gralloc usage bits used when the driver implements neither
// GrallocUsageV2 nor GrallocUsageV1 (GRALLOC_USAGE_HW_RENDER |
// GRALLOC_USAGE_HW_TEXTURE in the original source).
const (
	GrallocUsageHWRender  uint64 = 0x00000200
	GrallocUsageHWTexture uint64 = 0x00000100
)

// ResultCode classifies a Driver error into the coarse buckets a caller
// needs to rank multiple swapchains' present results against each
// other, without the caller needing to know this package's concrete
// error values.
type ResultCode int

// Result codes a CodedError may report.
const (
	ResultCodeUnknown ResultCode = iota
	ResultCodeOutOfHostMemory
	ResultCodeOutOfDeviceMemory
	ResultCodeDeviceLost
	ResultCodeSurfaceLost
)

// CodedError is the optional capability an error returned from Driver
// may implement so a caller can classify it without this package
// importing the caller's result type (swapchain.Result ranks errors
// this way during QueuePresent's multi-swapchain result merge).
type CodedError interface {
	error
	ResultCode() ResultCode
}

// QueryGrallocUsage resolves the gralloc usage bits for the given image
// parameters, preferring GrallocUsageV2, falling back to GrallocUsageV1,
// and finally to the hardware render+texture default - mirroring the
// three-way fallback in CreateSwapchainKHR.
func QueryGrallocUsage(d Driver, format Format, imageUsage UsageFlags, swapchainUsage SwapchainImageUsageFlags) (uint64, error) {
	if v2, ok := d.(GrallocUsageV2); ok {
		return v2.GrallocUsageV2(format, imageUsage, swapchainUsage)
	}
	if v1, ok := d.(GrallocUsageV1); ok {
		return v1.GrallocUsageV1(format, imageUsage)
	}
	return GrallocUsageHWRender | GrallocUsageHWTexture, nil
}
