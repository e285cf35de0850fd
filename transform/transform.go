// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package transform translates between the native window's transform
// bits and the GPU API's surface-transform enumerators.
//
// Native and API transforms are isomorphic, but represented differently.
// API transforms are built up of an optional horizontal mirror followed
// by a clockwise 0/90/180/270-degree rotation. Native transforms are
// built up from a horizontal flip, a vertical flip and a 90-degree
// rotation, all optional but always in that order. This package only
// supports the pure-rotation subset of that isomorphism (see Non-goals
// in the owning specification): flips and flip-plus-rotation combinations
// are rejected before reaching the codec and are never produced by it.
package transform

// Rotation is a native-window transform value, expressed using the same
// bit positions as the window system's transform flags.
type Rotation uint32

// Native transform bits.
const (
	RotationIdentity       Rotation = 0x0
	flipH                  Rotation = 0x1
	flipV                  Rotation = 0x2
	RotationRot90          Rotation = 0x4
	RotationRot180         Rotation = flipH | flipV
	RotationRot270         Rotation = flipH | flipV | RotationRot90
	RotationInverseDisplay Rotation = 0x8
)

// SurfaceTransform is a GPU-API surface-transform flag.
type SurfaceTransform uint32

// GPU-API surface-transform flags.
const (
	TransformIdentity  SurfaceTransform = 0x01
	TransformRotate90  SurfaceTransform = 0x02
	TransformRotate180 SurfaceTransform = 0x04
	TransformRotate270 SurfaceTransform = 0x08
	TransformInherit   SurfaceTransform = 0x100
)

// Supported is the full set of transforms this codec (and thus the
// surface capability query) ever reports as supported.
const Supported = TransformIdentity | TransformRotate90 | TransformRotate180 | TransformRotate270 | TransformInherit

// ToAPI maps a native transform value to its GPU-API equivalent.
// It is a total function: any value it does not recognize, including
// RotationInverseDisplay, maps to TransformIdentity.
func ToAPI(native Rotation) SurfaceTransform {
	switch native {
	case RotationIdentity:
		return TransformIdentity
	case RotationRot180:
		return TransformRotate180
	case RotationRot90:
		return TransformRotate90
	case RotationRot270:
		return TransformRotate270
	default:
		return TransformIdentity
	}
}

// ToInverseNative returns the native rotation that, when applied by the
// compositor, cancels out the given GPU-API pre-transform. The
// application renders in the pre-transformed frame; the compositor is
// asked to apply the inverse so the two transforms cancel and the
// composited result is an identity transform of the app's buffer.
func ToInverseNative(t SurfaceTransform) Rotation {
	switch t {
	case TransformRotate90:
		return RotationRot270
	case TransformRotate180:
		return RotationRot180
	case TransformRotate270:
		return RotationRot90
	case TransformIdentity, TransformInherit:
		return RotationIdentity
	default:
		return RotationIdentity
	}
}
