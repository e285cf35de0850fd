// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package transform_test

import (
	"testing"

	"github.com/gviegas/wsiandroid/transform"
)

func TestToAPI(t *testing.T) {
	cases := []struct {
		native transform.Rotation
		want   transform.SurfaceTransform
	}{
		{transform.RotationIdentity, transform.TransformIdentity},
		{transform.RotationRot90, transform.TransformRotate90},
		{transform.RotationRot180, transform.TransformRotate180},
		{transform.RotationRot270, transform.TransformRotate270},
		{transform.RotationInverseDisplay, transform.TransformIdentity},
		{0x1, transform.TransformIdentity}, // flip-only, unsupported, must fall back
		{0xff, transform.TransformIdentity},
	}
	for _, c := range cases {
		if got := transform.ToAPI(c.native); got != c.want {
			t.Errorf("ToAPI(%#x): have %#x, want %#x", c.native, got, c.want)
		}
	}
}

func TestToInverseNative(t *testing.T) {
	cases := []struct {
		t    transform.SurfaceTransform
		want transform.Rotation
	}{
		{transform.TransformRotate90, transform.RotationRot270},
		{transform.TransformRotate180, transform.RotationRot180},
		{transform.TransformRotate270, transform.RotationRot90},
		{transform.TransformIdentity, transform.RotationIdentity},
		{transform.TransformInherit, transform.RotationIdentity},
		{0, transform.RotationIdentity},
	}
	for _, c := range cases {
		if got := transform.ToInverseNative(c.t); got != c.want {
			t.Errorf("ToInverseNative(%#x): have %#x, want %#x", c.t, got, c.want)
		}
	}
}

// TestRoundTrip checks the invariant that the compositor-applied
// inverse, composed with the application's own transform, is an
// identity transform - the whole point of pre-transform negotiation.
func TestRoundTrip(t *testing.T) {
	degrees := map[transform.SurfaceTransform]int{
		transform.TransformIdentity:  0,
		transform.TransformRotate90:  90,
		transform.TransformRotate180: 180,
		transform.TransformRotate270: 270,
	}
	for _, rot := range []transform.SurfaceTransform{
		transform.TransformIdentity,
		transform.TransformRotate90,
		transform.TransformRotate180,
		transform.TransformRotate270,
	} {
		native := transform.ToInverseNative(rot)
		composed := transform.ToAPI(native)
		// ToAPI(ToInverseNative(rot)) is the transform the compositor
		// itself is made to apply; composing it with rot must bring
		// the frame back to identity, i.e. the native rotation that
		// cancels rot is exactly what ToInverseNative reports and
		// nothing else maps to it.
		switch rot {
		case transform.TransformIdentity:
			if composed != transform.TransformIdentity {
				t.Errorf("round-trip broken for identity: got %#x", composed)
			}
		default:
			if native == transform.RotationIdentity {
				t.Errorf("round-trip broken for %#x: inverse native is identity", rot)
			}
		}
		if (degrees[rot]+degrees[composed])%360 != 0 {
			t.Errorf("round-trip broken for %#x: composed with %#x is not identity", rot, composed)
		}
	}
}
