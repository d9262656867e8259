package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestRotationAboutPoint(t *testing.T) {
	pivot := r3.Vector{X: 1}
	p := NewPoseFromRotationAboutPoint(r3.Vector{Z: 1}, 90, pivot)

	moved := TransformPoint(p, r3.Vector{X: 2})
	test.That(t, R3VectorAlmostEqual(moved, r3.Vector{X: 1, Y: 1}, 1e-9), test.ShouldBeTrue)

	// the pivot lies on the axis and must not move
	test.That(t, R3VectorAlmostEqual(TransformPoint(p, pivot), pivot, 1e-9), test.ShouldBeTrue)

	// an unnormalized axis gives the same transform
	scaled := NewPoseFromRotationAboutPoint(r3.Vector{Z: 7}, 90, pivot)
	test.That(t, PoseAlmostEqual(p, scaled), test.ShouldBeTrue)

	t.Run("zero angle is the identity", func(t *testing.T) {
		p := NewPoseFromRotationAboutPoint(r3.Vector{X: 0.3, Y: 1}, 0, r3.Vector{X: 348, Y: -243, Z: 775})
		pt := r3.Vector{X: 2008, Y: -100, Z: 2025}
		out := TransformPoint(p, pt)
		test.That(t, out.X, test.ShouldEqual, pt.X)
		test.That(t, out.Y, test.ShouldEqual, pt.Y)
		test.That(t, out.Z, test.ShouldEqual, pt.Z)
	})
}

func TestCompose(t *testing.T) {
	translate := NewPoseFromPoint(r3.Vector{X: 1})
	rotate := NewPoseFromRotationAboutPoint(r3.Vector{Z: 1}, 90, r3.Vector{})

	// rotate is applied first, then translate
	pt := TransformPoint(Compose(translate, rotate), r3.Vector{X: 1})
	test.That(t, R3VectorAlmostEqual(pt, r3.Vector{X: 1, Y: 1}, 1e-9), test.ShouldBeTrue)

	pt = TransformPoint(Compose(rotate, translate), r3.Vector{X: 1})
	test.That(t, R3VectorAlmostEqual(pt, r3.Vector{Y: 2}, 1e-9), test.ShouldBeTrue)

	test.That(t, PoseAlmostEqual(Compose(NewZeroPose(), rotate), rotate), test.ShouldBeTrue)
}

func TestAxisAngleRoundTrip(t *testing.T) {
	aa := &R4AA{Theta: math.Pi / 3, RX: 0, RY: 2, RZ: 0}
	back := QuatToR4AA(aa.ToQuat())
	test.That(t, back.Theta, test.ShouldAlmostEqual, math.Pi/3)
	test.That(t, back.RY, test.ShouldAlmostEqual, 1)

	test.That(t, func() { (&R4AA{Theta: 1}).Normalize() }, test.ShouldPanic)
}

func TestPoseToMat4(t *testing.T) {
	p := Compose(
		NewPoseFromPoint(r3.Vector{X: 5, Y: 6, Z: 7}),
		NewPoseFromRotationAboutPoint(r3.Vector{Z: 1}, 90, r3.Vector{}),
	)
	m := PoseToMat4(p)
	test.That(t, m.At(0, 3), test.ShouldAlmostEqual, 5)
	test.That(t, m.At(1, 3), test.ShouldAlmostEqual, 6)
	test.That(t, m.At(2, 3), test.ShouldAlmostEqual, 7)
	test.That(t, m.At(3, 3), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(0, 1), test.ShouldAlmostEqual, -1)
	test.That(t, m.At(1, 0), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(2, 2), test.ShouldAlmostEqual, 1)
}
