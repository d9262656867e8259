package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewBoundingBox(t *testing.T) {
	_, err := NewBoundingBox(r3.Vector{X: 1}, r3.Vector{})
	test.That(t, err, test.ShouldNotBeNil)

	b, err := NewBoundingBox(r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{X: 2, Y: 4, Z: 6})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(b.Vertices()), test.ShouldEqual, 8)
	test.That(t, b.Vertices(), test.ShouldContain, b.Min)
	test.That(t, b.Vertices(), test.ShouldContain, b.Max)
}

func TestBoundingBoxTransform(t *testing.T) {
	b := BoundingBox{Min: r3.Vector{X: 1, Y: 2, Z: 3}, Max: r3.Vector{X: 2, Y: 4, Z: 6}}

	test.That(t, b.Transform(NewZeroPose()), test.ShouldResemble, b)

	moved := b.Transform(NewPoseFromPoint(r3.Vector{X: 10}))
	test.That(t, moved.Min, test.ShouldResemble, r3.Vector{X: 11, Y: 2, Z: 3})

	// (x, y) -> (-y, x)
	rotated := b.Transform(NewPoseFromRotationAboutPoint(r3.Vector{Z: 1}, 90, r3.Vector{}))
	test.That(t, R3VectorAlmostEqual(rotated.Min, r3.Vector{X: -4, Y: 1, Z: 3}, 1e-9), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(rotated.Max, r3.Vector{X: -2, Y: 2, Z: 6}, 1e-9), test.ShouldBeTrue)
}
