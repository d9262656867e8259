package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Ordered list of box vertices, as signs applied to the half size.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: -1},
}

// BoundingBox is an axis-aligned box given by its minimum and maximum corners, in millimeters.
type BoundingBox struct {
	Min r3.Vector `json:"min" yaml:"min"`
	Max r3.Vector `json:"max" yaml:"max"`
}

// NewBoundingBox returns the box spanning min and max. It is an error for any component of min
// to exceed the matching component of max.
func NewBoundingBox(minPt, maxPt r3.Vector) (BoundingBox, error) {
	b := BoundingBox{Min: minPt, Max: maxPt}
	if err := b.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return b, nil
}

// Validate checks that the box is finite and not inverted.
func (b BoundingBox) Validate() error {
	if !R3VectorFinite(b.Min) || !R3VectorFinite(b.Max) {
		return errors.New("bounding box corners must be finite")
	}
	if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z {
		return errors.Errorf("bounding box min %v exceeds max %v", b.Min, b.Max)
	}
	return nil
}

// Vertices returns the 8 corners of the box.
func (b BoundingBox) Vertices() []r3.Vector {
	pick := func(sign, lo, hi float64) float64 {
		if sign < 0 {
			return lo
		}
		return hi
	}
	verts := make([]r3.Vector, 0, len(boxVertices))
	for _, v := range boxVertices {
		verts = append(verts, r3.Vector{
			X: pick(v.X, b.Min.X, b.Max.X),
			Y: pick(v.Y, b.Min.Y, b.Max.Y),
			Z: pick(v.Z, b.Min.Z, b.Max.Z),
		})
	}
	return verts
}

// Transform returns the axis-aligned bounds of the box after every corner has been moved by the pose.
func (b BoundingBox) Transform(p Pose) BoundingBox {
	out := BoundingBox{
		Min: r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, v := range b.Vertices() {
		pt := TransformPoint(p, v)
		out.Min = r3.Vector{X: math.Min(out.Min.X, pt.X), Y: math.Min(out.Min.Y, pt.Y), Z: math.Min(out.Min.Z, pt.Z)}
		out.Max = r3.Vector{X: math.Max(out.Max.X, pt.X), Y: math.Max(out.Max.Y, pt.Y), Z: math.Max(out.Max.Z, pt.Z)}
	}
	return out
}
