package referenceframe

import (
	"github.com/golang/geo/r3"

	"github.com/armsim/armsim/spatialmath"
)

// Tool reference types accepted in kinematics files.
const (
	BoundsCornerTool = "bounds_corner"
	PointTool        = "point"
)

// ToolReference picks the point on the terminal link that is reported as the tool position.
// Implementations must be pure: the same pose always yields the same point.
type ToolReference interface {
	// ToolPoint returns the tool position given the world transform of the terminal joint.
	ToolPoint(terminal spatialmath.Pose) r3.Vector
	Type() string
}

// BoundsCornerReference reports the minimum corner of the axis-aligned bounds of the terminal
// link's box after it has been transformed. At the rest pose this is Box.Min. The point is not a
// true tool center point: it slides across the link as the link rotates.
type BoundsCornerReference struct {
	Box spatialmath.BoundingBox
}

// ToolPoint implements ToolReference.
func (r BoundsCornerReference) ToolPoint(terminal spatialmath.Pose) r3.Vector {
	return r.Box.Transform(terminal).Min
}

// Type implements ToolReference.
func (r BoundsCornerReference) Type() string {
	return BoundsCornerTool
}

// PointReference reports a fixed point of the terminal link, given in rest pose coordinates.
type PointReference struct {
	Point r3.Vector
}

// ToolPoint implements ToolReference.
func (r PointReference) ToolPoint(terminal spatialmath.Pose) r3.Vector {
	return spatialmath.TransformPoint(terminal, r.Point)
}

// Type implements ToolReference.
func (r PointReference) Type() string {
	return PointTool
}

// Attachment is a named part without its own degree of freedom that moves rigidly with one joint,
// such as a cable guide or a logo plate.
type Attachment struct {
	Name  string `json:"name" yaml:"name"`
	Joint int    `json:"joint" yaml:"joint"`
}
