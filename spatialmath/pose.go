// Package spatialmath defines spatial mathematical operations.
// Poses are rigid transforms represented internally as unit dual quaternions; points are
// golang/geo r3 vectors. Lengths are in millimeters.
package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/armsim/armsim/utils"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) mm coordinates,
// and the Orientation() method returns an Orientation object.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	q := newDualQuaternion()
	q.Real = o.Quaternion()
	q.SetTranslation(p)
	return q
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	q := newDualQuaternion()
	q.SetTranslation(point)
	return q
}

// NewPoseFromRotationAboutPoint returns the rigid transform that rotates space by `degrees` around
// `axis`, where the axis passes through `pivot`. Points on the axis are left in place. The axis
// must be non-zero; it does not need to be normalized.
func NewPoseFromRotationAboutPoint(axis r3.Vector, degrees float64, pivot r3.Vector) Pose {
	aa := &R4AA{Theta: utils.DegToRad(degrees), RX: axis.X, RY: axis.Y, RZ: axis.Z}
	rot := aa.ToQuat()
	// p' = R(p - pivot) + pivot = Rp + (pivot - R*pivot)
	return NewPose(pivot.Sub(rotateVector(rot, pivot)), (*quaternion)(&rot))
}

// Compose takes in two poses and returns the pose that results from applying b first and then a.
// For a parent pose a and a pose b expressed in a's frame, Compose(a, b) is b in a's parent frame.
func Compose(a, b Pose) Pose {
	result := &dualQuaternion{dualQuaternionFromPose(a).Transformation(dualQuaternionFromPose(b).Number)}

	// Normalization
	if vecLen := 1 / quat.Abs(result.Real); vecLen-1 > 1e-10 || vecLen-1 < -1e-10 {
		result.Real.Real *= vecLen
		result.Real.Imag *= vecLen
		result.Real.Jmag *= vecLen
		result.Real.Kmag *= vecLen
	}
	return result
}

// TransformPoint applies the pose to a point expressed in the pose's child frame and returns the
// point in the parent frame.
func TransformPoint(p Pose, point r3.Vector) r3.Vector {
	return rotateVector(p.Orientation().Quaternion(), point).Add(p.Point())
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same,
// using `epsilon` for both the translation (mm) and the quaternion components.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), epsilon)
}

// rotateVector rotates v by the unit quaternion q.
func rotateVector(q quat.Number, v r3.Vector) r3.Vector {
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// dualQuaternionFromPose returns the dual quaternion backing a pose, converting if needed.
func dualQuaternionFromPose(p Pose) *dualQuaternion {
	if q, ok := p.(*dualQuaternion); ok {
		return q.Clone()
	}
	q := newDualQuaternion()
	q.Real = p.Orientation().Quaternion()
	q.SetTranslation(p.Point())
	return q
}
