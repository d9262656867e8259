package referenceframe

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/armsim/armsim/spatialmath"
	"github.com/armsim/armsim/utils"
)

// Limit represents the inclusive range of angles, in degrees, a joint may take.
type Limit struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Clamp restricts value to the limit.
func (l Limit) Clamp(value float64) float64 {
	return utils.Clamp(value, l.Min, l.Max)
}

// Contains reports whether value lies within the limit.
func (l Limit) Contains(value float64) bool {
	return value >= l.Min && value <= l.Max
}

// Validate returns an error if the limit is not a usable range.
func (l Limit) Validate() error {
	if math.IsNaN(l.Min) || math.IsNaN(l.Max) {
		return errors.Wrap(ErrInvalidLimit, "limits cannot be NaN")
	}
	if l.Min > l.Max {
		return errors.Wrapf(ErrInvalidLimit, "%.2f > %.2f", l.Min, l.Max)
	}
	return nil
}

func (l Limit) String() string {
	return fmt.Sprintf("[%.2f, %.2f]", l.Min, l.Max)
}

// Joint is one rotational degree of freedom. Axis and Pivot are expressed in the reference frame
// of the whole chain at its rest pose, not in the frame of the parent joint.
type Joint struct {
	Name  string
	Axis  r3.Vector
	Pivot r3.Vector
	Limit Limit
	// Angle is the current rotation in degrees.
	Angle float64
}

// Validate checks the static geometry of the joint, reporting every problem found.
func (j Joint) Validate() error {
	var err error
	if j.Axis.Norm2() == 0 {
		err = multierr.Append(err, ErrZeroAxis)
	}
	if !spatialmath.R3VectorFinite(j.Axis) || !spatialmath.R3VectorFinite(j.Pivot) {
		err = multierr.Append(err, errors.New("axis and pivot must be finite"))
	}
	err = multierr.Append(err, j.Limit.Validate())
	if err != nil && j.Name != "" {
		return errors.Wrapf(err, "joint %q", j.Name)
	}
	return err
}

// setAngle stores value clamped into the limit. NaN leaves the angle untouched.
func (j *Joint) setAngle(value float64) {
	if math.IsNaN(value) {
		return
	}
	j.Angle = j.Limit.Clamp(value)
}

// Transform returns the rigid rotation of the joint by angle degrees about its axis through its pivot.
func (j Joint) Transform(angle float64) spatialmath.Pose {
	return spatialmath.NewPoseFromRotationAboutPoint(j.Axis, angle, j.Pivot)
}
