package referenceframe

import (
	"github.com/pkg/errors"
)

var (
	// ErrIndexOutOfRange is returned when a joint index is outside the chain.
	ErrIndexOutOfRange = errors.New("joint index out of range")
	// ErrZeroAxis is returned when a joint is configured with a zero-length rotation axis.
	ErrZeroAxis = errors.New("cannot use zero vector as rotation axis")
	// ErrInvalidLimit is returned when a joint's lower limit exceeds its upper limit.
	ErrInvalidLimit = errors.New("joint limit min exceeds max")
	// ErrIncorrectDoF is returned when an angle vector does not have one entry per joint.
	ErrIncorrectDoF = errors.New("number of inputs does not match chain DoF")
	// ErrEmptyChain is returned when a chain is built without joints.
	ErrEmptyChain = errors.New("chain must have at least one joint")
)

// NewIncorrectDoFError returns an error indicating that the length of an angle vector does not
// match the number of joints.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Wrapf(ErrIncorrectDoF, "expected %d but got %d", expected, actual)
}

// NewIndexOutOfRangeError returns an error for a joint index outside 0..dof-1.
func NewIndexOutOfRangeError(index, dof int) error {
	return errors.Wrapf(ErrIndexOutOfRange, "index %d, chain has %d joints", index, dof)
}

// NewUnsupportedToolError is returned when a kinematics file names an unknown tool reference type.
func NewUnsupportedToolError(toolType string) error {
	return errors.Errorf("unsupported tool reference type %q, supported types are %q and %q",
		toolType, BoundsCornerTool, PointTool)
}
