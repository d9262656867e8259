// Package arm defines the arm that a robot uses to manipulate objects.
package arm

import (
	"context"

	"github.com/golang/geo/r3"

	"github.com/armsim/armsim/kinematics"
	"github.com/armsim/armsim/motionplan/ik"
)

// An Arm represents a serial chain of rotational joints ending in a tool.
type Arm interface {
	// EndPosition returns the current tool position.
	EndPosition(ctx context.Context) (r3.Vector, error)

	// JointPositions returns the current joint angles in degrees.
	JointPositions(ctx context.Context) ([]float64, error)

	// JointPoses returns the world transform of every joint and attachment for the current angles.
	JointPoses(ctx context.Context) (*kinematics.ChainPose, error)

	// MoveToJointPositions sets every joint angle, clamping each into its limit.
	MoveToJointPositions(ctx context.Context, positions []float64) error

	// MoveToPoint searches for joint angles that bring the tool to target and blocks until the
	// search ends. The returned status tells whether the target was reached.
	MoveToPoint(ctx context.Context, target r3.Vector) (ik.Status, error)

	// IsMoving reports whether a search is in progress.
	IsMoving(ctx context.Context) (bool, error)

	// Stop cancels any search in progress. The current angles are kept.
	Stop(ctx context.Context) error

	// Close stops the arm and releases its resources.
	Close(ctx context.Context) error
}
