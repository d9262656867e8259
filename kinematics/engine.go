// Package kinematics computes forward kinematics for serial chains of rotational joints.
//
// Every joint's axis and pivot are given in the reference frame at the rest pose, so a joint's world
// transform is its own rotation about its pivot followed by the world transform of its parent. There
// is no per-link offset step as in a Denavit-Hartenberg chain.
package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/armsim/armsim/referenceframe"
	"github.com/armsim/armsim/spatialmath"
)

// ChainPose is the result of one forward kinematics evaluation. It is never cached: every evaluation
// returns a new ChainPose.
type ChainPose struct {
	// Joints holds the world transform of each joint, base first.
	Joints []spatialmath.Pose
	// Tool is the tool position picked by the chain's tool reference.
	Tool r3.Vector
	// Attachments maps each attachment name to the world transform of the joint it rides on.
	Attachments map[string]spatialmath.Pose
}

// Matrices returns the joint transforms as column-major 4x4 matrices for a renderer.
func (p *ChainPose) Matrices() []mgl64.Mat4 {
	mats := make([]mgl64.Mat4, 0, len(p.Joints))
	for _, pose := range p.Joints {
		mats = append(mats, spatialmath.PoseToMat4(pose))
	}
	return mats
}

// Engine evaluates forward kinematics over a fixed chain geometry. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	geometry *referenceframe.Geometry
}

// NewEngine returns an engine for the given geometry snapshot.
func NewEngine(geometry *referenceframe.Geometry) (*Engine, error) {
	if geometry == nil || len(geometry.Joints) == 0 {
		return nil, referenceframe.ErrEmptyChain
	}
	var err error
	if geometry.Tool == nil {
		err = multierr.Append(err, errors.New("geometry has no tool reference"))
	}
	for i, j := range geometry.Joints {
		if jErr := j.Validate(); jErr != nil {
			err = multierr.Append(err, errors.Wrapf(jErr, "joint %d", i))
		}
	}
	if err != nil {
		return nil, err
	}
	return &Engine{geometry: geometry}, nil
}

// Geometry returns the geometry the engine evaluates.
func (e *Engine) Geometry() *referenceframe.Geometry {
	return e.geometry
}

// DoF returns the joint limits of the chain.
func (e *Engine) DoF() []referenceframe.Limit {
	return e.geometry.DoF()
}

// Compute returns the world transform of every joint and attachment and the tool position for the
// given angles in degrees. Angles are used as given, without clamping.
func (e *Engine) Compute(angles []float64) (*ChainPose, error) {
	joints, err := e.jointPoses(angles)
	if err != nil {
		return nil, err
	}
	attachments := make(map[string]spatialmath.Pose, len(e.geometry.Attachments))
	for _, a := range e.geometry.Attachments {
		attachments[a.Name] = joints[a.Joint]
	}
	return &ChainPose{
		Joints:      joints,
		Tool:        e.geometry.Tool.ToolPoint(joints[len(joints)-1]),
		Attachments: attachments,
	}, nil
}

// ToolPosition returns only the tool position for the given angles.
func (e *Engine) ToolPosition(angles []float64) (r3.Vector, error) {
	joints, err := e.jointPoses(angles)
	if err != nil {
		return r3.Vector{}, err
	}
	return e.geometry.Tool.ToolPoint(joints[len(joints)-1]), nil
}

// jointPoses composes each joint's local rotation with the world transform of its parent, base to tip.
func (e *Engine) jointPoses(angles []float64) ([]spatialmath.Pose, error) {
	if len(angles) != len(e.geometry.Joints) {
		return nil, referenceframe.NewIncorrectDoFError(len(angles), len(e.geometry.Joints))
	}
	poses := make([]spatialmath.Pose, 0, len(angles))
	world := spatialmath.NewZeroPose()
	for i, joint := range e.geometry.Joints {
		world = spatialmath.Compose(world, joint.Transform(angles[i]))
		poses = append(poses, world)
	}
	return poses, nil
}
