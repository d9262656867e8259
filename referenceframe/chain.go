package referenceframe

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
)

// Chain is a strictly serial sequence of rotational joints, index 0 being nearest the base. It owns
// the current joint angles and guarantees every stored angle lies within its joint's limit.
// A Chain is safe for concurrent use.
type Chain struct {
	name        string
	tool        ToolReference
	attachments []Attachment

	mu     sync.RWMutex
	joints []Joint
}

// Geometry is an immutable snapshot of the static part of a chain: joint axes, pivots and limits,
// the tool reference and the attachments. Joint angles in the snapshot are not used for kinematics.
type Geometry struct {
	Name        string
	Joints      []Joint
	Tool        ToolReference
	Attachments []Attachment
}

// DoF returns the limits of every joint of the snapshot.
func (g *Geometry) DoF() []Limit {
	limits := make([]Limit, 0, len(g.Joints))
	for _, j := range g.Joints {
		limits = append(limits, j.Limit)
	}
	return limits
}

// NewChain validates the joints and builds a chain from them. Initial angles outside a joint's limit
// are clamped.
func NewChain(name string, joints []Joint, tool ToolReference, attachments []Attachment) (*Chain, error) {
	if len(joints) == 0 {
		return nil, ErrEmptyChain
	}
	var err error
	if tool == nil {
		err = multierr.Append(err, errors.New("chain needs a tool reference"))
	}
	for i, j := range joints {
		if jErr := j.Validate(); jErr != nil {
			err = multierr.Append(err, errors.Wrapf(jErr, "joint %d", i))
		}
	}
	for _, a := range attachments {
		if a.Joint < 0 || a.Joint >= len(joints) {
			err = multierr.Append(err, errors.Wrapf(NewIndexOutOfRangeError(a.Joint, len(joints)), "attachment %q", a.Name))
		}
	}
	if err != nil {
		return nil, err
	}

	c := &Chain{
		name:        name,
		tool:        tool,
		attachments: append([]Attachment(nil), attachments...),
		joints:      append([]Joint(nil), joints...),
	}
	for i := range c.joints {
		if math.IsNaN(c.joints[i].Angle) {
			c.joints[i].Angle = 0
		}
		c.joints[i].setAngle(c.joints[i].Angle)
	}
	return c, nil
}

// Name returns the name of the chain.
func (c *Chain) Name() string {
	return c.name
}

// Len returns the number of joints.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.joints)
}

// DoF returns the limits of every joint, in order.
func (c *Chain) DoF() []Limit {
	return c.Geometry().DoF()
}

// Joint returns a copy of joint i.
func (c *Chain) Joint(i int) (Joint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.joints) {
		return Joint{}, NewIndexOutOfRangeError(i, len(c.joints))
	}
	return c.joints[i], nil
}

// SetAngle stores value, clamped into the joint's limit, as the angle of joint i. An out of range
// value is never an error; only an out of range index is.
func (c *Chain) SetAngle(i int, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.joints) {
		return NewIndexOutOfRangeError(i, len(c.joints))
	}
	c.joints[i].setAngle(value)
	return nil
}

// SetAngles sets every joint angle at once, clamping each. Readers never observe a partially
// applied vector.
func (c *Chain) SetAngles(angles []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(angles) != len(c.joints) {
		return NewIncorrectDoFError(len(angles), len(c.joints))
	}
	for i, a := range angles {
		c.joints[i].setAngle(a)
	}
	return nil
}

// Angles returns a copy of the current joint angles.
func (c *Chain) Angles() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	angles := make([]float64, 0, len(c.joints))
	for _, j := range c.joints {
		angles = append(angles, j.Angle)
	}
	return angles
}

// Configure replaces the static geometry of joint i. The current angle is re-clamped into the new
// limit. The joint is left unchanged if the new geometry is invalid.
func (c *Chain) Configure(i int, axis, pivot r3.Vector, minAngle, maxAngle float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.joints) {
		return NewIndexOutOfRangeError(i, len(c.joints))
	}
	j := c.joints[i]
	j.Axis = axis
	j.Pivot = pivot
	j.Limit = Limit{Min: minAngle, Max: maxAngle}
	if err := j.Validate(); err != nil {
		return err
	}
	j.setAngle(j.Angle)
	c.joints[i] = j
	return nil
}

// Geometry returns a snapshot of the chain's static geometry.
func (c *Chain) Geometry() *Geometry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Geometry{
		Name:        c.name,
		Joints:      append([]Joint(nil), c.joints...),
		Tool:        c.tool,
		Attachments: append([]Attachment(nil), c.attachments...),
	}
}

// String prints out a table of each joint, with columns of name, axis, pivot, limit and angle.
func (c *Chain) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t := table.NewWriter()
	t.SetTitle(c.name)
	t.AppendHeader(table.Row{"#", "Name", "Axis", "Pivot", "Limit", "Angle"})
	for i, j := range c.joints {
		t.AppendRow([]interface{}{
			fmt.Sprintf("%d", i),
			j.Name,
			fmt.Sprintf("X:%.2f, Y:%.2f, Z:%.2f", j.Axis.X, j.Axis.Y, j.Axis.Z),
			fmt.Sprintf("X:%.0f, Y:%.0f, Z:%.0f", j.Pivot.X, j.Pivot.Y, j.Pivot.Z),
			j.Limit.String(),
			fmt.Sprintf("%.2f", j.Angle),
		})
	}
	return t.Render()
}

// AnglesL2Distance returns the L2 norm of the difference between two angle vectors, or +Inf if
// their lengths differ.
func AnglesL2Distance(from, to []float64) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	diff := make([]float64, len(from))
	// 2 is the L value returning a standard L2 Normalization
	return floats.Norm(floats.SubTo(diff, from, to), 2)
}

// ClampAngles returns a copy of angles with each entry clamped into the matching limit.
func ClampAngles(angles []float64, limits []Limit) ([]float64, error) {
	if len(angles) != len(limits) {
		return nil, NewIncorrectDoFError(len(angles), len(limits))
	}
	out := make([]float64, len(angles))
	for i, a := range angles {
		out[i] = limits[i].Clamp(a)
	}
	return out, nil
}
