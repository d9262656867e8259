package kinematics

import (
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/armsim/armsim/referenceframe"
	"github.com/armsim/armsim/spatialmath"
)

func variantEngine(t *testing.T, name string) *Engine {
	t.Helper()
	c, err := referenceframe.Variant(name)
	test.That(t, err, test.ShouldBeNil)
	e, err := NewEngine(c.Geometry())
	test.That(t, err, test.ShouldBeNil)
	return e
}

func twoLinkEngine(t *testing.T) *Engine {
	t.Helper()
	joints := []referenceframe.Joint{
		{Name: "base", Axis: r3.Vector{Z: 1}, Limit: referenceframe.Limit{Min: -180, Max: 180}},
		{Name: "elbow", Axis: r3.Vector{Y: 1}, Pivot: r3.Vector{X: 100}, Limit: referenceframe.Limit{Min: -180, Max: 180}},
	}
	c, err := referenceframe.NewChain("two", joints, referenceframe.PointReference{Point: r3.Vector{X: 200}}, nil)
	test.That(t, err, test.ShouldBeNil)
	e, err := NewEngine(c.Geometry())
	test.That(t, err, test.ShouldBeNil)
	return e
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(nil)
	test.That(t, errors.Is(err, referenceframe.ErrEmptyChain), test.ShouldBeTrue)
	_, err = NewEngine(&referenceframe.Geometry{Joints: []referenceframe.Joint{{Axis: r3.Vector{Z: 1}}}})
	test.That(t, err, test.ShouldNotBeNil)

	// a hand-built geometry is checked like a chain
	c, err := referenceframe.Variant("irb6700")
	test.That(t, err, test.ShouldBeNil)
	g := c.Geometry()
	g.Joints[2].Axis = r3.Vector{}
	_, err = NewEngine(g)
	test.That(t, errors.Is(err, referenceframe.ErrZeroAxis), test.ShouldBeTrue)
	g.Joints[2].Axis = r3.Vector{Y: 1}
	g.Joints[4].Limit = referenceframe.Limit{Min: 10, Max: -10}
	_, err = NewEngine(g)
	test.That(t, errors.Is(err, referenceframe.ErrInvalidLimit), test.ShouldBeTrue)

	e := variantEngine(t, "irb6700")
	test.That(t, len(e.DoF()), test.ShouldEqual, 6)
	test.That(t, e.Geometry().Name, test.ShouldEqual, "irb6700")
}

func TestRestPose(t *testing.T) {
	for name, rest := range map[string]r3.Vector{
		"irb6700": {X: 2008, Y: -100, Z: 2025},
		"irb4600": {X: 1405, Y: -80, Z: 1685},
	} {
		t.Run(name, func(t *testing.T) {
			e := variantEngine(t, name)
			pose, err := e.Compute(make([]float64, 6))
			test.That(t, err, test.ShouldBeNil)
			test.That(t, pose.Tool, test.ShouldResemble, rest)
			for _, p := range pose.Joints {
				test.That(t, spatialmath.PoseAlmostEqual(p, spatialmath.NewZeroPose()), test.ShouldBeTrue)
			}
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	e := variantEngine(t, "irb6700")
	angles := []float64{12.5, -30, 44, 170, -100, 3}
	a, err := e.Compute(angles)
	test.That(t, err, test.ShouldBeNil)
	b, err := e.Compute(angles)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.Tool, test.ShouldResemble, b.Tool)
	test.That(t, a.Matrices(), test.ShouldResemble, b.Matrices())

	tool, err := e.ToolPosition(angles)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tool, test.ShouldResemble, a.Tool)

	// the input is not modified
	test.That(t, angles, test.ShouldResemble, []float64{12.5, -30, 44, 170, -100, 3})
}

func TestJointDependsOnlyOnAncestors(t *testing.T) {
	e := variantEngine(t, "irb6700")
	a, err := e.Compute([]float64{10, 20, 30, 0, 0, 0})
	test.That(t, err, test.ShouldBeNil)
	b, err := e.Compute([]float64{10, 20, 30, 40, 50, 60})
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 3; i++ {
		test.That(t, spatialmath.PoseAlmostEqual(a.Joints[i], b.Joints[i]), test.ShouldBeTrue)
	}
	test.That(t, spatialmath.PoseAlmostEqual(a.Joints[3], b.Joints[3]), test.ShouldBeFalse)
}

func TestCompositionOrder(t *testing.T) {
	e := twoLinkEngine(t)

	tool, err := e.ToolPosition([]float64{90, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(tool, r3.Vector{Y: 200}, 1e-9), test.ShouldBeTrue)

	// the elbow turns about its own pivot first, then the whole assembly turns about the base
	tool, err = e.ToolPosition([]float64{90, 90})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(tool, r3.Vector{Y: 100, Z: -100}, 1e-9), test.ShouldBeTrue)

	pose, err := e.Compute([]float64{90, 90})
	test.That(t, err, test.ShouldBeNil)
	elbow := spatialmath.TransformPoint(pose.Joints[1], r3.Vector{X: 100})
	test.That(t, spatialmath.R3VectorAlmostEqual(elbow, r3.Vector{Y: 100}, 1e-9), test.ShouldBeTrue)
}

func TestComputeWrongLength(t *testing.T) {
	e := variantEngine(t, "irb6700")
	for _, angles := range [][]float64{nil, make([]float64, 5), make([]float64, 7)} {
		_, err := e.Compute(angles)
		test.That(t, errors.Is(err, referenceframe.ErrIncorrectDoF), test.ShouldBeTrue)
		_, err = e.ToolPosition(angles)
		test.That(t, errors.Is(err, referenceframe.ErrIncorrectDoF), test.ShouldBeTrue)
	}
}

func TestAttachmentsAndMatrices(t *testing.T) {
	e := variantEngine(t, "irb4600")
	pose, err := e.Compute([]float64{15, -20, 25, 30, -35, 40})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, len(pose.Attachments), test.ShouldEqual, 4)
	test.That(t, pose.Attachments["cable2"], test.ShouldEqual, pose.Joints[1])
	test.That(t, pose.Attachments["logo"], test.ShouldEqual, pose.Joints[2])

	mats := pose.Matrices()
	test.That(t, len(mats), test.ShouldEqual, 6)
	for i, m := range mats {
		pt := pose.Joints[i].Point()
		test.That(t, m.At(0, 3), test.ShouldAlmostEqual, pt.X)
		test.That(t, m.At(1, 3), test.ShouldAlmostEqual, pt.Y)
		test.That(t, m.At(2, 3), test.ShouldAlmostEqual, pt.Z)
	}
}

func BenchmarkCompute(b *testing.B) {
	c, err := referenceframe.Variant("irb6700")
	if err != nil {
		b.Fatal(err)
	}
	e, err := NewEngine(c.Geometry())
	if err != nil {
		b.Fatal(err)
	}
	angles := []float64{10, 20, 30, 40, 50, 60}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := e.ToolPosition(angles); err != nil {
			b.Fatal(err)
		}
	}
}
