package cli

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestParseFloats(t *testing.T) {
	vals, err := parseFloats("1, 2.5,-3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vals, test.ShouldResemble, []float64{1, 2.5, -3})

	vals, err = parseFloats("  ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vals, test.ShouldBeNil)

	_, err = parseFloats("1,,2")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = parseFloats("1,x")
	test.That(t, err.Error(), test.ShouldContainSubstring, `"x"`)
}

func TestParseVector(t *testing.T) {
	v, err := parseVector("100,0,-20")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldResemble, r3.Vector{X: 100, Y: 0, Z: -20})

	_, err = parseVector("1,2")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFormat(t *testing.T) {
	test.That(t, formatVector(r3.Vector{X: 1, Y: -2.5, Z: 1e3}), test.ShouldEqual, "(1.000, -2.500, 1000.000)")
	test.That(t, formatAngles([]float64{0, 12.346, -90}), test.ShouldEqual, "0.00, 12.35, -90.00")
}
