package transform

import (
	"testing"

	"go.viam.com/test"
)

func TestBrownConradyZeroIsIdentity(t *testing.T) {
	bc, err := NewBrownConrady(nil)
	test.That(t, err, test.ShouldBeNil)
	x, y := bc.Transform(0.25, -0.75)
	test.That(t, x, test.ShouldAlmostEqual, 0.25)
	test.That(t, y, test.ShouldAlmostEqual, -0.75)
}

func TestBrownConradyRadial(t *testing.T) {
	bc, err := NewBrownConrady([]float64{0.1})
	test.That(t, err, test.ShouldBeNil)
	// r² = 0.05, so the radial factor is 1.005.
	x, y := bc.Transform(0.1, 0.2)
	test.That(t, x, test.ShouldAlmostEqual, 0.1*1.005, 1e-12)
	test.That(t, y, test.ShouldAlmostEqual, 0.2*1.005, 1e-12)
}

func TestBrownConradyOnAxis(t *testing.T) {
	bc, err := NewBrownConrady([]float64{-0.3, 0.1, 0, 0, 0.02})
	test.That(t, err, test.ShouldBeNil)
	x, y := bc.Transform(0, 0)
	test.That(t, x, test.ShouldAlmostEqual, 0)
	test.That(t, y, test.ShouldAlmostEqual, 0)
}

func TestBrownConradyUndistortInverts(t *testing.T) {
	bc, err := NewBrownConrady([]float64{-0.3, 0.1, 0.001, -0.002, 0.02})
	test.That(t, err, test.ShouldBeNil)
	for _, pt := range [][2]float64{{0, 0}, {0.1, 0.1}, {-0.2, 0.15}, {0.3, -0.3}} {
		xd, yd := bc.Transform(pt[0], pt[1])
		xu, yu := bc.Undistort(xd, yd)
		test.That(t, xu, test.ShouldAlmostEqual, pt[0], 1e-7)
		test.That(t, yu, test.ShouldAlmostEqual, pt[1], 1e-7)
	}
}

func TestBrownConradyParameters(t *testing.T) {
	inp := []float64{0.1, 0.05, 0.001, 0.002, -0.01}
	bc, err := NewBrownConrady(inp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bc.ModelType(), test.ShouldEqual, BrownConradyDistortionType)
	test.That(t, bc.CheckValid(), test.ShouldBeNil)

	params := bc.Parameters()
	test.That(t, len(params), test.ShouldEqual, 8)
	for i, v := range inp {
		test.That(t, params[i], test.ShouldEqual, v)
	}
	for _, v := range params[len(inp):] {
		test.That(t, v, test.ShouldEqual, 0)
	}
}

func TestBrownConradyTooManyParameters(t *testing.T) {
	_, err := NewBrownConrady(make([]float64, 9))
	test.That(t, err, test.ShouldNotBeNil)
}
