package camera

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/franioli/camgeo/transform"
)

func TestProjectPointsRejectsWrongWidth(t *testing.T) {
	cam, err := NewFromExtrinsics(1920, 1080, testIntrinsics(), nil, identity4())
	test.That(t, err, test.ShouldBeNil)

	_, err = cam.ProjectPoints(mat.NewDense(4, 2, nil))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, transform.ErrShape), test.ShouldBeTrue)

	_, err = cam.ProjectPoints(mat.NewDense(4, 4, nil))
	test.That(t, errors.Is(err, transform.ErrShape), test.ShouldBeTrue)
}

func TestProjectEmptyInput(t *testing.T) {
	cam, err := NewFromExtrinsics(1920, 1080, testIntrinsics(), nil, identity4())
	test.That(t, err, test.ShouldBeNil)

	out, err := cam.Project(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldNotBeNil)
	test.That(t, len(out), test.ShouldEqual, 0)
}

// noPoints is a 0x3 matrix; mat.NewDense cannot build one.
type noPoints struct{}

func (noPoints) Dims() (int, int)    { return 0, 3 }
func (noPoints) At(i, j int) float64 { return 0 }
func (noPoints) T() mat.Matrix       { return mat.Transpose{Matrix: noPoints{}} }

func TestProjectPointsEmptyInput(t *testing.T) {
	cam, err := NewFromExtrinsics(1920, 1080, testIntrinsics(), nil, identity4())
	test.That(t, err, test.ShouldBeNil)

	out, err := cam.ProjectPoints(noPoints{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldNotBeNil)
	test.That(t, out.IsEmpty(), test.ShouldBeTrue)
	rows, _ := out.Dims()
	test.That(t, rows, test.ShouldEqual, 0)
}

func TestProjectKnownPoints(t *testing.T) {
	cam, err := NewFromExtrinsics(1920, 1080, testIntrinsics(), nil, identity4())
	test.That(t, err, test.ShouldBeNil)

	out, err := cam.ProjectPoints(mat.NewDense(2, 3, []float64{
		0, 0, 5,
		1, 1, 10,
	}))
	test.That(t, err, test.ShouldBeNil)
	rows, cols := out.Dims()
	test.That(t, rows, test.ShouldEqual, 2)
	test.That(t, cols, test.ShouldEqual, 2)
	test.That(t, out.At(0, 0), test.ShouldAlmostEqual, 960, 1e-3)
	test.That(t, out.At(0, 1), test.ShouldAlmostEqual, 540, 1e-3)
	test.That(t, out.At(1, 0), test.ShouldAlmostEqual, 1060, 1e-3)
	test.That(t, out.At(1, 1), test.ShouldAlmostEqual, 640, 1e-3)
}

func TestProjectWithTranslation(t *testing.T) {
	cam, err := NewFromRotationTranslation(1920, 1080, testIntrinsics(), nil,
		mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}),
		mat.NewVecDense(3, []float64{0, 0, 5}))
	test.That(t, err, test.ShouldBeNil)

	// The world origin sits 5 units in front of the camera.
	out, err := cam.Project([]r3.Vector{{}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out[0].X, test.ShouldAlmostEqual, 960, 1e-3)
	test.That(t, out[0].Y, test.ShouldAlmostEqual, 540, 1e-3)
}

func TestProjectOnAxisUnaffectedByDistortion(t *testing.T) {
	cam, err := NewFromExtrinsics(1920, 1080, testIntrinsics(),
		[]float64{-0.3, 0.1, 0.001, -0.002, 0.02}, identity4())
	test.That(t, err, test.ShouldBeNil)

	out, err := cam.Project([]r3.Vector{{Z: 5}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out[0].X, test.ShouldAlmostEqual, 960, 1e-3)
	test.That(t, out[0].Y, test.ShouldAlmostEqual, 540, 1e-3)
}

func TestProjectNoIntrinsics(t *testing.T) {
	_, err := New(100, 100).Project([]r3.Vector{{Z: 1}})
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
}

func TestFactorPRecoversParameters(t *testing.T) {
	rot := transform.RodriguesToRotation(r3.Vector{X: 0.1, Y: 0.2, Z: 0.3})
	cam, err := NewFromRotationTranslation(1920, 1080, testIntrinsics(), nil,
		rot, mat.NewVecDense(3, []float64{4, -2, 1}))
	test.That(t, err, test.ShouldBeNil)

	kOut, rOut, tOut, err := cam.FactorP()
	test.That(t, err, test.ShouldBeNil)
	expectMatAlmostEqual(t, kOut, testIntrinsics(), 1e-6)
	expectMatAlmostEqual(t, rOut, rot, 1e-9)
	test.That(t, mat.Det(rOut), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, tOut.AtVec(0), test.ShouldAlmostEqual, 4, 1e-6)
	test.That(t, tOut.AtVec(1), test.ShouldAlmostEqual, -2, 1e-6)
	test.That(t, tOut.AtVec(2), test.ShouldAlmostEqual, 1, 1e-6)

	// Factoring must not mutate the camera.
	expectMatAlmostEqual(t, cam.Rotation(), rot, 1e-12)
}

func TestFactorPNoIntrinsics(t *testing.T) {
	_, _, _, err := New(100, 100).FactorP()
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
}
