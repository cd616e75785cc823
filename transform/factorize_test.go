package transform

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func testIntrinsics() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1000, 0, 960,
		0, 1000, 540,
		0, 0, 1,
	})
}

func projectionFor(k, rot *mat.Dense, t []float64) *mat.Dense {
	rt := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rt.Set(i, j, rot.At(i, j))
		}
		rt.Set(i, 3, t[i])
	}
	var p mat.Dense
	p.Mul(k, rt)
	return &p
}

func TestRQRecompose(t *testing.T) {
	k := mat.NewDense(3, 3, []float64{
		1000, 2.5, 960,
		0, 980, 540,
		0, 0, 1,
	})
	rot := RodriguesToRotation(r3.Vector{X: 0.1, Y: -0.3, Z: 0.2})
	var m mat.Dense
	m.Mul(k, rot)

	k0, r0, err := GonumRQ{}.RQ(&m)
	test.That(t, err, test.ShouldBeNil)

	// K upper triangular.
	test.That(t, k0.At(1, 0), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, k0.At(2, 0), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, k0.At(2, 1), test.ShouldAlmostEqual, 0, 1e-9)

	// R orthogonal.
	var rtr mat.Dense
	rtr.Mul(r0.T(), r0)
	expectMatAlmostEqual(t, &rtr, mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), 1e-9)

	// K·R reproduces the input.
	var recomposed mat.Dense
	recomposed.Mul(k0, r0)
	expectMatAlmostEqual(t, &recomposed, &m, 1e-6)
}

func TestRQBadShape(t *testing.T) {
	_, _, err := GonumRQ{}.RQ(mat.NewDense(3, 4, nil))
	test.That(t, errors.Is(err, ErrShape), test.ShouldBeTrue)
}

func TestFactorProjectionMatrixRecovery(t *testing.T) {
	k := testIntrinsics()
	rot := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	p := projectionFor(k, rot, []float64{0, 0, 5})

	kOut, rOut, tOut, err := FactorProjectionMatrix(p)
	test.That(t, err, test.ShouldBeNil)
	expectMatAlmostEqual(t, kOut, k, 1e-6)
	test.That(t, kOut.At(0, 0) > 0, test.ShouldBeTrue)
	test.That(t, kOut.At(1, 1) > 0, test.ShouldBeTrue)
	test.That(t, kOut.At(2, 2) > 0, test.ShouldBeTrue)
	test.That(t, mat.Det(rOut), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, tOut.AtVec(0), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, tOut.AtVec(1), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, tOut.AtVec(2), test.ShouldAlmostEqual, 5, 1e-6)
}

func TestFactorProjectionMatrixRotatedCamera(t *testing.T) {
	k := testIntrinsics()
	rot := RodriguesToRotation(r3.Vector{X: 0.1, Y: 0.2, Z: 0.3})
	p := projectionFor(k, rot, []float64{4, -2, 1})

	kOut, rOut, tOut, err := FactorProjectionMatrix(p)
	test.That(t, err, test.ShouldBeNil)
	expectMatAlmostEqual(t, kOut, k, 1e-6)
	expectMatAlmostEqual(t, rOut, rot, 1e-9)
	test.That(t, tOut.AtVec(0), test.ShouldAlmostEqual, 4, 1e-6)
	test.That(t, tOut.AtVec(1), test.ShouldAlmostEqual, -2, 1e-6)
	test.That(t, tOut.AtVec(2), test.ShouldAlmostEqual, 1, 1e-6)
}

func TestFactorProjectionMatrixBadShape(t *testing.T) {
	_, _, _, err := FactorProjectionMatrix(mat.NewDense(3, 3, nil))
	test.That(t, errors.Is(err, ErrShape), test.ShouldBeTrue)
}

func TestFactorProjectionMatrixSingular(t *testing.T) {
	// A zero first row collapses a column of the RQ factor; the
	// factorization must fail rather than silently zero K.
	p := mat.NewDense(3, 4, []float64{
		0, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 1,
	})
	_, _, _, err := FactorProjectionMatrix(p)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrSingular), test.ShouldBeTrue)
}

type fakeRQ struct {
	k, r *mat.Dense
}

func (f fakeRQ) RQ(mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	return f.k, f.r, nil
}

func TestFactorSignNormalization(t *testing.T) {
	// A negative fx flips the sign matrix; with det(T) < 0 the second
	// diagonal entry is flipped back so that det(T) stays +1.
	dec := fakeRQ{
		k: mat.NewDense(3, 3, []float64{-2, 0, 0, 0, 3, 0, 0, 0, 1}),
		r: mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}),
	}
	p := mat.NewDense(3, 4, []float64{
		-2, 0, 0, 0,
		0, 3, 0, 0,
		0, 0, 1, 0,
	})
	kOut, rOut, _, err := FactorProjectionMatrixUsing(dec, p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kOut.At(0, 0), test.ShouldAlmostEqual, 2)
	test.That(t, kOut.At(1, 1), test.ShouldAlmostEqual, -3)
	test.That(t, kOut.At(2, 2), test.ShouldAlmostEqual, 1)
	test.That(t, mat.Det(rOut), test.ShouldAlmostEqual, 1, 1e-12)
}
