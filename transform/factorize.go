package transform

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a projection matrix cannot be factored
// because its intrinsic part is singular.
var ErrSingular = errors.New("singular camera matrix")

// RQDecomposer factors a 3x3 matrix M into an upper-triangular K and an
// orthogonal R such that K·R = M. The default implementation is GonumRQ;
// the interface exists so the factorization can be exercised against fakes.
type RQDecomposer interface {
	RQ(m mat.Matrix) (k, r *mat.Dense, err error)
}

// GonumRQ computes an RQ decomposition on top of gonum's QR factorization,
// using the row/column reversal identity RQ(M) = flip(QR(flip(M)')).
type GonumRQ struct{}

// RQ implements RQDecomposer.
func (GonumRQ) RQ(m mat.Matrix) (*mat.Dense, *mat.Dense, error) {
	rows, cols := m.Dims()
	if rows != 3 || cols != 3 {
		return nil, nil, errors.Wrapf(ErrShape, "RQ decomposition expects a 3x3 matrix, got %dx%d", rows, cols)
	}

	var flipped mat.Dense
	flipped.CloneFrom(flipRows(m).T())

	var qr mat.QR
	qr.Factorize(&flipped)
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	var k mat.Dense
	k.CloneFrom(flipCols(flipRows(r.T())))
	var rot mat.Dense
	rot.CloneFrom(flipRows(q.T()))
	return &k, &rot, nil
}

func flipRows(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.At(rows-1-i, j))
		}
	}
	return out
}

func flipCols(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.At(i, cols-1-j))
		}
	}
	return out
}

// FactorProjectionMatrix factors a 3x4 projection matrix P = K[R|t] into
// the intrinsic matrix K (upper triangular, diagonal signs normalized so R
// is proper, det +1) and the translation t, using the default RQ decomposer.
func FactorProjectionMatrix(p mat.Matrix) (*mat.Dense, *mat.Dense, *mat.VecDense, error) {
	return FactorProjectionMatrixUsing(GonumRQ{}, p)
}

// FactorProjectionMatrixUsing factors P with the provided RQ decomposer.
// A zero on the diagonal of the raw RQ factor means the pinhole model is
// degenerate and yields ErrSingular rather than a silently zeroed column.
func FactorProjectionMatrixUsing(dec RQDecomposer, p mat.Matrix) (*mat.Dense, *mat.Dense, *mat.VecDense, error) {
	rows, cols := p.Dims()
	if rows != 3 || cols != 4 {
		return nil, nil, nil, errors.Wrapf(ErrShape, "projection matrix must be 3x4, got %dx%d", rows, cols)
	}
	pd := mat.DenseCopyOf(p)

	k0, r0, err := dec.RQ(pd.Slice(0, 3, 0, 3))
	if err != nil {
		return nil, nil, nil, err
	}

	// Normalize signs so K ends with a positive diagonal while R stays a
	// proper rotation. T is diagonal with entries ±1 and is its own inverse.
	signs := mat.NewDense(3, 3, nil)
	det := 1.0
	for i := 0; i < 3; i++ {
		d := k0.At(i, i)
		if d == 0 {
			return nil, nil, nil, errors.Wrapf(ErrSingular, "zero diagonal entry %d in RQ factor", i)
		}
		s := 1.0
		if d < 0 {
			s = -1.0
		}
		signs.Set(i, i, s)
		det *= s
	}
	if det < 0 {
		signs.Set(1, 1, -signs.At(1, 1))
	}

	var k, rot mat.Dense
	k.Mul(k0, signs)
	rot.Mul(signs, r0)

	t := mat.NewVecDense(3, nil)
	p4 := mat.NewVecDense(3, []float64{pd.At(0, 3), pd.At(1, 3), pd.At(2, 3)})
	if err := t.SolveVec(&k, p4); err != nil {
		return nil, nil, nil, errors.Wrap(ErrSingular, "cannot invert intrinsic matrix")
	}

	return &k, &rot, t, nil
}
