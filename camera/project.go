package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/franioli/camgeo/transform"
)

// Project maps 3D world points onto the image plane through the camera's
// current projection matrix and distortion model. Results are truncated to
// single precision, matching the fidelity contract of the lens projector.
// An empty input yields an empty, non-nil output.
func (c *Camera) Project(points []r3.Vector) ([]r2.Point, error) {
	if c.k == nil {
		return nil, ErrNoIntrinsics
	}
	rvec, err := transform.RotationToRodrigues(c.Rotation())
	if err != nil {
		return nil, err
	}
	t := c.Translation()
	tvec := r3.Vector{X: t.AtVec(0), Y: t.AtVec(1), Z: t.AtVec(2)}

	projected, err := c.projector.Project(rvec, tvec, c.k, c.dist, points)
	if err != nil {
		return nil, err
	}
	out := make([]r2.Point, len(projected))
	for i, p := range projected {
		out[i] = r2.Point{X: float64(float32(p.X)), Y: float64(float32(p.Y))}
	}
	return out, nil
}

// ProjectPoints is the matrix form of Project: points3d must be an nx3
// matrix of world points and the result is the nx2 matrix of pixel
// coordinates. A matrix with any other column count yields
// transform.ErrShape. A zero-row input returns a non-nil empty matrix;
// mat.Dense cannot represent a 0x2 shape, so the empty result has zero
// dimensions.
func (c *Camera) ProjectPoints(points3d mat.Matrix) (*mat.Dense, error) {
	rows, cols := points3d.Dims()
	if cols != 3 {
		return nil, errors.Wrapf(transform.ErrShape, "expected an nx3 point array, got %dx%d", rows, cols)
	}
	pts := make([]r3.Vector, rows)
	for i := 0; i < rows; i++ {
		pts[i] = r3.Vector{X: points3d.At(i, 0), Y: points3d.At(i, 1), Z: points3d.At(i, 2)}
	}
	projected, err := c.Project(pts)
	if err != nil {
		return nil, err
	}
	if len(projected) == 0 {
		return &mat.Dense{}, nil
	}
	out := mat.NewDense(len(projected), 2, nil)
	for i, p := range projected {
		out.Set(i, 0, p.X)
		out.Set(i, 1, p.Y)
	}
	return out, nil
}

// FactorP factors the camera's current projection matrix P = K[R|t] into a
// fresh (K, R, t) triple via RQ decomposition with the positive-diagonal
// convention. The camera itself is not mutated. No distortion information is
// recovered, since P encodes only the linear pinhole model.
func (c *Camera) FactorP() (*mat.Dense, *mat.Dense, *mat.VecDense, error) {
	p, err := c.ProjectionMatrix()
	if err != nil {
		return nil, nil, nil, err
	}
	return transform.FactorProjectionMatrix(p)
}
