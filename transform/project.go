package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LensProjector maps 3D world points to 2D image coordinates given the
// camera exterior orientation as a Rodrigues vector and translation, the
// intrinsic matrix and the distortion coefficients. Implementations own the
// nonlinear perspective and distortion math.
type LensProjector interface {
	Project(rvec, tvec r3.Vector, k *mat.Dense, dist []float64, points []r3.Vector) ([]r2.Point, error)
}

// OpenCVLensProjector projects points through the full OpenCV pinhole model:
// rigid transform, perspective division, Brown-Conrady distortion on the
// normalized coordinates, then the intrinsic matrix.
type OpenCVLensProjector struct{}

// Project implements LensProjector.
func (OpenCVLensProjector) Project(rvec, tvec r3.Vector, k *mat.Dense, dist []float64, points []r3.Vector) ([]r2.Point, error) {
	if k == nil {
		return nil, errors.New("intrinsic matrix is required for projection")
	}
	if rows, cols := k.Dims(); rows != 3 || cols != 3 {
		return nil, errors.Wrapf(ErrShape, "intrinsic matrix must be 3x3, got %dx%d", rows, cols)
	}
	distorter, err := NewBrownConrady(dist)
	if err != nil {
		return nil, err
	}
	rot := RodriguesToRotation(rvec)

	out := make([]r2.Point, 0, len(points))
	for i, pt := range points {
		camX := rot.At(0, 0)*pt.X + rot.At(0, 1)*pt.Y + rot.At(0, 2)*pt.Z + tvec.X
		camY := rot.At(1, 0)*pt.X + rot.At(1, 1)*pt.Y + rot.At(1, 2)*pt.Z + tvec.Y
		camZ := rot.At(2, 0)*pt.X + rot.At(2, 1)*pt.Y + rot.At(2, 2)*pt.Z + tvec.Z
		if camZ == 0 {
			return nil, errors.Errorf("point %d lies on the camera plane, cannot project", i)
		}

		xd, yd := distorter.Transform(camX/camZ, camY/camZ)
		out = append(out, r2.Point{
			X: k.At(0, 0)*xd + k.At(0, 1)*yd + k.At(0, 2),
			Y: k.At(1, 1)*yd + k.At(1, 2),
		})
	}
	return out, nil
}
