package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// RotationToRodrigues converts a 3x3 rotation matrix to its axis-angle
// (Rodrigues) vector, whose direction is the rotation axis and whose norm is
// the rotation angle in radians.
func RotationToRodrigues(rot mat.Matrix) (r3.Vector, error) {
	r, c := rot.Dims()
	if r != 3 || c != 3 {
		return r3.Vector{}, errors.Wrapf(ErrShape, "rotation must be 3x3, got %dx%d", r, c)
	}

	trace := rot.At(0, 0) + rot.At(1, 1) + rot.At(2, 2)
	cosTheta := (trace - 1) / 2
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}
	theta := math.Acos(cosTheta)

	if theta < 1e-12 {
		return r3.Vector{}, nil
	}

	if math.Pi-theta < 1e-6 {
		// Near a half-turn the antisymmetric part vanishes, recover the axis
		// from the symmetric part (R + I)/2 = aa' instead.
		ax := math.Sqrt(math.Max(0, (rot.At(0, 0)+1)/2))
		ay := math.Sqrt(math.Max(0, (rot.At(1, 1)+1)/2))
		az := math.Sqrt(math.Max(0, (rot.At(2, 2)+1)/2))
		if rot.At(0, 1) < 0 {
			ay = -ay
		}
		if rot.At(0, 2) < 0 {
			az = -az
		}
		if ax == 0 && rot.At(1, 2) < 0 {
			az = -math.Abs(az)
		}
		axis := r3.Vector{X: ax, Y: ay, Z: az}.Normalize()
		return axis.Mul(theta), nil
	}

	scale := theta / (2 * math.Sin(theta))
	return r3.Vector{
		X: (rot.At(2, 1) - rot.At(1, 2)) * scale,
		Y: (rot.At(0, 2) - rot.At(2, 0)) * scale,
		Z: (rot.At(1, 0) - rot.At(0, 1)) * scale,
	}, nil
}

// RodriguesToRotation converts an axis-angle (Rodrigues) vector to the
// corresponding 3x3 rotation matrix.
func RodriguesToRotation(rvec r3.Vector) *mat.Dense {
	theta := rvec.Norm()
	if theta < 1e-12 {
		rot := mat.NewDense(3, 3, nil)
		rot.Set(0, 0, 1)
		rot.Set(1, 1, 1)
		rot.Set(2, 2, 1)
		return rot
	}
	axis := rvec.Mul(1 / theta)

	cosT := math.Cos(theta)
	sinT := math.Sin(theta)
	oneMinus := 1 - cosT
	x, y, z := axis.X, axis.Y, axis.Z

	return mat.NewDense(3, 3, []float64{
		cosT + x*x*oneMinus, x*y*oneMinus - z*sinT, x*z*oneMinus + y*sinT,
		y*x*oneMinus + z*sinT, cosT + y*y*oneMinus, y*z*oneMinus - x*sinT,
		z*x*oneMinus - y*sinT, z*y*oneMinus + x*sinT, cosT + z*z*oneMinus,
	})
}
