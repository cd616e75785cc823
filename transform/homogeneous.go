// Package transform provides the pure geometry underlying a calibrated
// pinhole camera: homogeneous-block construction, conversions between the
// world-to-camera extrinsics matrix and the camera-to-world pose matrix,
// Euler angle extraction, Rodrigues conversions, lens distortion models and
// projection-matrix factorization.
package transform

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when a matrix or vector argument does not have the
// dimensions an operation requires. Callers can test for it with errors.Is.
var ErrShape = errors.New("invalid matrix shape")

// ErrDimension is returned when caller-supplied blocks cannot be assembled
// because their dimensions do not agree.
var ErrDimension = errors.New("dimension mismatch")

// Homogenize embeds a 3x3 rotation block or a 3x1 translation block into a
// 4x4 homogeneous matrix. A rotation block R becomes [[R, 0], [0 0 0 1]], a
// translation block t becomes [[I, t], [0 0 0 1]]. Any other input shape is
// a programming error and yields ErrShape.
func Homogenize(block mat.Matrix) (*mat.Dense, error) {
	r, c := block.Dims()
	switch {
	case r == 3 && c == 3:
		return homogenizeRotation(block), nil
	case r == 3 && c == 1:
		return homogenizeTranslation(block), nil
	default:
		return nil, errors.Wrapf(ErrShape, "cannot homogenize a %dx%d block, expected 3x3 or 3x1", r, c)
	}
}

func homogenizeRotation(block mat.Matrix) *mat.Dense {
	out := identity4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, block.At(i, j))
		}
	}
	return out
}

func homogenizeTranslation(block mat.Matrix) *mat.Dense {
	out := identity4()
	for i := 0; i < 3; i++ {
		out.Set(i, 3, block.At(i, 0))
	}
	return out
}

func identity4() *mat.Dense {
	out := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		out.Set(i, i, 1)
	}
	return out
}

// ExtrinsicsToPose converts a 4x4 world-to-camera extrinsics matrix into the
// 4x4 camera-to-world pose matrix [[R', C], [0 0 0 1]] with C = -R'·t.
// The translation block is applied after the rotation block.
func ExtrinsicsToPose(extrinsics mat.Matrix) *mat.Dense {
	e := mat.DenseCopyOf(extrinsics)
	rot := e.Slice(0, 3, 0, 3)
	t := e.Slice(0, 3, 3, 4)

	var center mat.Dense
	center.Mul(rot.T(), t)
	center.Scale(-1, &center)

	var pose mat.Dense
	pose.Mul(homogenizeTranslation(&center), homogenizeRotation(rot.T()))
	return &pose
}

// PoseToExtrinsics converts a 4x4 camera-to-world pose matrix back into the
// 4x4 world-to-camera extrinsics matrix [[Rc', t], [0 0 0 1]] with
// t = -Rc'·C.
func PoseToExtrinsics(pose mat.Matrix) *mat.Dense {
	p := mat.DenseCopyOf(pose)
	rotCam := p.Slice(0, 3, 0, 3)
	center := p.Slice(0, 3, 3, 4)

	var t mat.Dense
	t.Mul(rotCam.T(), center)
	t.Scale(-1, &t)

	var extrinsics mat.Dense
	extrinsics.Mul(homogenizeTranslation(&t), homogenizeRotation(rotCam.T()))
	return &extrinsics
}

// RtToExtrinsics composes a 4x4 extrinsics matrix from a 3x3 rotation matrix
// and a translation vector. The translation is accepted as a 3x1 column, a
// 1x3 row, or any mat.Matrix holding exactly 3 elements in one dimension,
// and is normalized to a column before composing.
func RtToExtrinsics(rot, t mat.Matrix) (*mat.Dense, error) {
	tCol, err := normalizeTranslation(t)
	if err != nil {
		return nil, err
	}
	r, c := rot.Dims()
	if r != 3 || c != 3 {
		return nil, errors.Wrapf(ErrShape, "rotation must be 3x3, got %dx%d", r, c)
	}

	var extrinsics mat.Dense
	extrinsics.Mul(homogenizeTranslation(tCol), homogenizeRotation(rot))
	return &extrinsics, nil
}

func normalizeTranslation(t mat.Matrix) (*mat.Dense, error) {
	r, c := t.Dims()
	switch {
	case r == 3 && c == 1:
		return mat.DenseCopyOf(t), nil
	case r == 1 && c == 3:
		return mat.NewDense(3, 1, []float64{t.At(0, 0), t.At(0, 1), t.At(0, 2)}), nil
	default:
		return nil, errors.Wrapf(ErrShape, "translation must hold 3 elements, got %dx%d", r, c)
	}
}

// BuildPoseMatrix assembles the 4x4 pose matrix [[R, C], [0 0 0 1]] from a
// 3x3 camera-to-world rotation and the camera center C.
func BuildPoseMatrix(rot, center mat.Matrix) (*mat.Dense, error) {
	r, c := rot.Dims()
	if r != 3 || c != 3 {
		return nil, errors.Wrapf(ErrDimension, "rotation must be a 3x3 matrix, got %dx%d", r, c)
	}
	cCol, err := normalizeTranslation(center)
	if err != nil {
		cr, cc := center.Dims()
		return nil, errors.Wrapf(ErrDimension, "camera center must be a 3x1 or 1x3 vector, got %dx%d", cr, cc)
	}

	pose := identity4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			pose.Set(i, j, rot.At(i, j))
		}
		pose.Set(i, 3, cCol.At(i, 0))
	}
	return pose, nil
}

// EulerFromRotation extracts the (omega, phi, kappa) Euler angles in radians
// from a 3x3 rotation matrix, following the photogrammetric convention:
//
//	omega = atan2(R21, R22)
//	phi   = atan2(-R20, sqrt(R21² + R22²))
//	kappa = atan2(R10, R00)
func EulerFromRotation(rot mat.Matrix) (omega, phi, kappa float64) {
	omega = math.Atan2(rot.At(2, 1), rot.At(2, 2))
	phi = math.Atan2(-rot.At(2, 0), math.Hypot(rot.At(2, 1), rot.At(2, 2)))
	kappa = math.Atan2(rot.At(1, 0), rot.At(0, 0))
	return omega, phi, kappa
}
