// Package camera implements a calibrated pinhole camera: intrinsics,
// distortion and exterior orientation, with derived views (pose, rotation,
// translation, camera center, Euler angles, projection matrix) that are
// recomputed on access so they can never go stale.
//
// All fields are unexported to guarantee consistency between the different
// expressions of the exterior orientation. UpdateExtrinsics is the only way
// to change the exterior orientation; to update from a pose matrix or from
// R and t, compose the extrinsics matrix first with transform.PoseToExtrinsics
// or transform.RtToExtrinsics.
package camera

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/franioli/camgeo/calibration"
	"github.com/franioli/camgeo/transform"
)

// ErrNoIntrinsics is returned when an operation needs intrinsic parameters
// the camera does not have.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// ErrInvalidExtrinsics is returned when an extrinsics update does not carry
// a 4x4 homogeneous world-to-camera transform.
var ErrInvalidExtrinsics = errors.New("invalid extrinsics matrix")

// Camera is a pinhole camera with optional intrinsics and distortion and a
// world-to-camera exterior orientation. A Camera is owned by a single
// goroutine; clone or synchronize externally for concurrent mutation.
type Camera struct {
	width, height int
	k             *mat.Dense
	dist          []float64
	extrinsics    *mat.Dense
	projector     transform.LensProjector
}

// New returns a camera with the given pixel dimensions, no intrinsics and an
// identity exterior orientation (camera frame parallel to the world frame).
func New(width, height int) *Camera {
	c := &Camera{
		width:     width,
		height:    height,
		projector: transform.OpenCVLensProjector{},
	}
	c.ResetOrientation()
	return c
}

// NewFromExtrinsics returns a camera with the given intrinsics, distortion
// and 4x4 world-to-camera extrinsics matrix.
func NewFromExtrinsics(width, height int, k *mat.Dense, dist []float64, extrinsics *mat.Dense) (*Camera, error) {
	c := New(width, height)
	c.UpdateIntrinsics(k)
	c.UpdateDistortion(dist)
	if err := c.UpdateExtrinsics(extrinsics); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromRotationTranslation returns a camera whose exterior orientation is
// composed from a 3x3 world-to-camera rotation and a translation vector.
func NewFromRotationTranslation(width, height int, k *mat.Dense, dist []float64, rot, t mat.Matrix) (*Camera, error) {
	extrinsics, err := transform.RtToExtrinsics(rot, t)
	if err != nil {
		return nil, err
	}
	return NewFromExtrinsics(width, height, k, dist, extrinsics)
}

// NewFromCalibration returns a camera with the interior orientation of a
// calibration record and an identity exterior orientation.
func NewFromCalibration(rec *calibration.Record) *Camera {
	c := New(rec.Width, rec.Height)
	c.UpdateIntrinsics(rec.K)
	c.UpdateDistortion(rec.Dist)
	return c
}

// NewFromCalibrationFile reads a calibration file in the given format and
// returns the corresponding camera.
func NewFromCalibrationFile(path string, format calibration.Format) (*Camera, error) {
	rec, err := calibration.Load(path, format)
	if err != nil {
		return nil, err
	}
	return NewFromCalibration(rec), nil
}

func (c *Camera) String() string {
	k := "<none>"
	if c.k != nil {
		k = fmt.Sprintf("%v", mat.Formatted(c.k, mat.Squeeze()))
	}
	return fmt.Sprintf("Camera(w=%d, h=%d, K=%s, dist=%v, extrinsics=%v)",
		c.width, c.height, k, c.dist, mat.Formatted(c.extrinsics, mat.Squeeze()))
}

// Width returns the image width in pixels.
func (c *Camera) Width() int { return c.width }

// Height returns the image height in pixels.
func (c *Camera) Height() int { return c.height }

// Intrinsics returns a copy of the 3x3 intrinsic matrix K, or nil if the
// camera has none.
func (c *Camera) Intrinsics() *mat.Dense {
	if c.k == nil {
		return nil
	}
	return mat.DenseCopyOf(c.k)
}

// Distortion returns a copy of the OpenCV-convention distortion vector, or
// nil if the camera has none.
func (c *Camera) Distortion() []float64 {
	if c.dist == nil {
		return nil
	}
	out := make([]float64, len(c.dist))
	copy(out, c.dist)
	return out
}

// Extrinsics returns a copy of the 4x4 world-to-camera extrinsics matrix.
func (c *Camera) Extrinsics() *mat.Dense {
	return mat.DenseCopyOf(c.extrinsics)
}

// Pose returns the 4x4 camera-to-world pose matrix [R'|C], computed from the
// current extrinsics.
func (c *Camera) Pose() *mat.Dense {
	return transform.ExtrinsicsToPose(c.extrinsics)
}

// Rotation returns the 3x3 world-to-camera rotation matrix.
func (c *Camera) Rotation() *mat.Dense {
	return mat.DenseCopyOf(c.extrinsics.Slice(0, 3, 0, 3))
}

// Translation returns the world-to-camera translation vector t.
func (c *Camera) Translation() *mat.VecDense {
	return mat.NewVecDense(3, []float64{
		c.extrinsics.At(0, 3), c.extrinsics.At(1, 3), c.extrinsics.At(2, 3),
	})
}

// Center returns the camera center C = -R'·t in world coordinates.
func (c *Camera) Center() *mat.VecDense {
	pose := c.Pose()
	return mat.NewVecDense(3, []float64{pose.At(0, 3), pose.At(1, 3), pose.At(2, 3)})
}

// EulerAngles returns the (omega, phi, kappa) angles in degrees of the
// camera-to-world rotation, i.e. of the transpose of the world-to-camera
// rotation matrix.
func (c *Camera) EulerAngles() (omega, phi, kappa float64) {
	rot := c.Rotation()
	omega, phi, kappa = transform.EulerFromRotation(rot.T())
	return radToDeg(omega), radToDeg(phi), radToDeg(kappa)
}

// ProjectionMatrix returns the 3x4 projection matrix P = K[R|t] from the
// camera's current intrinsics and extrinsics.
func (c *Camera) ProjectionMatrix() (*mat.Dense, error) {
	if c.k == nil {
		return nil, ErrNoIntrinsics
	}
	rt := c.extrinsics.Slice(0, 3, 0, 4)
	var p mat.Dense
	p.Mul(c.k, rt)
	return &p, nil
}

// UpdateIntrinsics replaces the intrinsic matrix of the camera.
func (c *Camera) UpdateIntrinsics(k *mat.Dense) {
	if k == nil {
		c.k = nil
		return
	}
	c.k = mat.DenseCopyOf(k)
}

// UpdateDistortion replaces the distortion coefficients of the camera.
func (c *Camera) UpdateDistortion(dist []float64) {
	if dist == nil {
		c.dist = nil
		return
	}
	c.dist = make([]float64, len(dist))
	copy(c.dist, dist)
}

// UpdateExtrinsics replaces the exterior orientation of the camera. It is
// the only way to do so: the matrix must be 4x4 and homogeneous, with the
// last row exactly [0 0 0 1].
func (c *Camera) UpdateExtrinsics(extrinsics *mat.Dense) error {
	if extrinsics == nil {
		return errors.Wrap(ErrInvalidExtrinsics, "extrinsics matrix is nil")
	}
	rows, cols := extrinsics.Dims()
	if rows != 4 || cols != 4 {
		return errors.Wrapf(ErrInvalidExtrinsics, "expected a 4x4 homogeneous matrix, got %dx%d", rows, cols)
	}
	if extrinsics.At(3, 0) != 0 || extrinsics.At(3, 1) != 0 ||
		extrinsics.At(3, 2) != 0 || extrinsics.At(3, 3) != 1 {
		return errors.Wrap(ErrInvalidExtrinsics, "last row must be exactly [0 0 0 1]")
	}
	c.extrinsics = mat.DenseCopyOf(extrinsics)
	return nil
}

// ResetOrientation sets the exterior orientation back to the identity,
// making the camera reference system parallel to the world reference system.
func (c *Camera) ResetOrientation() {
	eye := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		eye.Set(i, i, 1)
	}
	c.extrinsics = eye
}

// SetLensProjector replaces the lens-projection collaborator used by
// ProjectPoints. The default is transform.OpenCVLensProjector.
func (c *Camera) SetLensProjector(p transform.LensProjector) {
	c.projector = p
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
