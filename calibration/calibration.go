// Package calibration parses camera calibration data from a plain-text
// OpenCV format, an Agisoft/OpenCV XML format, or EXIF metadata, producing
// the interior-orientation fields needed to build a pinhole camera.
package calibration

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrFormat is returned when calibration data does not follow the expected
// grammar of its format.
var ErrFormat = errors.New("invalid calibration data")

// ErrExifSource is returned by Load for FormatExifEstimate, which reads a
// tag map rather than a file. Use FromExif instead.
var ErrExifSource = errors.New("exif calibration reads a tag map, not a file")

// Format selects one of the supported calibration parsers.
type Format string

const (
	// FormatOpenCVText is a single line of whitespace-separated values:
	// width height fx 0 cx 0 fy cy 0 0 1 k1 k2 p1 p2 [k3 [k4 k5 k6]].
	FormatOpenCVText = Format("opencv-text")
	// FormatAgisoftXML is the Agisoft/OpenCV XML camera calibration export.
	FormatAgisoftXML = Format("agisoft-xml")
	// FormatExifEstimate derives an approximate interior orientation from
	// EXIF metadata through FromExif.
	FormatExifEstimate = Format("exif-estimate")
)

// Record holds the interior orientation parsed from a calibration source.
type Record struct {
	Width  int
	Height int
	K      *mat.Dense
	Dist   []float64
}

// CheckValid checks whether the record can parameterize a pinhole camera.
func (r *Record) CheckValid() error {
	if r == nil {
		return errors.New("calibration record does not exist")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return errors.Errorf("invalid image size (%d, %d)", r.Width, r.Height)
	}
	if r.K == nil {
		return errors.New("calibration record has no intrinsic matrix")
	}
	if r.K.At(0, 0) <= 0 || r.K.At(1, 1) <= 0 {
		return errors.Errorf("invalid focal lengths fx = %v, fy = %v", r.K.At(0, 0), r.K.At(1, 1))
	}
	switch len(r.Dist) {
	case 4, 5, 8:
		return nil
	default:
		return errors.Errorf("distortion vector must have 4, 5 or 8 coefficients, got %d", len(r.Dist))
	}
}

// Load reads a calibration file in the given format.
func Load(path string, format Format) (*Record, error) {
	switch format {
	case FormatOpenCVText:
		return ReadOpenCVText(path)
	case FormatAgisoftXML:
		return ReadAgisoftXML(path)
	case FormatExifEstimate:
		return nil, errors.Wrapf(ErrExifSource, "cannot load %q", path)
	default:
		return nil, errors.Errorf("do not know how to parse %q calibration format", format)
	}
}
