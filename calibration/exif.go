package calibration

import (
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// EXIF tag keys consumed by FromExif. The tag map itself is produced by an
// external EXIF extractor.
const (
	TagMake        = "Image Make"
	TagModel       = "Image Model"
	TagFocalLength = "EXIF FocalLength"
	TagImageWidth  = "EXIF ExifImageWidth"
	TagImageLength = "EXIF ExifImageLength"
)

// SensorWidthLookup resolves the physical sensor width in millimeters for a
// camera make and model. It must fail unless exactly one database row
// matches.
type SensorWidthLookup interface {
	Lookup(maker, model string) (float64, error)
}

// FromExif estimates the interior orientation from EXIF metadata:
//
//	focal_px = max(width_px, height_px) * focal_mm / sensor_width_mm
//
// with the principal point at the image center and a zero 5-coefficient
// distortion vector. Missing tags or a failed sensor lookup are logged and
// returned as errors; no partial record is produced.
func FromExif(exif map[string]string, db SensorWidthLookup, logger golog.Logger) (*Record, error) {
	focalMM, err := exifFloat(exif, TagFocalLength)
	if err != nil {
		logger.Errorw("unable to get focal length from EXIF data", "error", err)
		return nil, err
	}
	widthPx, err := exifInt(exif, TagImageWidth)
	if err != nil {
		logger.Errorw("unable to get image size in pixels from EXIF data", "error", err)
		return nil, err
	}
	heightPx, err := exifInt(exif, TagImageLength)
	if err != nil {
		logger.Errorw("unable to get image size in pixels from EXIF data", "error", err)
		return nil, err
	}

	maker, ok := exif[TagMake]
	if !ok {
		err := errors.Errorf("EXIF tag %q is missing", TagMake)
		logger.Errorw("unable to get camera make from EXIF data", "error", err)
		return nil, err
	}
	model, ok := exif[TagModel]
	if !ok {
		err := errors.Errorf("EXIF tag %q is missing", TagModel)
		logger.Errorw("unable to get camera model from EXIF data", "error", err)
		return nil, err
	}

	sensorMM, err := db.Lookup(maker, model)
	if err != nil {
		logger.Errorw("unable to get sensor size in mm from sensor database",
			"make", maker, "model", model, "error", err)
		return nil, err
	}

	focalPx := float64(max(widthPx, heightPx)) * focalMM / sensorMM
	k := mat.NewDense(3, 3, []float64{
		focalPx, 0, float64(widthPx) / 2,
		0, focalPx, float64(heightPx) / 2,
		0, 0, 1,
	})
	return &Record{
		Width:  widthPx,
		Height: heightPx,
		K:      k,
		Dist:   make([]float64, 5),
	}, nil
}

func exifFloat(exif map[string]string, tag string) (float64, error) {
	raw, ok := exif[tag]
	if !ok {
		return 0, errors.Errorf("EXIF tag %q is missing", tag)
	}
	raw = strings.TrimSpace(raw)
	// Focal lengths are often stored as rationals, e.g. "280/10".
	if num, den, found := strings.Cut(raw, "/"); found {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0, errors.Errorf("EXIF tag %q has malformed rational %q", tag, raw)
		}
		return n / d, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Errorf("EXIF tag %q has malformed value %q", tag, raw)
	}
	return v, nil
}

func exifInt(exif map[string]string, tag string) (int, error) {
	raw, ok := exif[tag]
	if !ok {
		return 0, errors.Errorf("EXIF tag %q is missing", tag)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.Errorf("EXIF tag %q has malformed value %q", tag, raw)
	}
	return v, nil
}
