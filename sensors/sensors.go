// Package sensors resolves the physical sensor width of camera models, used
// when estimating camera intrinsics from EXIF metadata.
package sensors

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no database row matches a make and model.
var ErrNotFound = errors.New("camera not found in sensor database")

// ErrAmbiguous is returned when more than one database row matches.
var ErrAmbiguous = errors.New("ambiguous camera make and model")

//go:embed sensor_database.csv
var defaultDatabase []byte

type sensorRow struct {
	maker   string
	model   string
	widthMM float64
}

// WidthDatabase looks up sensor widths in millimeters by camera make and
// model.
type WidthDatabase struct {
	rows []sensorRow
}

// NewWidthDatabase returns a database backed by the embedded CSV of common
// camera models.
func NewWidthDatabase() (*WidthDatabase, error) {
	return NewWidthDatabaseFromCSV(bytes.NewReader(defaultDatabase))
}

// NewWidthDatabaseFromCSV reads a database from CSV rows laid out as
// CameraMaker,CameraModel,SensorWidth(mm) with a header line.
func NewWidthDatabaseFromCSV(r io.Reader) (*WidthDatabase, error) {
	csvReader := csv.NewReader(r)
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read sensor database")
	}
	if len(records) < 2 {
		return nil, errors.New("sensor database holds no rows")
	}

	rows := make([]sensorRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != 3 {
			return nil, errors.Errorf("sensor database row must have 3 columns, got %d", len(rec))
		}
		width, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, errors.Errorf("malformed sensor width %q for %s %s", rec[2], rec[0], rec[1])
		}
		rows = append(rows, sensorRow{
			maker:   strings.ToLower(strings.TrimSpace(rec[0])),
			model:   strings.ToLower(strings.TrimSpace(rec[1])),
			widthMM: width,
		})
	}
	return &WidthDatabase{rows: rows}, nil
}

// Lookup returns the sensor width in millimeters for a camera make and
// model. Matching is case-insensitive on the first whitespace token of the
// make (EXIF makes often carry suffixes like "NIKON CORPORATION") and on the
// full model string. It fails unless exactly one row matches.
func (db *WidthDatabase) Lookup(maker, model string) (float64, error) {
	makeTokens := strings.Fields(maker)
	if len(makeTokens) == 0 {
		return 0, errors.Wrap(ErrNotFound, "empty camera make")
	}
	wantMake := strings.ToLower(makeTokens[0])
	wantModel := strings.ToLower(strings.TrimSpace(model))

	var matches []sensorRow
	for _, row := range db.rows {
		if row.maker == wantMake && row.model == wantModel {
			matches = append(matches, row)
		}
	}
	switch len(matches) {
	case 0:
		return 0, errors.Wrapf(ErrNotFound, "make=%q model=%q", maker, model)
	case 1:
		return matches[0].widthMM, nil
	default:
		return 0, errors.Wrapf(ErrAmbiguous, "make=%q model=%q matches %d rows", maker, model, len(matches))
	}
}
