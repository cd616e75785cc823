package calibration

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ReadOpenCVText reads a plain-text OpenCV calibration: one line of
// whitespace-separated floats laid out as
//
//	width height fx 0 cx 0 fy cy 0 0 1 k1 k2 p1 p2 [k3 [k4 k5 k6]]
//
// with 15 tokens for the standard model, 16 with k3, or 19 for the full
// rational model.
func ReadOpenCVText(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read calibration file")
	}

	tokens := strings.Fields(string(data))
	switch len(tokens) {
	case 15, 16, 19:
	default:
		return nil, errors.Wrapf(ErrFormat,
			"expected 15, 16 or 19 values laid out as "+
				"\"width height fx 0 cx 0 fy cy 0 0 1 k1 k2 p1 p2 [k3 [k4 k5 k6]]\", got %d",
			len(tokens))
	}

	values := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrFormat, "value %d %q is not a number", i, tok)
		}
		values[i] = v
	}

	return &Record{
		Width:  int(values[0]),
		Height: int(values[1]),
		K:      mat.NewDense(3, 3, values[2:11]),
		Dist:   values[11:],
	}, nil
}
