package calibration

import (
	"encoding/xml"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// xmlElement preserves the document order of child elements, since the
// Agisoft/OpenCV storage format is positional rather than named.
type xmlElement struct {
	XMLName  xml.Name
	TypeID   string       `xml:"type_id,attr"`
	Text     string       `xml:",chardata"`
	Children []xmlElement `xml:",any"`
}

// ReadAgisoftXML reads an Agisoft/OpenCV XML calibration export. The
// document must carry, in order: calibration time, image width, image
// height, a camera-matrix node with type_id "opencv-matrix" holding 9 data
// values, and a distortion-coefficients node. Distortion coefficients are
// kept in OpenCV storage order k1,k2,p1,p2[,k3[,k4,k5,k6]].
func ReadAgisoftXML(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read calibration file")
	}

	var root xmlElement
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "cannot parse calibration XML")
	}
	if len(root.Children) < 5 {
		return nil, errors.Wrapf(ErrFormat, "expected at least 5 nodes, got %d", len(root.Children))
	}
	if root.Children[3].TypeID != "opencv-matrix" {
		return nil, errors.Wrapf(ErrFormat,
			"camera matrix node must have type_id \"opencv-matrix\", got %q", root.Children[3].TypeID)
	}

	width, err := intText(root.Children[1])
	if err != nil {
		return nil, errors.Wrap(err, "image width")
	}
	height, err := intText(root.Children[2])
	if err != nil {
		return nil, errors.Wrap(err, "image height")
	}

	kValues, err := matrixData(root.Children[3])
	if err != nil {
		return nil, errors.Wrap(err, "camera matrix")
	}
	if len(kValues) != 9 {
		return nil, errors.Wrapf(ErrFormat, "camera matrix must hold 9 values, got %d", len(kValues))
	}

	dist, err := matrixData(root.Children[4])
	if err != nil {
		return nil, errors.Wrap(err, "distortion coefficients")
	}
	if len(dist) < 4 || len(dist) > 8 {
		return nil, errors.Wrapf(ErrFormat, "distortion vector must hold 4 to 8 values, got %d", len(dist))
	}

	return &Record{
		Width:  width,
		Height: height,
		K:      mat.NewDense(3, 3, kValues),
		Dist:   dist,
	}, nil
}

func intText(node xmlElement) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(node.Text))
	if err != nil {
		return 0, errors.Wrapf(ErrFormat, "node %q does not hold an integer", node.XMLName.Local)
	}
	return v, nil
}

// matrixData extracts the floats of an opencv-matrix node. The data block is
// the 4th child (after rows, cols and dt), matching the storage layout.
func matrixData(node xmlElement) ([]float64, error) {
	if len(node.Children) < 4 {
		return nil, errors.Wrapf(ErrFormat, "node %q has no data block", node.XMLName.Local)
	}
	tokens := strings.Fields(node.Children[3].Text)
	values := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrFormat, "value %q is not a number", tok)
		}
		values[i] = v
	}
	return values, nil
}
