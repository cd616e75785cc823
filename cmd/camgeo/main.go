// The camgeo command inspects camera calibration files and projects world
// points through a calibrated pinhole camera.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/franioli/camgeo/calibration"
	"github.com/franioli/camgeo/camera"
)

var app = &cli.App{
	Name:            "camgeo",
	Usage:           "inspect and use pinhole camera calibrations",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "inspect",
			Usage:     "print the camera parameters of a calibration file",
			ArgsUsage: "<calibration-file>",
			Flags: []cli.Flag{
				formatFlag(),
			},
			Action: InspectAction,
		},
		{
			Name:      "project",
			Usage:     "project world points (one X Y Z triplet per line) to pixel coordinates",
			ArgsUsage: "<points-file, or - for stdin>",
			Flags: []cli.Flag{
				formatFlag(),
				&cli.StringFlag{
					Name:     "calib",
					Usage:    "load camera calibration from `FILE`",
					Required: true,
				},
			},
			Action: ProjectAction,
		},
	},
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Value: string(calibration.FormatOpenCVText),
		Usage: "calibration file format (opencv-text or agisoft-xml)",
	}
}

func newLogger(c *cli.Context) golog.Logger {
	if c.Bool("debug") {
		return golog.NewDebugLogger("camgeo")
	}
	return golog.NewLogger("camgeo")
}

// InspectAction loads a calibration file and prints the camera parameters.
func InspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one calibration file argument")
	}
	logger := newLogger(c)
	path := c.Args().First()

	cam, err := camera.NewFromCalibrationFile(path, calibration.Format(c.String("format")))
	if err != nil {
		return err
	}
	logger.Debugw("loaded calibration", "path", path, "format", c.String("format"))

	fmt.Fprintf(c.App.Writer, "image size: %d x %d px\n", cam.Width(), cam.Height())
	fmt.Fprintf(c.App.Writer, "K:\n%v\n", mat.Formatted(cam.Intrinsics(), mat.Prefix("    "), mat.Squeeze()))
	fmt.Fprintf(c.App.Writer, "distortion: %v\n", cam.Distortion())
	omega, phi, kappa := cam.EulerAngles()
	fmt.Fprintf(c.App.Writer, "euler angles [deg]: omega=%.6f phi=%.6f kappa=%.6f\n", omega, phi, kappa)
	return nil
}

// ProjectAction projects points read from a file or stdin through the
// calibrated camera, with the camera frame parallel to the world frame.
func ProjectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one points file argument")
	}
	logger := newLogger(c)

	cam, err := camera.NewFromCalibrationFile(c.String("calib"), calibration.Format(c.String("format")))
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if name := c.Args().First(); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return errors.Wrap(err, "cannot read points file")
		}
		defer f.Close()
		in = f
	}

	points, err := readPoints(in)
	if err != nil {
		return err
	}
	logger.Debugw("projecting points", "count", len(points))

	projected, err := cam.Project(points)
	if err != nil {
		return err
	}
	for _, p := range projected {
		fmt.Fprintf(c.App.Writer, "%.3f %.3f\n", p.X, p.Y)
	}
	return nil
}

func readPoints(in io.Reader) ([]r3.Vector, error) {
	var points []r3.Vector
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, errors.Errorf("line %d: expected 3 coordinates, got %d", len(points)+1, len(fields))
		}
		var xyz [3]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errors.Errorf("line %d: %q is not a number", len(points)+1, f)
			}
			xyz[i] = v
		}
		points = append(points, r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "cannot read points")
	}
	return points, nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		golog.Global().Fatal(err)
	}
}
