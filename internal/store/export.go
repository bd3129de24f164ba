package store

import (
	"encoding/json"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/armsim/internal/telemetry"
)

type ExportData struct {
	Metadata RunMetadata       `json:"metadata"`
	Frames   []telemetry.Frame `json:"frames"`
}

// ExportJSON writes a run's metadata and full trace as one JSON document.
func ExportJSON(path string, meta RunMetadata, frames []telemetry.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Metadata: meta, Frames: frames})
}

// ExportPlot renders the angle trajectory against the setpoint. The output
// format follows the file extension (.svg, .png, .pdf).
func ExportPlot(path string, meta RunMetadata, frames []telemetry.Frame) error {
	p := plot.New()
	p.Title.Text = meta.ID
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "angle (deg)"

	angles := make(plotter.XYs, len(frames))
	setpoints := make(plotter.XYs, len(frames))
	for i, f := range frames {
		angles[i].X = f.TimeSec
		angles[i].Y = f.AngleRad * 180 / math.Pi
		setpoints[i].X = f.TimeSec
		setpoints[i].Y = meta.SetpointDeg
	}

	angleLine, err := plotter.NewLine(angles)
	if err != nil {
		return err
	}
	setpointLine, err := plotter.NewLine(setpoints)
	if err != nil {
		return err
	}
	setpointLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(angleLine, setpointLine, plotter.NewGrid())
	p.Legend.Add("angle", angleLine)
	p.Legend.Add("setpoint", setpointLine)

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
