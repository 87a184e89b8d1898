// Package plot renders averaged population curves as images.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/inference-sim/viral-sim/sim/experiment"
)

// Default figure size.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var (
	totalColor     = color.RGBA{R: 110, G: 110, B: 110, A: 255}
	resistantColor = color.RGBA{R: 220, G: 160, B: 0, A: 255}
	capacityColor  = color.Black
)

// Options controls figure layout. Zero values fall back to defaults.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

func (o Options) withDefaults(res *experiment.Result) Options {
	if o.Title == "" {
		o.Title = fmt.Sprintf("%s: average population over %d trials", res.Scenario, res.Trials)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	return o
}

// Curves builds the figure: mean total population, mean resistant population
// when collected, the capacity line, and one vertical marker per prescription.
func Curves(res *experiment.Result, opts Options) (*gonumplot.Plot, error) {
	if res == nil || len(res.MeanTotal) == 0 {
		return nil, errors.New("plot: result has no curves")
	}
	opts = opts.withDefaults(res)

	p := gonumplot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Time step"
	p.Y.Label.Text = "Average population"

	last := float64(len(res.MeanTotal) - 1)
	yMax := float64(res.MaxPop)
	for _, v := range res.MeanTotal {
		yMax = max(yMax, v)
	}
	yMax *= 1.05

	total, err := curve(res.MeanTotal, totalColor)
	if err != nil {
		return nil, err
	}
	p.Add(total)
	p.Legend.Add("All viruses", total)

	if res.HasResistant() {
		resistant, err := curve(res.MeanResistant, resistantColor)
		if err != nil {
			return nil, err
		}
		p.Add(resistant)
		p.Legend.Add("Drug-resistant viruses", resistant)
	}

	capacity, err := segment(0, float64(res.MaxPop), last, float64(res.MaxPop), capacityColor)
	if err != nil {
		return nil, err
	}
	capacity.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(capacity)
	p.Legend.Add("Max population", capacity)

	for i, e := range res.Schedule {
		x := float64(e.Step)
		if x > last {
			continue
		}
		marker, err := segment(x, 0, x, yMax, plotutil.Color(i+2))
		if err != nil {
			return nil, err
		}
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("Prescribed: %s", strings.Join(e.Drugs, ", ")), marker)
	}

	p.X.Min, p.X.Max = 0, last
	p.Y.Min, p.Y.Max = 0, yMax
	p.Legend.Top = true
	return p, nil
}

// Save renders res to path. The image format follows the file extension
// (png, jpg, svg, pdf, eps, tif).
func Save(res *experiment.Result, path string, opts Options) error {
	p, err := Curves(res, opts)
	if err != nil {
		return err
	}
	opts = opts.withDefaults(res)
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return fmt.Errorf("plot: saving %s: %w", path, err)
	}
	return nil
}

func curve(ys []float64, c color.Color) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(ys))
	for i, y := range ys {
		pts[i].X = float64(i)
		pts[i].Y = y
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1.5)
	return line, nil
}

func segment(x0, y0, x1, y1 float64, c color.Color) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y1}})
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1)
	return line, nil
}
