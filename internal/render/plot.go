// Package render draws the detected dips, fitted multiplets and camera
// images of a run.
package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/HamletTheHamster/esr-splitting/internal/dips"
	"github.com/HamletTheHamster/esr-splitting/internal/spectrum"
)

// Sink receives everything a run wants drawn. Drawing never fails a file
// pair; implementations report their own errors.
type Sink interface {
	// Trace draws the normalized sweep before smoothing.
	Trace(name string, brush int, s spectrum.Spectrum)
	Dips(name string, brush int, s spectrum.Spectrum, seq dips.Sequence)
	Fit(name string, brush int, s spectrum.Spectrum, fitted []float64)
	Image(name string, plane spectrum.Plane)
}

// Nop draws nothing.
type Nop struct{}

func (Nop) Trace(string, int, spectrum.Spectrum)               {}
func (Nop) Dips(string, int, spectrum.Spectrum, dips.Sequence) {}
func (Nop) Fit(string, int, spectrum.Spectrum, []float64)      {}
func (Nop) Image(string, spectrum.Plane)                       {}

// Brushes for the two conditions.
const (
	Idle   = 0
	Active = 1
)

func palette(
	brush int,
	dark bool,
) color.RGBA {

	if dark {
		darkColor := []color.RGBA{
			{R: 201, G: 104, B: 146, A: 255},
			{R: 60, G: 101, B: 122, A: 255},
			{R: 27, G: 170, B: 139, A: 255},
			{R: 194, G: 140, B: 86, A: 255},
		}
		return darkColor[brush%len(darkColor)]
	}

	col := []color.RGBA{
		{R: 228, G: 147, B: 179, A: 255},
		{R: 81, G: 130, B: 155, A: 255},
		{R: 31, G: 211, B: 172, A: 255},
		{R: 255, G: 182, B: 110, A: 255},
	}
	return col[brush%len(col)]
}

var dipColor = color.RGBA{R: 220, G: 20, B: 20, A: 255}

// prepPlot returns a styled plot enclosed by a frame spanning xrange and
// yrange.
func prepPlot(
	title, xlabel, ylabel string,
	xrange, yrange []float64,
	slide bool,
) (
	*plot.Plot, error,
) {

	p := plot.New()
	p.BackgroundColor = color.RGBA{A: 0}
	p.Title.Text = title
	p.Title.TextStyle.Font.Typeface = "liberation"
	p.Title.TextStyle.Font.Variant = "Sans"

	p.X.Label.Text = xlabel
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.LineStyle.Width = vg.Points(1.5)
	p.X.Min = xrange[0]
	p.X.Max = xrange[1]
	p.X.Tick.LineStyle.Width = vg.Points(1.5)
	p.X.Tick.Label.Font.Variant = "Sans"

	p.Y.Label.Text = ylabel
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.LineStyle.Width = vg.Points(1.5)
	p.Y.Min = yrange[0]
	p.Y.Max = yrange[1]
	p.Y.Tick.LineStyle.Width = vg.Points(1.5)
	p.Y.Tick.Label.Font.Variant = "Sans"

	p.Legend.TextStyle.Font.Variant = "Sans"
	p.Legend.Top = true
	p.Legend.Padding = vg.Points(10)
	p.Legend.ThumbnailWidth = vg.Points(50)

	if slide {
		p.Title.TextStyle.Font.Size = 80
		p.Title.Padding = font.Length(80)
		p.X.Label.TextStyle.Font.Size = 56
		p.X.Label.Padding = font.Length(40)
		p.X.Tick.Label.Font.Size = 56
		p.Y.Label.TextStyle.Font.Size = 56
		p.Y.Label.Padding = font.Length(40)
		p.Y.Tick.Label.Font.Size = 56
		p.Legend.TextStyle.Font.Size = 56
	} else {
		p.Title.TextStyle.Font.Size = 50
		p.Title.Padding = font.Length(50)
		p.X.Label.TextStyle.Font.Size = 36
		p.X.Label.Padding = font.Length(20)
		p.X.Tick.Label.Font.Size = 36
		p.Y.Label.TextStyle.Font.Size = 36
		p.Y.Label.Padding = font.Length(20)
		p.Y.Tick.Label.Font.Size = 36
		p.Legend.TextStyle.Font.Size = 28
	}

	// Enclose plot
	top := plotter.XYs{{X: xrange[0], Y: yrange[1]}, {X: xrange[1], Y: yrange[1]}}
	right := plotter.XYs{{X: xrange[1], Y: yrange[0]}, {X: xrange[1], Y: yrange[1]}}

	for _, edge := range []plotter.XYs{top, right} {
		l, err := plotter.NewLine(edge)
		if err != nil {
			return nil, err
		}
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
	}

	return p, nil
}

// span returns the range of v padded by 5% on both sides.
func span(
	v ...[]float64,
) []float64 {

	lo, hi := floats.Min(v[0]), floats.Max(v[0])
	for _, s := range v[1:] {
		if len(s) == 0 {
			continue
		}
		lo = min(lo, floats.Min(s))
		hi = max(hi, floats.Max(s))
	}

	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}

	return []float64{lo - pad, hi + pad}
}

// savePlot writes p as png, svg and pdf into dir.
func savePlot(
	p *plot.Plot,
	name, dir string,
	w, h vg.Length,
) error {

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	path := filepath.Join(dir, name)

	for _, ext := range []string{".png", ".svg", ".pdf"} {
		if err := p.Save(w, h, path+ext); err != nil {
			return fmt.Errorf("render: saving %s%s: %w", path, ext, err)
		}
	}

	return nil
}

// New returns the sink for a backend name: gonum, gnuplot or none.
func New(
	backend, dir string,
	slide bool,
	logger *zap.Logger,
) (
	Sink, error,
) {

	switch backend {
	case "gonum", "":
		return GonumSink{Dir: dir, Slide: slide, Logger: logger}, nil
	case "gnuplot":
		return GnuplotSink{Dir: dir, Logger: logger}, nil
	case "none":
		return Nop{}, nil
	}

	return nil, fmt.Errorf("render: unknown backend %q", backend)
}
