package render

import (
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	pal "gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/HamletTheHamster/esr-splitting/internal/dips"
	"github.com/HamletTheHamster/esr-splitting/internal/spectrum"
)

const (
	xlabel = "Frequency (GHz)"
	ylabel = "Normalized intensity"
)

// GonumSink writes every figure as png, svg and pdf into Dir.
type GonumSink struct {
	Dir    string
	Slide  bool
	Logger *zap.Logger
}

func (g GonumSink) Trace(
	name string,
	brush int,
	s spectrum.Spectrum,
) {

	ghz := toGHz(s.Freq)

	p, err := prepPlot(name, xlabel, ylabel, span(ghz), span(s.Intensity), g.Slide)
	if err != nil {
		g.fail(name, err)
		return
	}

	// Plot points
	sc, err := plotter.NewScatter(xys(ghz, s.Intensity))
	if err != nil {
		g.fail(name, err)
		return
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Color = palette(brush, true)
	sc.GlyphStyle.Radius = vg.Points(3)
	p.Add(sc)
	p.Legend.Add("Normalized", sc)

	g.save(p, name)
}

func (g GonumSink) Dips(
	name string,
	brush int,
	s spectrum.Spectrum,
	seq dips.Sequence,
) {

	ghz := toGHz(s.Freq)

	p, err := prepPlot(name, xlabel, ylabel, span(ghz), span(s.Intensity), g.Slide)
	if err != nil {
		g.fail(name, err)
		return
	}

	// Plot trace
	l, err := plotter.NewLine(xys(ghz, s.Intensity))
	if err != nil {
		g.fail(name, err)
		return
	}
	l.LineStyle.Color = palette(brush, false)
	l.LineStyle.Width = vg.Points(3)
	p.Add(l)
	p.Legend.Add("Smoothed", l)

	// Mark dips
	idx := seq.Indices()
	pts := make(plotter.XYs, len(idx))
	for i, j := range idx {
		pts[i].X = ghz[j]
		pts[i].Y = s.Intensity[j]
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		g.fail(name, err)
		return
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Color = dipColor
	sc.GlyphStyle.Radius = vg.Points(8)
	p.Add(sc)
	p.Legend.Add("Dips", sc)

	g.save(p, name)
}

func (g GonumSink) Fit(
	name string,
	brush int,
	s spectrum.Spectrum,
	fitted []float64,
) {

	ghz := toGHz(s.Freq)

	p, err := prepPlot(name, xlabel, ylabel, span(ghz), span(s.Intensity, fitted), g.Slide)
	if err != nil {
		g.fail(name, err)
		return
	}

	// Plot points
	sc, err := plotter.NewScatter(xys(ghz, s.Intensity))
	if err != nil {
		g.fail(name, err)
		return
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Color = palette(brush, false)
	sc.GlyphStyle.Radius = vg.Points(3)
	p.Add(sc)
	p.Legend.Add("Data", sc)

	// Plot fit
	l, err := plotter.NewLine(xys(ghz, fitted))
	if err != nil {
		g.fail(name, err)
		return
	}
	l.LineStyle.Color = palette(brush, true)
	l.LineStyle.Width = vg.Points(4)
	p.Add(l)
	p.Legend.Add("Lorentzian fit", l)

	g.save(p, name)
}

// Image draws plane as a heat map with one cell per pixel.
func (g GonumSink) Image(
	name string,
	plane spectrum.Plane,
) {

	if plane.Rows == 0 || plane.Cols == 0 {
		return
	}

	p := plot.New()
	p.Title.Text = name
	p.Title.TextStyle.Font.Typeface = "liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row"

	h := plotter.NewHeatMap(grid{plane}, pal.Heat(64, 1))
	if h.Max == h.Min {
		h.Max = h.Min + 1
	}
	p.Add(h)

	if err := savePlot(p, name, g.Dir, 15*vg.Inch, 15*vg.Inch); err != nil {
		g.fail(name, err)
	}
}

func (g GonumSink) save(p *plot.Plot, name string) {
	w, h := 15*vg.Inch, 15*vg.Inch
	if g.Slide {
		w, h = 20*vg.Inch, 15*vg.Inch
	}

	if err := savePlot(p, name, g.Dir, w, h); err != nil {
		g.fail(name, err)
	}
}

func (g GonumSink) fail(name string, err error) {
	if g.Logger != nil {
		g.Logger.Warn("plot not written", zap.String("figure", name), zap.Error(err))
	}
}

// grid adapts a Plane to plotter.GridXYZ.
type grid struct{ spectrum.Plane }

func (g grid) Dims() (c, r int)   { return g.Cols, g.Rows }
func (g grid) Z(c, r int) float64 { return g.At(r, c) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

func toGHz(freq []float64) []float64 {
	out := make([]float64, len(freq))
	for i, f := range freq {
		out[i] = f * 1e-9
	}
	return out
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}
