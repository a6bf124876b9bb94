package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/Arafatk/glot"
	"go.uber.org/zap"

	"github.com/HamletTheHamster/esr-splitting/internal/dips"
	"github.com/HamletTheHamster/esr-splitting/internal/spectrum"
)

// GnuplotSink draws through a gnuplot process. Figures are saved as png into
// Dir; camera images are not supported and only logged. The first two groups
// of a figure take the light and dark color of its brush.
type GnuplotSink struct {
	Dir    string
	Logger *zap.Logger
}

func (g GnuplotSink) Trace(
	name string,
	brush int,
	s spectrum.Spectrum,
) {

	g.draw(name, brush, []group{
		{"Normalized", "points", [][]float64{toGHz(s.Freq), s.Intensity}},
	})
}

func (g GnuplotSink) Dips(
	name string,
	brush int,
	s spectrum.Spectrum,
	seq dips.Sequence,
) {

	ghz := toGHz(s.Freq)

	idx := seq.Indices()
	mx := make([]float64, len(idx))
	my := make([]float64, len(idx))
	for i, j := range idx {
		mx[i] = ghz[j]
		my[i] = s.Intensity[j]
	}

	g.draw(name, brush, []group{
		{"Smoothed", "lines", [][]float64{ghz, s.Intensity}},
		{"Dips", "circle", [][]float64{mx, my}},
	})
}

func (g GnuplotSink) Fit(
	name string,
	brush int,
	s spectrum.Spectrum,
	fitted []float64,
) {

	ghz := toGHz(s.Freq)

	g.draw(name, brush, []group{
		{"Data", "points", [][]float64{ghz, s.Intensity}},
		{"Lorentzian fit", "lines", [][]float64{ghz, fitted}},
	})
}

func (g GnuplotSink) Image(name string, _ spectrum.Plane) {
	if g.Logger != nil {
		g.Logger.Debug("gnuplot backend skips images", zap.String("figure", name))
	}
}

type group struct {
	name, style string
	points      [][]float64
}

func (g GnuplotSink) draw(name string, brush int, groups []group) {
	if err := g.plot(name, brush, groups); err != nil && g.Logger != nil {
		g.Logger.Warn("plot not written", zap.String("figure", name), zap.Error(err))
	}
}

func (g GnuplotSink) plot(
	name string,
	brush int,
	groups []group,
) error {

	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	dimensions := 2
	persist := false
	debug := false
	plot, err := glot.NewPlot(dimensions, persist, debug)
	if err != nil {
		return fmt.Errorf("render: starting gnuplot: %w", err)
	}
	defer plot.Close()

	plot.SetTitle(name)
	plot.SetXLabel(xlabel)
	plot.SetYLabel(ylabel)

	for _, cmd := range linetypes(brush) {
		if err := plot.Cmd(cmd); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	for _, grp := range groups {
		if err := plot.AddPointGroup(grp.name, grp.style, grp.points); err != nil {
			return fmt.Errorf("render: %s: %w", grp.name, err)
		}
	}

	if err := plot.SavePlot(filepath.Join(g.Dir, name+".png")); err != nil {
		return fmt.Errorf("render: saving %s: %w", name, err)
	}

	return nil
}

// linetypes colors gnuplot's first two line types with the brush palette.
func linetypes(brush int) []string {
	return []string{
		fmt.Sprintf("set linetype 1 linecolor rgb %q linewidth 2", hex(palette(brush, false))),
		fmt.Sprintf("set linetype 2 linecolor rgb %q linewidth 2", hex(palette(brush, true))),
	}
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
