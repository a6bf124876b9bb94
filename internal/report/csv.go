package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/HamletTheHamster/esr-splitting/internal/dataset"
	"github.com/HamletTheHamster/esr-splitting/internal/fit"
	"github.com/HamletTheHamster/esr-splitting/internal/pipeline"
	"github.com/HamletTheHamster/esr-splitting/internal/splitting"
)

var columns = []string{
	"idle", "active",
	"idle_delta16", "idle_delta25", "idle_delta34",
	"active_delta16", "active_delta25", "active_delta34",
	"delta16", "delta25", "delta34", "unit", "seconds",
	"fit_delta16", "fit_delta25", "fit_delta34",
	"idle_cost", "active_cost", "fit_seconds",
	"error",
}

// WriteCSV writes one row per pair to dir/results.csv. Sweep splittings are
// in Hz; the differences are in the run's unit.
func WriteCSV(
	dir string,
	results []pipeline.PairResult,
) error {

	f, err := os.Create(filepath.Join(dir, "results.csv"))
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	for _, r := range results {
		if err := w.Write(row(r)); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return f.Close()
}

var paramColumns = []string{
	"idle", "active", "condition", "dip",
	"amplitude", "amplitude_err", "center", "center_err", "width", "width_err",
}

// WriteParams writes the fitted lineshape parameters and their standard
// errors to dir/fit_params.csv, one row per dip and condition of every
// fitted pair. Dips are numbered from 1 in frequency order.
func WriteParams(
	dir string,
	results []pipeline.PairResult,
) error {

	f, err := os.Create(filepath.Join(dir, "fit_params.csv"))
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(paramColumns); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	for _, r := range results {
		for _, fs := range []struct {
			cond pipeline.Condition
			sum  *pipeline.FitSummary
		}{
			{pipeline.Idle, r.IdleFit},
			{pipeline.Active, r.ActiveFit},
		} {
			if fs.sum == nil {
				continue
			}
			if err := w.WriteAll(params(r, fs.cond, fs.sum.Result)); err != nil {
				return fmt.Errorf("report: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return f.Close()
}

func params(
	r pipeline.PairResult,
	cond pipeline.Condition,
	res fit.Result,
) [][]string {

	recs := make([][]string, 0, len(res.Params))
	for k, p := range res.Params {
		rec := []string{
			dataset.Base(r.Idle), dataset.Base(r.Active), string(cond), strconv.Itoa(k + 1),
		}
		for j, v := range []float64{p.Amplitude, p.Center, p.Width} {
			rec = append(rec, num(v), stdErr(res, k*fit.ParamsPerDip+j))
		}
		recs = append(recs, rec)
	}

	return recs
}

func stdErr(res fit.Result, i int) string {
	if res.Covariance == nil {
		return ""
	}
	return num(res.StdErr(i))
}

func row(r pipeline.PairResult) []string {
	rec := make([]string, 0, len(columns))
	rec = append(rec, dataset.Base(r.Idle), dataset.Base(r.Active))

	if r.Err != nil {
		for len(rec) < len(columns)-1 {
			rec = append(rec, "")
		}
		return append(rec, r.Err.Error())
	}

	rec = append(rec, metrics(r.IdleAnalysis.Metrics)...)
	rec = append(rec, metrics(r.ActiveAnalysis.Metrics)...)
	rec = append(rec,
		num(r.Diff.Delta16), num(r.Diff.Delta25), num(r.Diff.Delta34),
		string(r.Diff.Unit), num(r.Elapsed.Seconds()),
	)

	if r.FitDiff != nil {
		rec = append(rec,
			num(r.FitDiff.Delta16), num(r.FitDiff.Delta25), num(r.FitDiff.Delta34),
			num(r.IdleFit.Result.Cost), num(r.ActiveFit.Result.Cost), num(r.FitElapsed.Seconds()),
		)
	} else {
		rec = append(rec, "", "", "", "", "", "")
	}

	return append(rec, "")
}

func metrics(m splitting.Metrics) []string {
	return []string{num(m.Delta16), num(m.Delta25), num(m.Delta34)}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
