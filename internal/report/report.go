// Package report lays out the run folder and writes the console table, the
// run log and the results table of a run.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HamletTheHamster/esr-splitting/internal/dataset"
	"github.com/HamletTheHamster/esr-splitting/internal/pipeline"
)

// RunDir creates and returns base/<date>/<time>: note.
func RunDir(
	base, note string,
	now time.Time,
) (
	string, error,
) {

	name := now.Format("15:04:05")
	if note != "" {
		name += ": " + note
	}

	dir := filepath.Join(base, now.Format("2006-Jan-02"), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}

	return dir, nil
}

// Header describes a run at the top of the console output and the log.
type Header struct {
	DataDir string
	Note    string
	Slide   bool
	Fit     bool
	Solver  string
	Unit    string
	Idle    int
	Active  int
}

// Log echoes every line to out and keeps it for log.txt.
type Log struct {
	out   io.Writer
	lines []string
}

func NewLog(out io.Writer) *Log {
	return &Log{out: out}
}

func (l *Log) Printf(format string, a ...interface{}) {
	s := fmt.Sprintf(format, a...)
	l.lines = append(l.lines, s)
	if l.out != nil {
		fmt.Fprint(l.out, s)
	}
}

func (l *Log) Lines() []string {
	return append([]string(nil), l.lines...)
}

func (l *Log) Header(h Header) {
	l.Printf("Data: %s\n", h.DataDir)
	if h.Note != "" {
		l.Printf("Runtime note: %s\n", h.Note)
	}
	if h.Slide {
		l.Printf("Figures formatted for slide presentation\n")
	}
	if h.Fit {
		l.Printf("Multiplet fit: %s solver\n", h.Solver)
	}
	l.Printf("\n*%d idle x %d active sweeps*\n\n", h.Idle, h.Active)
	l.Printf("%-24s %-24s %14s %14s %14s %10s\n",
		"Idle", "Active", "Δ16 ("+h.Unit+")", "Δ25 ("+h.Unit+")", "Δ34 ("+h.Unit+")", "Time (s)",
	)
	l.Printf("%s\n", strings.Repeat("-", 105))
}

// Pair prints one row of the console table, followed by the fitted
// differences when the pair was fitted and the statistics of every sweep
// that loaded.
func (l *Log) Pair(r pipeline.PairResult) {
	idle, active := dataset.Base(r.Idle), dataset.Base(r.Active)

	defer l.scan(r.ActiveAnalysis)
	defer l.scan(r.IdleAnalysis)

	if r.Err != nil {
		l.Printf("%-24s %-24s failed: %v\n", idle, active, r.Err)
		return
	}

	l.Printf("%-24s %-24s %14.6f %14.6f %14.6f %10.3f\n",
		idle, active, r.Diff.Delta16, r.Diff.Delta25, r.Diff.Delta34, r.Elapsed.Seconds(),
	)

	if r.FitDiff != nil {
		l.Printf("%-24s %-24s %14.6f %14.6f %14.6f %10.3f  cost %.4g / %.4g\n",
			"", "  fitted", r.FitDiff.Delta16, r.FitDiff.Delta25, r.FitDiff.Delta34,
			r.FitElapsed.Seconds(), r.IdleFit.Result.Cost, r.ActiveFit.Result.Cost,
		)
	}
}

// scan prints the array shape and the per channel mean and standard
// deviation of one sweep.
func (l *Log) scan(a pipeline.Analysis) {
	if len(a.Stats) == 0 {
		return
	}

	line := fmt.Sprintf("%4s%-7s shape %v", "", a.Condition, a.Shape)
	for _, s := range a.Stats {
		line += fmt.Sprintf("  ch%d mean %.6g std %.6g", s.Channel, s.Mean, s.StdDev)
	}
	l.Printf("%s\n", line)
}

// Summary closes the table with the failure count and total run time.
func (l *Log) Summary(results []pipeline.PairResult, total time.Duration) {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	l.Printf("%s\n", strings.Repeat("-", 105))
	l.Printf("%d pairs, %d failed, %.3f s\n", len(results), failed, total.Seconds())
}

// WriteLog writes the collected lines to dir/log.txt.
func WriteLog(
	dir string,
	lines []string,
) error {

	txt, err := os.Create(filepath.Join(dir, "log.txt"))
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer txt.Close()

	w := bufio.NewWriter(txt)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return txt.Close()
}
