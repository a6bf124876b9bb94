// Package dataset finds the idle and active sweeps of a measurement campaign
// and loads them from their .npy array and .yaml metadata pair.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrMissingDir       = errors.New("dataset: data directory does not exist")
	ErrMetaMismatch     = errors.New("dataset: metadata does not match the sweep")
	ErrUnsupportedArray = errors.New("dataset: unsupported array")
)

const (
	DefaultIdleDir   = "without_current"
	DefaultActiveDir = "with_current"

	arrayExt = ".npy"
	metaExt  = ".yaml"
)

// FileSet is the stems of every sweep found for one run. A stem is a path
// without extension; <stem>.npy and <stem>.yaml belong together.
type FileSet struct {
	Idle   []string
	Active []string
}

// Pair is one idle sweep compared against one active sweep.
type Pair struct {
	Idle   string
	Active string
}

// Pairs returns every idle and active combination, idle-major.
func (fs FileSet) Pairs() []Pair {
	pairs := make([]Pair, 0, len(fs.Idle)*len(fs.Active))
	for _, idle := range fs.Idle {
		for _, active := range fs.Active {
			pairs = append(pairs, Pair{Idle: idle, Active: active})
		}
	}
	return pairs
}

// Discover lists the .npy sweeps in root/idleDir and root/activeDir.
func Discover(
	root, idleDir, activeDir string,
) (
	FileSet, error,
) {

	idle, err := stems(filepath.Join(root, idleDir))
	if err != nil {
		return FileSet{}, err
	}

	active, err := stems(filepath.Join(root, activeDir))
	if err != nil {
		return FileSet{}, err
	}

	return FileSet{Idle: idle, Active: active}, nil
}

func stems(
	dir string,
) (
	[]string, error,
) {

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrMissingDir, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dataset: reading %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, arrayExt) {
			continue
		}

		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}

		out = append(out, strings.TrimSuffix(path, arrayExt))
	}

	return out, nil
}

// Base is the file name of a stem, for logs and reports.
func Base(stem string) string {
	return filepath.Base(stem)
}
