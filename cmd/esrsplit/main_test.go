package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRun_MissingDataLeavesNoRunFolder(t *testing.T) {
	plots := filepath.Join(t.TempDir(), "plots")

	code := run([]string{"-data", filepath.Join(t.TempDir(), "absent"), "-plots", plots, "-plot", "none"})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}

	if _, err := os.Stat(plots); !os.IsNotExist(err) {
		t.Fatalf("expected no run folder under %s, got %v", plots, err)
	}
}

func TestRun_BadFlag(t *testing.T) {
	if code := run([]string{"-window", "2", "-order", "3"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRun_Help(t *testing.T) {
	if code := run([]string{"-h"}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}
