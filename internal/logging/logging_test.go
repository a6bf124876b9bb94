package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HamletTheHamster/esr-splitting/internal/logging"
)

func TestNew_DefaultLevel(t *testing.T) {
	logger, err := logging.New()
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) || logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected info level by default")
	}
}

func TestNew_WithLevel(t *testing.T) {
	logger, err := logging.New(logging.WithLevel("debug"))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level")
	}

	logger, err = logging.New(logging.WithLevel("unknown"))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) || !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info level on unknown level")
	}
}

func TestNew_WithOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	logger, err := logging.New(logging.WithJSON(true), logging.WithOutput(path))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	logger.Info("fitted", zap.String("stem", "sweep"))
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"stem":"sweep"`) {
		t.Fatalf("expected JSON field in log, got %q", b)
	}
}
