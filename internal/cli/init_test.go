package cli

import (
	"context"
	"log/slog"
	"testing"

	"finwell/internal/config"
)

func TestSetupLoggerInstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := &config.Config{LogLevel: "debug", LogFormat: "json"}
	logger := SetupLogger(cfg, "worker")

	if logger.Component() != "worker" {
		t.Errorf("Component() = %q, want worker", logger.Component())
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("default logger should have debug enabled")
	}
}

func TestNewMetrics(t *testing.T) {
	if NewMetrics(&config.Config{MetricsEnabled: false}) != nil {
		t.Error("disabled metrics should be nil")
	}
	if NewMetrics(&config.Config{MetricsEnabled: true}) == nil {
		t.Error("enabled metrics should not be nil")
	}
}
