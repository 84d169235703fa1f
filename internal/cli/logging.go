package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/slmhealth/internal/core/config"
)

// setupLogging installs the default logger: JSON lines for "json", tint otherwise.
func setupLogging(cfg config.LoggingConfig, debug bool, out io.Writer) {
	level := cfg.LogLevel()
	if debug {
		level = slog.LevelDebug
	}

	if strings.EqualFold(cfg.Format, "json") {
		slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})))
		return
	}

	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}

func setupDefaultLogging(cfg config.LoggingConfig, debug bool) {
	setupLogging(cfg, debug, os.Stderr)
}
