package build

import (
	"fmt"
	"os"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// InitLogging sets up the process logging backend: a console handler on
// stdout plus, when logDir is non-empty, a rotating file handler. The
// returned cleanup function flushes and closes the file rotator.
func InitLogging(levelStr, logDir string) (*HandlerSet, func(), error) {
	level, ok := btclog.LevelFromString(levelStr)
	if !ok {
		return nil, nil, fmt.Errorf("invalid log level: %s", levelStr)
	}

	handlers := []btclogv2.Handler{
		btclogv2.NewDefaultHandler(os.Stdout),
	}
	cleanup := func() {}

	if logDir != "" {
		writer := NewRotatingLogWriter()

		cfg := DefaultLogRotatorConfig()
		cfg.LogDir = logDir
		if err := writer.InitLogRotator(cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to init log "+
				"rotator: %w", err)
		}

		handlers = append(handlers, btclogv2.NewDefaultHandler(writer))
		cleanup = func() {
			_ = writer.Close()
		}
	}

	set := NewHandlerSet(handlers...)
	set.SetLevel(level)

	return set, cleanup, nil
}

// NewSubLogger creates a logger tagged with the given subsystem, backed by
// the given handler set.
func NewSubLogger(h *HandlerSet, tag string) btclogv2.Logger {
	return btclogv2.NewSLogger(h.SubSystem(tag))
}
