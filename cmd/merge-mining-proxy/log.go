package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
	"github.com/sturdilythatch87/tari/utils"
)

const (
	logRotateThresholdKB = 10 * 1024
	logMaxRolls          = 3
)

// setupLogging sets the log level and tees the log into a rotated file when configured.
// The returned closer is nil without a log file
func setupLogging(cfg *config) (io.Closer, error) {
	utils.GlobalLogLevel = cfg.logLevel

	if cfg.LogFile == "" {
		return nil, nil
	}

	if logDir := filepath.Dir(cfg.LogFile); logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return nil, errors.Errorf("failed to create log directory: %+v", err)
		}
	}

	r, err := rotator.New(cfg.LogFile, logRotateThresholdKB, false, logMaxRolls)
	if err != nil {
		return nil, errors.Errorf("failed to create file rotator: %s", err)
	}
	utils.SetLogWriter(io.MultiWriter(os.Stdout, r))
	return r, nil
}
