package server

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bench-arena/bench-arena/internal/config"
	"github.com/bench-arena/bench-arena/internal/constants"
)

// Ready and termination files for the container runtime.

// GetTerminationFile resolves the termination log path: config first, then
// the environment, then a fixed fallback. It must work even when config
// loading failed, so the exit reason can still be reported.
func GetTerminationFile(conf *config.Config, logger *slog.Logger) string {
	if conf != nil && conf.Service != nil {
		if tf := strings.TrimSpace(conf.Service.TerminationFile); tf != "" {
			return tf
		}
	}
	if tf := os.Getenv(constants.EnvVarTerminationFile); tf != "" {
		logger.Info("Termination file set from environment variable", "env", constants.EnvVarTerminationFile, "file", tf)
		return tf
	}
	// must be on a writable filesystem
	tf := "/var/run/bench-arena/termination-log"
	logger.Info("Termination file fallback value", "file", tf)
	return tf
}

func SetReady(conf *config.Config, logger *slog.Logger) error {
	contents := fmt.Sprintf("Version: %s\nBuild: %s\nBuildDate: %s\n",
		conf.Service.Version, conf.Service.Build, conf.Service.BuildDate)
	return writeStatusFile(conf.Service.ReadyFile, contents, "ready", logger)
}

func SetTerminationMessage(terminationFile string, message string, logger *slog.Logger) error {
	return writeStatusFile(terminationFile, message, "termination", logger)
}

func writeStatusFile(fname string, message string, fileType string, logger *slog.Logger) error {
	filename := filepath.Clean(fname)
	err := os.WriteFile(filename, []byte(message), 0o600)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to write the %s file", fileType), "file", filename, "message", message, "error", err.Error())
		return fmt.Errorf("failed to write the %s file %s: %w", fileType, filename, err)
	}
	logger.Info(fmt.Sprintf("Set %s message", fileType), "message", message)
	return nil
}
