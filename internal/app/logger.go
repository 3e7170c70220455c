package app

import (
	"strings"

	"github.com/charlesng35/hvacquote/pkg/logger"
)

// ConfigureLogging initialises the global logger with the provided level and format,
// defaulting to info and JSON.
func ConfigureLogging(level, format string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.InitWithOptions(logger.Options{Level: level, Format: format})
}
