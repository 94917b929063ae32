// Package logging provides application-wide logging configuration.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var verboseEnabled bool

// Init initializes the global logger.
func Init(verbose bool) {
	verboseEnabled = verbose
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// VerboseEnabled reports whether verbose logging is enabled.
func VerboseEnabled() bool {
	return verboseEnabled
}
