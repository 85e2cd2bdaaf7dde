// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global level and routes console output to w (stderr when nil).
// Stdout is reserved for the rendered completion.
func Init(debug bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	})
}
