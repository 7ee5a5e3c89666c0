package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the shared logger used throughout the project.
var Log = log.Logger

// Configure sets the global level and output. Development gets the
// human-readable console writer, everything else emits JSON lines.
func Configure(level string, development bool) {
	ConfigureOutput(os.Stderr, level, development)
}

// ConfigureOutput is Configure with an explicit writer.
func ConfigureOutput(w io.Writer, level string, development bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if development {
		w = zerolog.ConsoleWriter{Out: w}
	}
	Log = zerolog.New(w).With().Timestamp().Logger()
}
