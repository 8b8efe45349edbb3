// Package logger construye el logger estructurado de la aplicación.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New crea un logger zerolog según el entorno: en development usa salida de
// consola legible, en cualquier otro caso JSON por línea. El nivel se parsea
// con tolerancia; un nivel desconocido cae en info.
//
// También redirige el logger global de zerolog, para librerías que lo usen.
func New(env, level string) zerolog.Logger {
	var w io.Writer = os.Stderr
	if env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	zl := zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
	log.Logger = zl
	return zl
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
