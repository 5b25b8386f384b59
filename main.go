package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/RyanRen-Tamar/GameFloaty/app"
)

func main() {
	app.New(newLogger()).Run()
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if os.Getenv("GAMEFLOATY_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
