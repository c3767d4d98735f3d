package main

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// charmLogger adapts charmbracelet/log to the auth package's Logger.
type charmLogger struct {
	l *charmlog.Logger
}

func newLogger(level string) *charmLogger {
	lvl := charmlog.InfoLevel
	switch level {
	case "debug":
		lvl = charmlog.DebugLevel
	case "warn":
		lvl = charmlog.WarnLevel
	case "error":
		lvl = charmlog.ErrorLevel
	}

	return &charmLogger{
		l: charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			Level:           lvl,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          "blogify-auth",
		}),
	}
}

func (c *charmLogger) Debug(msg string, args ...any) { c.l.Debug(msg, args...) }
func (c *charmLogger) Info(msg string, args ...any)  { c.l.Info(msg, args...) }
func (c *charmLogger) Warn(msg string, args ...any)  { c.l.Warn(msg, args...) }
func (c *charmLogger) Error(msg string, args ...any) { c.l.Error(msg, args...) }
