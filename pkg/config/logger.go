package config

import (
	"io"

	"github.com/sirupsen/logrus"
)

var logLevels = map[string]logrus.Level{
	"trace":    logrus.TraceLevel,
	"debug":    logrus.DebugLevel,
	"info":     logrus.InfoLevel,
	"warn":     logrus.WarnLevel,
	"error":    logrus.ErrorLevel,
	"critical": logrus.FatalLevel,
	"off":      logrus.PanicLevel,
}

// NewLogger configures a logrus logger from the log section.
func NewLogger(cfg Log, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out != nil {
		logger.SetOutput(out)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, ok := logLevels[cfg.Level]; ok {
		logger.SetLevel(level)
	}
	return logger
}
