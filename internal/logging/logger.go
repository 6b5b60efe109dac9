package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It is usable before Bootstrap is called.
var Log = logrus.New()

// Bootstrap configures Log for the running binary. Unknown levels fall back
// to info.
func Bootstrap(level string, json bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	var formatter logrus.Formatter = &logrus.TextFormatter{
		FullTimestamp: true,
	}
	if json {
		formatter = &logrus.JSONFormatter{}
	}

	Log = &logrus.Logger{
		Out:       os.Stdout,
		Hooks:     make(logrus.LevelHooks),
		Formatter: formatter,
		Level:     lvl,
		ExitFunc:  os.Exit,
	}
	Log.SetReportCaller(lvl == logrus.DebugLevel)
}

// Resolve guarantees a non-nil logger for code paths that accept an optional one.
func Resolve(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return Log
	}
	return logger
}
