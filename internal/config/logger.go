package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the process-wide logger. JSON in release mode so the
// gate pipeline's soft-failure logs stay machine-parseable.
func InitLogger() {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(new(logrus.JSONFormatter))
	logrus.SetLevel(logrus.InfoLevel)

	if os.Getenv("GIN_MODE") != "release" {
		logrus.SetFormatter(new(logrus.TextFormatter))
		logrus.SetLevel(logrus.DebugLevel)
	}
}
