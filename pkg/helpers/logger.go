package helpers

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates the service logger. Development gets human-readable text
// at debug level; everything else logs JSON at info level.
func NewLogger(serviceName, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.WithFields(logrus.Fields{"service": serviceName, "env": env}).Info("logger initialized")
	return logger
}
