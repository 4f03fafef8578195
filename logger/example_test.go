package logger_test

import (
	"errors"

	"github.com/aalemi-dev/sqlguard/logger"
)

func ExampleNewLoggerClient() {
	log, err := logger.NewLoggerClient(logger.Config{
		Level:       logger.Info,
		ServiceName: "example-service",
	})
	if err != nil {
		return
	}

	log.Info("database registry ready", nil, map[string]interface{}{
		"backends": 10,
	})
}

func ExampleLoggerClient_With() {
	log, err := logger.NewLoggerClient(logger.Config{Level: logger.Warning})
	if err != nil {
		return
	}

	users := log.With(map[string]interface{}{"backend": "Users"})
	users.Warn("circuit breaker opened", errors.New("connection refused"))
}
