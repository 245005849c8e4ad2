package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const logLevelEnvKey = "TMPBIN_LOG_LEVEL"

func configureLogger(flagLevel, configLevel string) error {
	raw := flagLevel
	if strings.TrimSpace(raw) == "" {
		raw = os.Getenv(logLevelEnvKey)
	}
	if strings.TrimSpace(raw) == "" {
		raw = configLevel
	}

	level, err := parseLogLevel(raw)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return slog.LevelInfo, nil
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}
