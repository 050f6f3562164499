package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"novatask/internal/config"
)

const logLevelEnvKey = "NOVATASK_LOG_LEVEL"

// levelSource says where the active log level came from.
type levelSource string

const (
	levelFromFlag    levelSource = "flag"
	levelFromEnv     levelSource = "env"
	levelFromConfig  levelSource = "config"
	levelFromDefault levelSource = "default"
)

// configureLoggerForCLI installs the default slog logger. Precedence is
// flag, then NOVATASK_LOG_LEVEL, then log_level from config. A bad flag is an
// error; a bad env or config value falls back to the default with a warning.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	envLevel := os.Getenv(logLevelEnvKey)
	raw, source := selectedLogLevel(flagLevel, envLevel, configLevel)

	level, err := parseLogLevel(raw)
	if err == nil {
		slog.SetDefault(newLogger(level))
		return "", nil
	}

	if source == levelFromFlag {
		return "", fmt.Errorf("invalid --log-level %q", flagLevel)
	}
	fallback, _ := parseLogLevel(config.DefaultLogLevel)
	slog.SetDefault(newLogger(fallback))

	switch source {
	case levelFromEnv:
		return fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", logLevelEnvKey, envLevel, config.DefaultLogLevel), nil
	case levelFromConfig:
		return fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s", configLevel, config.DefaultLogLevel), nil
	}
	return "", nil
}

func selectedLogLevel(flagLevel, envLevel, configLevel string) (string, levelSource) {
	candidates := []struct {
		raw    string
		source levelSource
	}{
		{flagLevel, levelFromFlag},
		{envLevel, levelFromEnv},
		{configLevel, levelFromConfig},
	}
	for _, c := range candidates {
		if strings.TrimSpace(c.raw) != "" {
			return c.raw, c.source
		}
	}
	return "", levelFromDefault
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "":
		return slog.LevelDebug, nil
	case "warning":
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelDebug, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
