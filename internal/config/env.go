package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvUint64 returns the parsed value of EnvPrefix+key, or defaultVal if
// the variable is unset or invalid.
func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvUint(key string, defaultVal uint) uint {
	return uint(getEnvUint64(key, uint64(defaultVal)))
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool accepts "true", "1", "yes" and "false", "0", "no", case-insensitively.
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration accepts time.ParseDuration formats such as "5m" or "1h30m".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet reports whether a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// applyEnvOverrides applies environment values to every flag that was not
// set on the command line (CLI flags > environment > defaults).
//
// Supported environment variables:
//   - PM1_MINUS_ONE, PM1_CPU (bool)
//   - PM1_BACKEND (string), PM1_LANES (int)
//   - PM1_BOUND_MAX, PM1_BOUND_START, PM1_BOUND_STEP (uint64)
//   - PM1_MAX_FACTOR_BITS (uint)
//   - PM1_PRIMES (int), PM1_PRIME_CACHE (string)
//   - PM1_TIMEOUT (duration: "5m", "30s")
//   - PM1_JSON, PM1_QUIET, PM1_NO_COLOR, PM1_SERVER (bool)
//   - PM1_LOG_LEVEL, PM1_PORT, PM1_CALIBRATION_PROFILE (string)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyDurationOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "bound-max") {
		config.BoundMax = getEnvUint64("BOUND_MAX", config.BoundMax)
	}
	if !isFlagSet(fs, "bound-start") {
		config.BoundStart = getEnvUint64("BOUND_START", config.BoundStart)
	}
	if !isFlagSet(fs, "bound-step") {
		config.BoundStep = getEnvUint64("BOUND_STEP", config.BoundStep)
	}
	if !isFlagSet(fs, "max-factor-bits") {
		config.MaxFactorBits = getEnvUint("MAX_FACTOR_BITS", config.MaxFactorBits)
	}
	if !isFlagSet(fs, "primes") {
		config.Primes = getEnvInt("PRIMES", config.Primes)
	}
	if !isFlagSet(fs, "lanes") {
		config.Lanes = getEnvInt("LANES", config.Lanes)
	}
}

func applyDurationOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "backend") {
		config.Backend = getEnvString("BACKEND", config.Backend)
	}
	if !isFlagSet(fs, "prime-cache") {
		config.PrimeCache = getEnvString("PRIME_CACHE", config.PrimeCache)
	}
	if !isFlagSet(fs, "log-level") {
		config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !isFlagSet(fs, "calibration-profile") {
		config.CalibrationProfile = getEnvString("CALIBRATION_PROFILE", config.CalibrationProfile)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "n-1") {
		config.MinusOne = getEnvBool("MINUS_ONE", config.MinusOne)
	}
	if !isFlagSet(fs, "cpu") {
		config.CPU = getEnvBool("CPU", config.CPU)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "quiet") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
}
