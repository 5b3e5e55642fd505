// Package config provides the configuration management for the pm1
// application. It defines the configuration structure, parses command-line
// flags with environment overrides, and validates the result.
package config

import (
	"flag"
	"fmt"
	"io"
	"math/big"
	"slices"
	"strings"
	"time"

	apperrors "github.com/agbru/pm1factor/internal/errors"
	"github.com/agbru/pm1factor/internal/logging"
	"github.com/agbru/pm1factor/internal/orchestration"
	"github.com/agbru/pm1factor/internal/pollard"
	"github.com/agbru/pm1factor/internal/primes"
)

const (
	// EnvPrefix is the prefix for all environment variables used by pm1.
	EnvPrefix = "PM1_"
)

// Default configuration values.
const (
	DefaultBoundMax      uint64 = 1 << 25
	DefaultBoundStart    uint64 = 2
	DefaultBoundStep     uint64 = 2048
	DefaultMaxFactorBits uint   = 63
	DefaultPort                 = "8080"
	DefaultLogLevel             = "disabled"

	// MaxFactorBitsLimit caps -max-factor-bits.
	MaxFactorBitsLimit uint = 1 << 16
)

// AppConfig aggregates the settings of a run, parsed from command-line flags
// and PM1_ environment variables.
type AppConfig struct {
	// MinusOne subtracts one from every input before factoring (-n-1).
	MinusOne bool
	// CPU selects the sequential backend when Backend is empty (-cpu).
	CPU bool
	// Backend names the compute backend explicitly and wins over CPU.
	Backend string
	// Lanes is the accelerator lane count; 0 selects the number of CPUs.
	Lanes int

	BoundMax   uint64
	BoundStart uint64
	BoundStep  uint64
	// MaxFactorBits stops the search once a factor of 2^MaxFactorBits or
	// more is found. 0 disables the early stop.
	MaxFactorBits uint

	// Primes is the prime table size.
	Primes int
	// PrimeCache is the path of the binary prime table cache.
	PrimeCache string

	// Timeout bounds the whole batch; 0 means no limit.
	Timeout time.Duration

	JSONOutput bool
	Quiet      bool
	NoColor    bool
	LogLevel   string

	ServerMode bool
	Port       string

	ShowVersion  bool
	ListBackends bool
	// Calibrate benchmarks accelerator lane counts and saves the best one.
	Calibrate bool
	// CalibrationProfile is the path of the lane calibration profile;
	// empty selects ~/.pm1_calibration.json.
	CalibrationProfile string
	// Completion, if set, prints a completion script for this shell.
	Completion string

	// Inputs are the hexadecimal numbers to factor, in order.
	Inputs []string
}

// BackendName resolves the backend to run: an explicit -backend wins, then
// -cpu selects the sequential backend, otherwise the accelerator runs.
func (c AppConfig) BackendName() string {
	switch {
	case c.Backend != "":
		return c.Backend
	case c.CPU:
		return pollard.SequentialName
	default:
		return pollard.AcceleratorName
	}
}

// MaxFactor returns 2^MaxFactorBits, or nil when the early stop is disabled.
func (c AppConfig) MaxFactor() *big.Int {
	if c.MaxFactorBits == 0 {
		return nil
	}
	return new(big.Int).Lsh(big.NewInt(1), c.MaxFactorBits)
}

// OrchestrationConfig returns the bound schedule of the run.
func (c AppConfig) OrchestrationConfig() orchestration.Config {
	cfg := orchestration.DefaultConfig()
	cfg.BoundMax = c.BoundMax
	cfg.BoundStart = c.BoundStart
	cfg.BoundStep = c.BoundStep
	return cfg
}

// BackendOptions returns the backend construction options of the run.
func (c AppConfig) BackendOptions(logger logging.Logger) pollard.Options {
	return pollard.Options{Lanes: c.Lanes, Logger: logger}
}

// Batch reports whether the run factors command-line inputs.
func (c AppConfig) Batch() bool {
	return !c.ServerMode && !c.ShowVersion && !c.ListBackends && !c.Calibrate && c.Completion == ""
}

// Validate checks the semantic consistency of the configuration.
// availableBackends lists the registered backend names.
func (c AppConfig) Validate(availableBackends []string) error {
	if c.BoundStep == 0 {
		return apperrors.NewConfigError("bound step must be strictly positive")
	}
	if c.BoundStart < 1 {
		return apperrors.NewConfigError("bound start must be at least 1")
	}
	if c.BoundStart >= c.BoundMax {
		return apperrors.NewConfigError("bound start (%d) must be below the bound ceiling (%d)", c.BoundStart, c.BoundMax)
	}
	if c.MaxFactorBits > MaxFactorBitsLimit {
		return apperrors.NewConfigError("max factor bits cannot exceed %d: %d", MaxFactorBitsLimit, c.MaxFactorBits)
	}
	if c.Primes < 1 || c.Primes > primes.MaxPrimes {
		return apperrors.NewConfigError("prime table size must be between 1 and %d: %d", primes.MaxPrimes, c.Primes)
	}
	if c.PrimeCache == "" {
		return apperrors.NewConfigError("prime cache path cannot be empty")
	}
	if c.Lanes < 0 {
		return apperrors.NewConfigError("lane count cannot be negative: %d", c.Lanes)
	}
	if c.Timeout < 0 {
		return apperrors.NewConfigError("timeout cannot be negative: %s", c.Timeout)
	}
	if !logging.ValidLevel(c.LogLevel) {
		return apperrors.NewConfigError("unrecognized log level: '%s'", c.LogLevel)
	}
	if name := c.BackendName(); !slices.Contains(availableBackends, name) {
		return apperrors.NewConfigError("unrecognized backend: '%s'. Valid backends are: [%s]", name, strings.Join(availableBackends, ", "))
	}
	if c.Completion != "" && !slices.Contains([]string{"bash", "zsh", "fish"}, c.Completion) {
		return apperrors.NewConfigError("unsupported shell for completion: '%s'", c.Completion)
	}
	if c.ServerMode && c.Port == "" {
		return apperrors.NewConfigError("server mode requires a port")
	}
	if c.JSONOutput && c.Quiet {
		return apperrors.NewConfigError("-json and -quiet are mutually exclusive")
	}
	if c.Batch() && len(c.Inputs) == 0 {
		return apperrors.NewConfigError("no input numbers given")
	}
	return nil
}

// ParseConfig parses args (typically os.Args[1:]) into an AppConfig, applies
// environment overrides for unset flags and validates the result. Usage and
// parse errors are written to errorWriter. It returns flag.ErrHelp when help
// was requested and an apperrors.ConfigError for invalid values.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableBackends []string) (AppConfig, error) {
	config := AppConfig{}
	fs := newFlagSet(programName, errorWriter, availableBackends, &config)
	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	config.Inputs = fs.Args()

	applyEnvOverrides(&config, fs)

	config.Backend = strings.ToLower(config.Backend)
	config.LogLevel = strings.ToLower(config.LogLevel)
	if err := config.Validate(availableBackends); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, err
	}
	return config, nil
}

// FlagNames returns the option names ParseConfig accepts, sorted, for
// completion scripts.
func FlagNames(availableBackends []string) []string {
	var names []string
	newFlagSet("pm1", io.Discard, availableBackends, &AppConfig{}).VisitAll(func(f *flag.Flag) {
		names = append(names, f.Name)
	})
	return names
}

func newFlagSet(programName string, errorWriter io.Writer, availableBackends []string, config *AppConfig) *flag.FlagSet {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	fs.BoolVar(&config.MinusOne, "n-1", false, "Subtract 1 from each input number before factoring.")
	fs.BoolVar(&config.CPU, "cpu", false, "Use the sequential CPU backend instead of the accelerator.")
	fs.StringVar(&config.Backend, "backend", "", fmt.Sprintf("Compute backend, one of [%s] (overrides -cpu).", strings.Join(availableBackends, ", ")))
	fs.IntVar(&config.Lanes, "lanes", 0, "Accelerator lane count (0 uses every logical processor).")
	fs.Uint64Var(&config.BoundMax, "bound-max", DefaultBoundMax, "Exclusive ceiling of the smoothness bound.")
	fs.Uint64Var(&config.BoundStart, "bound-start", DefaultBoundStart, "First smoothness bound of every attempt.")
	fs.Uint64Var(&config.BoundStep, "bound-step", DefaultBoundStep, "Bound increment restored after every accepted factor.")
	fs.UintVar(&config.MaxFactorBits, "max-factor-bits", DefaultMaxFactorBits, "Stop once a factor of at least 2^k is found (0 to disable).")
	fs.IntVar(&config.Primes, "primes", primes.MaxPrimes, "Number of primes in the prime table.")
	fs.StringVar(&config.PrimeCache, "prime-cache", primes.DefaultCacheFile, "Path of the binary prime table cache.")
	fs.DurationVar(&config.Timeout, "timeout", 0, "Maximum duration of the whole batch (0 for no limit).")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output a JSON report instead of the transcript.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Print one line per input.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Structured log level on stderr: debug, info, warn, error or disabled.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print version information and exit.")
	fs.BoolVar(&config.ListBackends, "list-backends", false, "List the available backends and exit.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Benchmark accelerator lane counts and save the fastest.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path of the lane calibration profile (default ~/.pm1_calibration.json).")
	fs.StringVar(&config.Completion, "completion", "", "Generate a shell completion script (bash, zsh, fish).")

	return fs
}
