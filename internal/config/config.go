// Package config loads the ambient, environment-variable-driven settings
// shared across TURTLE: where the tile archive lives and how big its
// cache may grow, the Stepper's default LLA parameters, and the glog
// verbosity level.
package config

import (
	"flag"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/golang/glog"
)

// Config holds every environment-derived TURTLE setting.
type Config struct {
	Stack   StackConfig
	Stepper StepperConfig
	Codec   CodecConfig
}

// StackConfig configures the bounded tile archive.
type StackConfig struct {
	// Root is the directory internal/stack scans for archived tiles.
	Root string
	// MaxSize is the maximum number of resident tiles (0 = unbounded).
	MaxSize int
}

// StepperConfig carries the default LLA parameters applied by
// stepper.New() unless a caller overrides them.
type StepperConfig struct {
	LocalRange       float64
	SlopeFactor      float64
	ResolutionFactor float64
}

// CodecConfig configures the extension-keyed file format registry.
type CodecConfig struct {
	// DefaultExtension is used when a caller asks to dump a Map without
	// naming a format explicitly.
	DefaultExtension string
}

var (
	loadOnce sync.Once
	loaded   *Config
)

// Load reads configuration from environment variables with sensible
// defaults, and sets the glog verbosity level as a side effect. The
// environment is only consulted once per process; every component that
// wires in ambient configuration (internal/stack, internal/stepper,
// internal/codec) shares the same cached *Config rather than re-parsing
// and re-applying the glog verbosity on every call.
func Load() *Config {
	loadOnce.Do(func() {
		setGlogVerbosity(getEnvInt("TURTLE_LOG_VERBOSITY", 0))
		loaded = &Config{
			Stack: StackConfig{
				Root:    getEnv("TURTLE_STACK_ROOT", "."),
				MaxSize: getEnvInt("TURTLE_STACK_MAX_SIZE", 0),
			},
			Stepper: StepperConfig{
				LocalRange:       getEnvFloat("TURTLE_LLA_LOCAL_RANGE", 1),
				SlopeFactor:      getEnvFloat("TURTLE_LLA_SLOPE_FACTOR", 0.4),
				ResolutionFactor: getEnvFloat("TURTLE_LLA_RESOLUTION_FACTOR", 0.01),
			},
			Codec: CodecConfig{
				DefaultExtension: getEnv("TURTLE_DEFAULT_EXTENSION", "png"),
			},
		}
	})
	return loaded
}

// getEnv gets an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a fallback default
// value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("turtle: invalid integer value for %s: %s, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a fallback default
// value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Printf("turtle: invalid float value for %s: %s, using default %g", key, value, defaultValue)
	}
	return defaultValue
}

// setGlogVerbosity sets glog's -v level programmatically, since TURTLE is
// a library with no flag.Parse() call of its own.
func setGlogVerbosity(level int) {
	if err := flag.Set("v", strconv.Itoa(level)); err != nil {
		glog.Warningf("turtle: failed to set glog verbosity to %d: %v", level, err)
	}
}

// Validate checks that the stack max size and the stepper local range are
// not negative.
func (c *Config) Validate() error {
	if c.Stack.MaxSize < 0 {
		return turtleConfigError("stack max_size must be >= 0")
	}
	if c.Stepper.LocalRange < 0 {
		return turtleConfigError("stepper local_range must be >= 0")
	}
	return nil
}

type turtleConfigError string

func (e turtleConfigError) Error() string { return string(e) }
