package shaper

import (
	"flag"
	"time"
)

// Config defines the rate limits of the input shaper.
type Config struct {
	// DirectionSlewRate is the allowed turn rate (rad/s) of the
	// translation direction at full magnitude.
	DirectionSlewRate float64 `yaml:"direction_slew_rate"`
	// MagnitudeSlewRate is the allowed change of translation magnitude
	// per second.
	MagnitudeSlewRate float64 `yaml:"magnitude_slew_rate"`
	// RotationSlewRate is the allowed change of rotation input per second.
	RotationSlewRate float64 `yaml:"rotation_slew_rate"`
	// Period is the elapsed time assumed for the very first sample.
	Period time.Duration `yaml:"period"`
}

var defaultConfig = Config{
	DirectionSlewRate: 1.2,
	MagnitudeSlewRate: 1.8,
	RotationSlewRate:  2.0,
	Period:            20 * time.Millisecond,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.DirectionSlewRate, "direction-slew-rate", defaultConfig.DirectionSlewRate, "Translation direction slew rate (rad/s) at full speed.")
	flag.Float64Var(&defaultConfig.MagnitudeSlewRate, "magnitude-slew-rate", defaultConfig.MagnitudeSlewRate, "Translation magnitude slew rate (1/s).")
	flag.Float64Var(&defaultConfig.RotationSlewRate, "rotation-slew-rate", defaultConfig.RotationSlewRate, "Rotation slew rate (1/s).")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewPolarLimiter creates a limiter using the config.
func (c *Config) NewPolarLimiter() *PolarLimiter {
	return NewPolarLimiter(*c)
}
