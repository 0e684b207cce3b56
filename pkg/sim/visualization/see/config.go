package see

import (
	"flag"
	"time"
)

// Config represents configuration for see.
type Config struct {
	// W and H are the field size in mm.
	W float64
	H float64
	// Interval between two reports, zero reports every iteration.
	Interval time.Duration
}

var defaultConfig = Config{
	W:        16540,
	H:        8210,
	Interval: 50 * time.Millisecond,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.W, "see-w", defaultConfig.W, "Width (mm) of the field")
	flag.Float64Var(&defaultConfig.H, "see-h", defaultConfig.H, "Height (mm) of the field")
	flag.DurationVar(&defaultConfig.Interval, "see-interval", defaultConfig.Interval, "Minimum interval between visualization reports")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewAdapter creates adapter from config.
func (c *Config) NewAdapter() *Adapter {
	return NewAdapter(c)
}
