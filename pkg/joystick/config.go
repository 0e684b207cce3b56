package joystick

import (
	"flag"
)

// Config defines the configurations for the controller.
type Config struct {
	DeviceIndex int
	Verbose     bool
	Deadband    float64
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Deadband:    DefaultDeadband,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "joystick-device", defaultConfig.DeviceIndex, "Joystick device index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "joystick-verbose", defaultConfig.Verbose, "Print Joystick events.")
	flag.Float64Var(&defaultConfig.Deadband, "joystick-deadband", defaultConfig.Deadband, "Joystick axis deadband.")
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

// NewController creates a controller using the config.
func (c *Config) NewController() *Controller {
	ctl := NewController()
	ctl.DeviceIndex = c.DeviceIndex
	ctl.Verbose = c.Verbose
	ctl.Mapper.Deadband = c.Deadband
	return ctl
}
