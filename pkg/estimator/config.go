package estimator

import (
	"flag"
	"time"

	"github.com/sonic-howl/frc2025/pkg/kinematics"
)

// Config defines the tuning of the pose estimator.
type Config struct {
	// StateStdDevs is the trust in odometry for x (m), y (m), heading (rad).
	StateStdDevs [3]float64 `yaml:"state_std_devs"`
	// VisionStdDevs is used for samples without their own uncertainty.
	VisionStdDevs [3]float64 `yaml:"vision_std_devs"`
	// HistoryWindow is how far back vision samples may be applied.
	HistoryWindow time.Duration `yaml:"history_window"`
	// HistoryCapacity bounds the number of buffered odometry poses.
	HistoryCapacity int `yaml:"history_capacity"`
	// FutureTolerance accepts samples stamped slightly after the newest
	// odometry update.
	FutureTolerance time.Duration `yaml:"future_tolerance"`
	// MaxWheelSpeed (m/s) bounds the wheel travel plausible between two
	// updates, together with GlitchMargin and GlitchSlack (m).
	MaxWheelSpeed float64 `yaml:"max_wheel_speed"`
	GlitchMargin  float64 `yaml:"glitch_margin"`
	GlitchSlack   float64 `yaml:"glitch_slack"`
}

var defaultConfig = Config{
	StateStdDevs:    [3]float64{0.1, 0.1, 0.1},
	VisionStdDevs:   [3]float64{0.7, 0.7, 9999999},
	HistoryWindow:   1500 * time.Millisecond,
	HistoryCapacity: 256,
	FutureTolerance: 100 * time.Millisecond,
	MaxWheelSpeed:   4.8,
	GlitchMargin:    2,
	GlitchSlack:     0.05,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.HistoryWindow, "pose-history", defaultConfig.HistoryWindow, "How long odometry history is kept for late vision samples.")
	flag.Float64Var(&defaultConfig.VisionStdDevs[0], "vision-std-x", defaultConfig.VisionStdDevs[0], "Default vision standard deviation along X (m).")
	flag.Float64Var(&defaultConfig.VisionStdDevs[1], "vision-std-y", defaultConfig.VisionStdDevs[1], "Default vision standard deviation along Y (m).")
	flag.Float64Var(&defaultConfig.VisionStdDevs[2], "vision-std-heading", defaultConfig.VisionStdDevs[2], "Default vision standard deviation of heading (rad).")
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

// NewEstimator creates an estimator using the config.
func (c *Config) NewEstimator(k *kinematics.Kinematics) *Estimator {
	return New(*c, k)
}
