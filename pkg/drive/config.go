package drive

import (
	"flag"
	"io/ioutil"
	"math"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/sonic-howl/frc2025/pkg/estimator"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/geometry"
	"github.com/sonic-howl/frc2025/pkg/kinematics"
	"github.com/sonic-howl/frc2025/pkg/shaper"
)

const inch = 0.0254

// Chassis dimensions between wheel contact points.
const (
	WheelBase  = 27 * inch
	TrackWidth = 23 * inch
)

// ModuleConfig places one swerve module.
type ModuleConfig struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	// AngularOffset (rad) is the mechanical zero of the steering sensor
	// in robot frame.
	AngularOffset float64 `yaml:"angular_offset"`
}

// Geometry converts to kinematics.ModuleGeometry.
func (m ModuleConfig) Geometry() kinematics.ModuleGeometry {
	return kinematics.ModuleGeometry{
		Name:          m.Name,
		Offset:        geometry.Translation2D{X: m.X, Y: m.Y},
		AngularOffset: geometry.RotationFromRadians(m.AngularOffset),
	}
}

// Config defines the drivetrain.
type Config struct {
	Modules []ModuleConfig `yaml:"modules"`
	// MaxSpeed (m/s) is both the full scale of operator input and the
	// desaturation limit.
	MaxSpeed float64 `yaml:"max_speed"`
	// MaxAngularSpeed (rad/s) is the full scale of rotation input.
	MaxAngularSpeed float64 `yaml:"max_angular_speed"`
	// RateLimit enables the polar slew limiter on operator input.
	RateLimit bool `yaml:"rate_limit"`
	// FieldRelative is the initial interpretation of operator input.
	FieldRelative bool `yaml:"field_relative"`
	// CenterOfRotation is the pivot of rotation commands in robot frame.
	CenterOfRotation geometry.Translation2D `yaml:"center_of_rotation"`
	// Period is the control loop period.
	Period time.Duration `yaml:"period"`

	Shaper    shaper.Config    `yaml:"shaper"`
	Estimator estimator.Config `yaml:"estimator"`
}

// DefaultModules is the four module layout of the robot.
func DefaultModules() []ModuleConfig {
	x, y := WheelBase/2, TrackWidth/2
	return []ModuleConfig{
		{Name: "front-left", X: x, Y: y, AngularOffset: -math.Pi / 2},
		{Name: "front-right", X: x, Y: -y, AngularOffset: 0},
		{Name: "back-left", X: -x, Y: y, AngularOffset: math.Pi},
		{Name: "back-right", X: -x, Y: -y, AngularOffset: math.Pi / 2},
	}
}

var (
	defaultConfig = Config{
		MaxSpeed:        4.8,
		MaxAngularSpeed: 2 * math.Pi,
		RateLimit:       true,
		Period:          fx.DefaultInterval,
	}
	configFile string
)

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "drive-config", configFile, "YAML file overriding the drivetrain configuration")
	flag.Float64Var(&defaultConfig.MaxSpeed, "max-speed", defaultConfig.MaxSpeed, "Maximum wheel speed (m/s)")
	flag.Float64Var(&defaultConfig.MaxAngularSpeed, "max-angular-speed", defaultConfig.MaxAngularSpeed, "Maximum rotation speed (rad/s)")
	flag.BoolVar(&defaultConfig.RateLimit, "rate-limit", defaultConfig.RateLimit, "Slew rate limit operator input")
	flag.BoolVar(&defaultConfig.FieldRelative, "field-relative", defaultConfig.FieldRelative, "Start with field relative operator input")
	shaper.SetupFlags()
	estimator.SetupFlags()
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config from the defaults of this and the
// underlying packages.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Modules = DefaultModules()
	conf.Shaper = *shaper.NewConfig()
	conf.Estimator = *estimator.NewConfig()
	// glitch rejection follows max_speed unless set explicitly.
	conf.Estimator.MaxWheelSpeed = 0
	return &conf
}

// EstimatorConfig returns Estimator with an unset max_wheel_speed
// replaced by MaxSpeed.
func (c *Config) EstimatorConfig() *estimator.Config {
	ec := c.Estimator
	if ec.MaxWheelSpeed == 0 {
		ec.MaxWheelSpeed = c.MaxSpeed
	}
	return &ec
}

// LoadConfig returns NewConfig overridden by the -drive-config file.
func LoadConfig() (*Config, error) {
	if configFile == "" {
		return NewConfig(), nil
	}
	return LoadConfigFile(configFile)
}

// LoadConfigFile reads a YAML file on top of NewConfig.
func LoadConfigFile(fn string) (*Config, error) {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return nil, errors.Wrap(err, "read drive config")
	}
	conf := NewConfig()
	if err := conf.UnmarshalYAMLBytes(data); err != nil {
		return nil, errors.Wrapf(err, "parse %s", fn)
	}
	return conf, nil
}

// UnmarshalYAMLBytes overrides fields present in data.
func (c *Config) UnmarshalYAMLBytes(data []byte) error {
	return yaml.UnmarshalStrict(data, c)
}

// Geometry returns the module geometry.
func (c *Config) Geometry() []kinematics.ModuleGeometry {
	geoms := make([]kinematics.ModuleGeometry, len(c.Modules))
	for n, m := range c.Modules {
		geoms[n] = m.Geometry()
	}
	return geoms
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs fx.AggregatedError
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs.Add(errors.Errorf("%s must be positive, got %v", name, v))
		}
	}
	if len(c.Modules) < 2 {
		errs.Add(errors.Errorf("at least 2 modules required, got %d", len(c.Modules)))
	}
	names := make(map[string]bool)
	for n, m := range c.Modules {
		if m.Name == "" {
			errs.Add(errors.Errorf("module %d has no name", n))
		} else if names[m.Name] {
			errs.Add(errors.Errorf("module name %q is duplicated", m.Name))
		}
		names[m.Name] = true
	}
	positive("max_speed", c.MaxSpeed)
	positive("max_angular_speed", c.MaxAngularSpeed)
	positive("period", c.Period.Seconds())
	positive("shaper.direction_slew_rate", c.Shaper.DirectionSlewRate)
	positive("shaper.magnitude_slew_rate", c.Shaper.MagnitudeSlewRate)
	positive("shaper.rotation_slew_rate", c.Shaper.RotationSlewRate)
	for n := 0; n < 3; n++ {
		positive("estimator.state_std_devs", c.Estimator.StateStdDevs[n])
		positive("estimator.vision_std_devs", c.Estimator.VisionStdDevs[n])
	}
	positive("estimator.history_window", c.Estimator.HistoryWindow.Seconds())
	if ws := c.Estimator.MaxWheelSpeed; ws != 0 && !(ws >= c.MaxSpeed) {
		errs.Add(errors.Errorf("estimator.max_wheel_speed %v is below max_speed %v", ws, c.MaxSpeed))
	}
	return errs.Aggregate()
}
