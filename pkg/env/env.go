// Package env provides the process environment shared by the binaries.
package env

import (
	"flag"
	"os"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/sonic-howl/frc2025/pkg/comm/mqtt"
)

// AppID salts the machine ID so the robot ID is not the raw machine ID.
const AppID = "frc2025-swerve"

// Config carries the identity and broker of the robot.
type Config struct {
	// RobotID identifies the robot, defaults to a machine derived ID.
	RobotID string
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
}

var defaultConfig = Config{}

func init() {
	if val := os.Getenv("SWERVE_ROBOT_ID"); val != "" {
		defaultConfig.RobotID = val
	}
	if val := os.Getenv("SWERVE_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.RobotID, "robot-id", defaultConfig.RobotID, "Robot ID, defaults to machine ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ID returns the configured robot ID or falls back to RobotID().
func (c *Config) ID() string {
	if c.RobotID != "" {
		return c.RobotID
	}
	return RobotID()
}

// BrokerURL returns the broker URL with the robot namespace appended
// when the URL has no topic prefix.
func (c *Config) BrokerURL() string {
	u := c.MQTTBrokerURL
	if u == "" {
		return ""
	}
	rest := u
	if n := strings.Index(rest, "://"); n >= 0 {
		rest = rest[n+3:]
	}
	if n := strings.IndexAny(rest, "/?"); n < 0 || rest[n] == '?' || rest[n:] == "/" || strings.HasPrefix(rest[n:], "/?") {
		base, query := u, ""
		if q := strings.Index(u, "?"); q >= 0 {
			base, query = u[:q], u[q:]
		}
		return strings.TrimSuffix(base, "/") + "/frc/" + c.ID() + "/" + query
	}
	return u
}

// NewQueue connects to the broker. It returns nil when no broker is
// configured.
func (c *Config) NewQueue(role string) (*mqtt.Queue, error) {
	u := c.BrokerURL()
	if u == "" {
		return nil, nil
	}
	q, err := mqtt.NewQueueFromURL(u, role+"-"+c.ID())
	if err != nil {
		return nil, err
	}
	if err = q.Connect(); err != nil {
		return nil, err
	}
	return q, nil
}

// RobotID retrieves an ID unique to this machine. It falls back to the
// host name when the machine ID is not available.
func RobotID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return id[:12]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "robot"
}
