package vision

import (
	"flag"
	"net"
	"net/url"

	"github.com/pkg/errors"

	"github.com/sonic-howl/frc2025/pkg/comm"
	"github.com/sonic-howl/frc2025/pkg/comm/mqtt"
	"github.com/sonic-howl/frc2025/pkg/comm/stream"
	"github.com/sonic-howl/frc2025/pkg/comm/websocket"
)

// Config selects where vision samples come from.
type Config struct {
	// Source is one of:
	//   ""               disabled
	//   mqtt             the vision/botpose topic on the robot's broker
	//   ws://host/path   a websocket server sending BotPose frames
	//   tcp://host:port  length-prefixed BotPose packets
	Source string
	// StdDevs overrides the estimator's default vision uncertainty when
	// non-zero.
	StdDevs [3]float64
}

var defaultConfig = Config{}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Source, "vision", defaultConfig.Source, "Vision source: mqtt, ws://..., tcp://host:port")
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

// ErrNoBroker is returned for the mqtt source without a broker.
var ErrNoBroker = errors.New("mqtt vision source requires a broker")

// OpenSource opens the configured source, q is only used by the mqtt
// source. It returns nil when vision is disabled.
func (c *Config) OpenSource(q *mqtt.Queue) (comm.PacketReader, error) {
	if c.Source == "" {
		return nil, nil
	}
	if c.Source == "mqtt" {
		if q == nil {
			return nil, ErrNoBroker
		}
		return mqtt.NewPacketReadWriter(q).ForVision(), nil
	}
	u, err := url.Parse(c.Source)
	if err != nil {
		return nil, errors.Wrapf(err, "vision source %q", c.Source)
	}
	switch u.Scheme {
	case "ws", "wss":
		rw, err := websocket.Dial(c.Source, "")
		if err != nil {
			return nil, err
		}
		return rw, nil
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, errors.Wrapf(err, "vision source %q", c.Source)
		}
		return stream.New(conn), nil
	}
	return nil, errors.Errorf("unknown vision source %q", c.Source)
}

// NewReceiver opens the source and wraps it in a Receiver. It returns nil
// when vision is disabled.
func (c *Config) NewReceiver(q *mqtt.Queue) (*Receiver, error) {
	reader, err := c.OpenSource(q)
	if err != nil || reader == nil {
		return nil, err
	}
	return NewReceiver(reader, c.StdDevs), nil
}
