// Package joystick drives the robot from a gamepad.
package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/sonic-howl/frc2025/pkg/framework"
	"github.com/sonic-howl/frc2025/pkg/joystick/device"
)

// DefaultRetryInterval is the delay between attempts to open a device.
const DefaultRetryInterval = time.Second

// Controller reads a joystick device in the background and posts operator
// input to the loop. A lost device stops the robot and is reopened.
type Controller struct {
	DeviceIndex   int
	Verbose       bool
	Mapper        *Mapper
	RetryInterval time.Duration
	// Open replaces device detection when set.
	Open func(index int) (device.Device, error)

	openFailed bool
}

// NewController creates a Controller.
func NewController() *Controller {
	return &Controller{
		DeviceIndex:   defaultConfig.DeviceIndex,
		Verbose:       defaultConfig.Verbose,
		Mapper:        NewMapper(),
		RetryInterval: DefaultRetryInterval,
	}
}

// Name implements Named.
func (c *Controller) Name() string {
	return "joystick"
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(c)
}

// Run implements Runnable.
func (c *Controller) Run(ctx context.Context) error {
	return c.serve(ctx, fx.LoopCtlFrom(ctx))
}

func (c *Controller) serve(ctx context.Context, loopCtl fx.LoopControl) error {
	var dev device.Device
	var events chan device.Event
	defer func() {
		if dev != nil {
			dev.Close()
		}
	}()
	retry := time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry:
			retry = nil
			js := c.open()
			if js == nil {
				retry = time.After(c.RetryInterval)
				continue
			}
			glog.Infof("joystick %d %q opened, %d axes %d buttons", js.Index(), js.Name(), js.AxisCount(), js.ButtonCount())
			dev, events = js, make(chan device.Event, 1)
			go c.poll(ctx, js, events)
		case ev, ok := <-events:
			if !ok {
				dev.Close()
				dev, events = nil, nil
				loopCtl.PostMessage(c.Mapper.Release())
				loopCtl.TriggerNext()
				retry = time.After(c.RetryInterval)
				continue
			}
			if msg := c.Mapper.Map(ev); msg != nil {
				loopCtl.PostMessage(msg)
				loopCtl.TriggerNext()
			}
		}
	}
}

func (c *Controller) open() device.Device {
	var js device.Device
	var err error
	switch {
	case c.Open != nil:
		js, err = c.Open(c.DeviceIndex)
	case c.DeviceIndex >= 0:
		js, err = device.Open(c.DeviceIndex)
	default:
		js, err = device.DetectAndOpen(0)
	}
	if err == nil && js != nil {
		c.openFailed = false
		return js
	}
	if !c.openFailed {
		if err != nil {
			glog.Warningf("open joystick: %v", err)
		} else {
			glog.Warning("no joystick detected")
		}
	}
	c.openFailed = true
	return nil
}

func (c *Controller) poll(ctx context.Context, dev device.Device, ch chan<- device.Event) {
	defer close(ch)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			glog.Warningf("joystick read: %v", err)
			return
		}
		if ev == nil {
			continue
		}
		if c.Verbose {
			switch e := ev.(type) {
			case device.AxisEvent:
				glog.Infof("axis %d: %d init=%v", e.Index(), e.Value(), e.IsInit())
			case device.ButtonEvent:
				glog.Infof("button %d: %v init=%v", e.Index(), e.Pressed(), e.IsInit())
			}
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
}
