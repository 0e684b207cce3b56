package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is anything posted to the loop from outside of it.
// Producers define their own message types; controllers pick the ones
// they understand.
type Message interface{}

// Controller defines the abstract controlling logic.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// Stage orders controllers within one iteration.
type Stage int

// Stages, executed in this order every iteration.
const (
	// StageSense reads sensors and updates estimates.
	StageSense Stage = iota
	// StageControl computes commands.
	StageControl
	// StageActuate drives the actuators, or simulates them.
	StageActuate
	// StagePostProc reports results.
	StagePostProc

	numStages
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageSense:
		return "sense"
	case StageControl:
		return "control"
	case StageActuate:
		return "actuate"
	case StagePostProc:
		return "postproc"
	}
	return "unknown"
}

// ControlContext provides the context of current control iteration.
type ControlContext interface {
	TimeSource
	// Elapsed is the time since the previous iteration, zero for
	// the first one.
	Elapsed() time.Duration
	// Context retrieves context.Context.
	Context() context.Context
	// Stage gets the stage being executed.
	Stage() Stage
	// Messages retrieves messages collected when this iteration starts.
	Messages() MessageStore

	LoopControl
}

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext schedules the next iteration to be executed
	// immediately after the current iteration.
	TriggerNext()
}

// MessageStore provides access to the messages of an iteration.
type MessageStore interface {
	// ProcessMessages offers every remaining message to the processor,
	// messages it takes are removed.
	ProcessMessages(MessageProcessor)
	// Len is the number of remaining messages.
	Len() int
}

// MessageProcessor consumes messages.
type MessageProcessor interface {
	// ProcessMessage returns true if the message is taken.
	ProcessMessage(Message) bool
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(Message) bool

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(msg Message) bool {
	return f(msg)
}
