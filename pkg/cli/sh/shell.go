// Package sh provides the ishell based interactive shell commanding a
// drivetrain running in a loop.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/sonic-howl/frc2025/pkg/drive"
	fx "github.com/sonic-howl/frc2025/pkg/framework"
)

// Target is the drivetrain side of the shell: messages go to its loop,
// status is read back directly.
type Target interface {
	fx.LoopControl
	Status() drive.Status
}

// LoopTarget combines a loop with the drivetrain added to it.
type LoopTarget struct {
	fx.LoopControl
	*drive.Drivetrain
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	// Settle is how long commands wait for the loop to apply them before
	// reading status back.
	Settle time.Duration

	Shell  *ishell.Shell
	Target Target
}

const (
	shellKey = "$shell"
	prompt   = "swerve > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	commands []*ishell.Cmd
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(target Target) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Settle:      3 * fx.DefaultInterval,

		Shell:  ishell.New(),
		Target: target,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Post sends the message to the loop and waits for it to be applied.
func Post(c *ishell.Context, msg fx.Message) {
	s := ShellFrom(c)
	s.Target.PostMessage(msg)
	s.Target.TriggerNext()
	time.Sleep(s.Settle)
	if s.OutputJSON {
		return
	}
	c.Println("OK")
}

// Print writes v as JSON, or with the format when not in JSON mode.
func Print(c *ishell.Context, v interface{}, format string, args ...interface{}) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Printf(format, args...)
}

// ArgsFunc wraps a command parsing its arguments into a message.
func ArgsFunc(parse func(args []string) (fx.Message, error)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		msg, err := parse(c.Args)
		if err != nil {
			c.Err(err)
			return
		}
		Post(c, msg)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Fatal(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Fatal(fmt.Errorf("command expected"))
}
