package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/calvinmclean/wificar"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidInput   = errors.New("invalid input")
)

// PollInterval is how long Run sleeps when no input is waiting
var PollInterval = 100 * time.Microsecond

type Command struct {
	Token string
	// Payload is true for commands that take a "=N" value. The value is clamped to [Min, Max].
	Payload     bool
	Min, Max    int
	Run         func(Controller, int) error
	Description string
}

// Controller is used to control a device
type Controller interface {
	Drive(wificar.Direction)
	StopDrive(wificar.Direction)
	Steer(wificar.SteerDirection)
	StopSteer(wificar.SteerDirection) error
	StopAll() error
	SetCarSpeed(int)
	SetSteerSpeed(int)
	SetAutoHome(bool)
	GoHome() error
	ResetPosition() error
	Debug()
	Verbose()
	Print(string)
}

// Runner is a Controller that is driven by Run
type Runner interface {
	Controller

	// I/O
	ReadByte() (byte, error)

	// Tick advances any motion in progress
	Tick(time.Time)
}

var (
	ForwardCommand = &Command{
		Token: "F",
		Run: func(c Controller, _ int) error {
			c.Drive(wificar.DirectionForward)
			return nil
		},
		Description: "Drive forward. Reversing brakes first.",
	}
	BackwardCommand = &Command{
		Token: "B",
		Run: func(c Controller, _ int) error {
			c.Drive(wificar.DirectionBackward)
			return nil
		},
		Description: "Drive backward. Reversing brakes first.",
	}
	StopForwardCommand = &Command{
		Token: "SF",
		Run: func(c Controller, _ int) error {
			c.StopDrive(wificar.DirectionForward)
			return nil
		},
		Description: "Brake if driving forward.",
	}
	StopBackwardCommand = &Command{
		Token: "SB",
		Run: func(c Controller, _ int) error {
			c.StopDrive(wificar.DirectionBackward)
			return nil
		},
		Description: "Brake if driving backward.",
	}
	LeftCommand = &Command{
		Token: "L",
		Run: func(c Controller, _ int) error {
			c.Steer(wificar.SteerLeft)
			return nil
		},
		Description: "Start steering left.",
	}
	RightCommand = &Command{
		Token: "R",
		Run: func(c Controller, _ int) error {
			c.Steer(wificar.SteerRight)
			return nil
		},
		Description: "Start steering right.",
	}
	StopLeftCommand = &Command{
		Token: "SL",
		Run: func(c Controller, _ int) error {
			return c.StopSteer(wificar.SteerLeft)
		},
		Description: "Stop steering if steering left.",
	}
	StopRightCommand = &Command{
		Token: "SR",
		Run: func(c Controller, _ int) error {
			return c.StopSteer(wificar.SteerRight)
		},
		Description: "Stop steering if steering right.",
	}
	NeutralCommand = &Command{
		Token: "S",
		Run: func(Controller, int) error {
			return nil
		},
		Description: "Stop button pressed. Nothing happens until it is released with SS.",
	}
	StopAllCommand = &Command{
		Token: "SS",
		Run: func(c Controller, _ int) error {
			return c.StopAll()
		},
		Description: "Brake and stop all steering, including homing.",
	}
	CarSpeedCommand = &Command{
		Token:   "car",
		Payload: true,
		Min:     0,
		Max:     100,
		Run: func(c Controller, v int) error {
			c.SetCarSpeed(v)
			return nil
		},
		Description: "Set the throttle percent. Input: 0-100.",
	}
	SteerSpeedCommand = &Command{
		Token:   "steer",
		Payload: true,
		Min:     1,
		Max:     100,
		Run: func(c Controller, v int) error {
			c.SetSteerSpeed(v)
			return nil
		},
		Description: "Set the steering speed percent. Input: 1-100.",
	}
	AutoHomeCommand = &Command{
		Token:   "autoHome",
		Payload: true,
		Min:     0,
		Max:     1,
		Run: func(c Controller, v int) error {
			c.SetAutoHome(v == 1)
			return nil
		},
		Description: "Enable or disable automatic homing when the mode allows it. Input: 0 or 1.",
	}
	ManualHomeCommand = &Command{
		Token:   "manualHome",
		Payload: true,
		Min:     0,
		Max:     1,
		Run: func(c Controller, v int) error {
			if v != 1 {
				return nil
			}
			return c.GoHome()
		},
		Description: "Return the steering to center. Input: 1.",
	}
	ResetPositionCommand = &Command{
		Token:   "resetPosition",
		Payload: true,
		Min:     0,
		Max:     1,
		Run: func(c Controller, v int) error {
			if v != 1 {
				return nil
			}
			return c.ResetPosition()
		},
		Description: "Use the current steering position as center without moving. Input: 1.",
	}
	StatusCommand = &Command{
		Token: "?",
		Run: func(c Controller, _ int) error {
			c.Debug()
			return nil
		},
		Description: "Print the current state.",
	}
	VerboseCommand = &Command{
		Token: "V",
		Run: func(c Controller, _ int) error {
			c.Verbose()
			return nil
		},
		Description: "Enable verbose output.",
	}
	HelpCommand = &Command{
		Token:       "H",
		Description: "Show all available commands and their descriptions.",
		Run: func(c Controller, _ int) error {
			c.Print("Available Commands:")
			for _, cmd := range commands {
				c.Print(cmd.Token + ": " + cmd.Description)
			}
			return nil
		},
	}
)

var commands = []*Command{
	ForwardCommand,
	BackwardCommand,
	StopForwardCommand,
	StopBackwardCommand,
	LeftCommand,
	RightCommand,
	StopLeftCommand,
	StopRightCommand,
	NeutralCommand,
	StopAllCommand,
	CarSpeedCommand,
	SteerSpeedCommand,
	AutoHomeCommand,
	ManualHomeCommand,
	ResetPositionCommand,
	StatusCommand,
	VerboseCommand,
}

var cmdMap = func() map[string]*Command {
	m := map[string]*Command{
		HelpCommand.Token: HelpCommand,
	}
	for _, cmd := range commands {
		m[cmd.Token] = cmd
	}
	return m
}()

// inputError keeps the offending input next to a sentinel error
type inputError struct {
	err   error
	input string
}

func (e inputError) Error() string {
	return e.err.Error() + ": " + e.input
}

func (e inputError) Unwrap() error {
	return e.err
}

// Parse looks up the command for a line like "F" or "car=40" and returns it with the clamped
// payload
func Parse(line string) (*Command, int, error) {
	line = strings.TrimSpace(line)
	token, value, hasValue := strings.Cut(line, "=")

	cmd, ok := cmdMap[token]
	if !ok {
		return nil, 0, inputError{ErrUnknownCommand, line}
	}

	if !cmd.Payload {
		if hasValue {
			return nil, 0, inputError{ErrInvalidInput, line}
		}
		return cmd, 0, nil
	}

	if !hasValue {
		return nil, 0, inputError{ErrInvalidInput, line}
	}
	v, err := strconv.Atoi(value)
	switch {
	case errors.Is(err, strconv.ErrRange):
		// an out of range number still clamps to the nearest limit
		v = cmd.Max
		if strings.HasPrefix(value, "-") {
			v = cmd.Min
		}
	case err != nil:
		return nil, 0, inputError{ErrInvalidInput, line}
	}

	return cmd, clamp(v, cmd.Min, cmd.Max), nil
}

// Dispatch parses the line and runs the command
func Dispatch(c Controller, line string) error {
	cmd, v, err := Parse(line)
	if err != nil {
		return err
	}
	return cmd.Run(c, v)
}

// Run is the control loop. It reads commands one byte at a time, runs each complete line and
// calls Tick on every iteration so motion keeps going between commands.
func Run(ctx context.Context, r Runner) {
	var lines LineReader
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b, readErr := r.ReadByte()
		if readErr == nil {
			line, ok := lines.Add(b)
			if ok {
				err := Dispatch(r, line)
				if err != nil {
					r.Print("error: " + err.Error())
				}
			}
		}

		r.Tick(time.Now())

		if readErr != nil {
			time.Sleep(PollInterval)
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
