// Package motion drives the throttle, brake and direction outputs of the car. Reversing
// always goes through the brake: the brake is engaged, the output settles for the debounce
// interval, then the direction is latched and only afterwards the brake is released.
package motion

import (
	"time"

	"github.com/calvinmclean/wificar"
)

const (
	// DefaultMinDriveLevel is the throttle stop voltage (0.8V of 3.3V) as an 8-bit level
	DefaultMinDriveLevel uint8 = 255 * 8 / 33
	// DefaultMaxDriveLevel is the full throttle voltage (1.8V of 3.3V) as an 8-bit level
	DefaultMaxDriveLevel uint8 = 255 * 18 / 33

	DefaultDebounce = 200 * time.Millisecond
)

// OutputPin is a digital output. machine.Pin satisfies this.
type OutputPin interface {
	Set(high bool)
}

// DriveOutput sets the analog throttle level (DAC or filtered PWM)
type DriveOutput interface {
	SetLevel(level uint8)
}

// Config has the outputs and the hardware characterization of the throttle controller
type Config struct {
	Throttle  DriveOutput
	Brake     OutputPin
	Direction OutputPin

	// BrakeOnLevel is the pin level that engages the brake
	BrakeOnLevel bool
	// ForwardLevel is the pin level that selects forward
	ForwardLevel bool

	MinDriveLevel uint8
	MaxDriveLevel uint8

	// Debounce is the settle time between engaging the brake and flipping direction
	Debounce time.Duration
}

// State is a snapshot of the Actuator
type State struct {
	Direction       wificar.Direction
	BrakeEngaged    bool
	ThrottlePercent int
	DriveLevel      uint8
	// Reversing is true while the brake is held waiting to latch a new direction
	Reversing bool
}

// Actuator owns the vehicle's throttle state
type Actuator struct {
	cfg Config

	direction       wificar.Direction
	brakeEngaged    bool
	throttlePercent int
	driveLevel      uint8

	reversing    bool
	target       wificar.Direction
	reverseStart time.Time
}

// New creates an Actuator in the safe state: brake engaged, minimum drive level, forward
func New(cfg Config) *Actuator {
	if cfg.MaxDriveLevel == 0 {
		cfg.MinDriveLevel = DefaultMinDriveLevel
		cfg.MaxDriveLevel = DefaultMaxDriveLevel
	}

	a := &Actuator{
		cfg:          cfg,
		direction:    wificar.DirectionForward,
		brakeEngaged: true,
	}
	a.writeDirection()
	a.writeDrive(cfg.MinDriveLevel)
	a.writeBrake()

	return a
}

// ApplyDirection starts driving in dir. If dir is not the latched direction, the brake is
// engaged and the reversal completes in Tick after the debounce interval.
func (a *Actuator) ApplyDirection(dir wificar.Direction, now time.Time) {
	if a.Driving(dir) {
		return
	}

	if dir == a.direction {
		a.reversing = false
		a.brakeEngaged = false
		a.writeBrake()
		a.writeDrive(a.level())
		return
	}

	a.brakeEngaged = true
	a.writeDrive(a.cfg.MinDriveLevel)
	a.writeBrake()

	a.reversing = true
	a.target = dir
	a.reverseStart = now
}

// Tick completes a pending reversal once the brake has been held for the debounce interval
func (a *Actuator) Tick(now time.Time) {
	if !a.reversing || now.Sub(a.reverseStart) < a.cfg.Debounce {
		return
	}

	a.reversing = false
	a.direction = a.target
	a.writeDirection()

	a.brakeEngaged = false
	a.writeBrake()
	a.writeDrive(a.level())
}

// ApplyStop drops the throttle to the minimum and engages the brake. Direction is unchanged and
// a pending reversal is abandoned.
func (a *Actuator) ApplyStop() {
	a.reversing = false
	a.writeDrive(a.cfg.MinDriveLevel)
	a.brakeEngaged = true
	a.writeBrake()
}

// Stop only stops if the car is driving, or about to drive, in dir. This lets a release of one
// direction button be ignored while the other is held.
func (a *Actuator) Stop(dir wificar.Direction) bool {
	if !a.Driving(dir) {
		return false
	}
	a.ApplyStop()
	return true
}

// Driving returns true if the car is driving in dir or is reversing toward it
func (a *Actuator) Driving(dir wificar.Direction) bool {
	if a.reversing {
		return a.target == dir
	}
	return !a.brakeEngaged && a.direction == dir
}

// Idle returns true when the brake is engaged and no reversal is pending
func (a *Actuator) Idle() bool {
	return a.brakeEngaged && !a.reversing
}

// SetThrottle sets the throttle set-point. It is applied to the output immediately while
// driving and otherwise on the next drive. Brake and direction are not changed.
func (a *Actuator) SetThrottle(percent int) {
	a.throttlePercent = clamp(percent, 0, 100)
	if !a.brakeEngaged {
		a.writeDrive(a.level())
	}
}

// State returns a snapshot of the Actuator
func (a *Actuator) State() State {
	return State{
		Direction:       a.direction,
		BrakeEngaged:    a.brakeEngaged,
		ThrottlePercent: a.throttlePercent,
		DriveLevel:      a.driveLevel,
		Reversing:       a.reversing,
	}
}

// level maps the throttle percent onto the configured drive range
func (a *Actuator) level() uint8 {
	span := int(a.cfg.MaxDriveLevel) - int(a.cfg.MinDriveLevel)
	return uint8(int(a.cfg.MinDriveLevel) + span*a.throttlePercent/100)
}

func (a *Actuator) writeDrive(level uint8) {
	a.driveLevel = level
	if a.cfg.Throttle != nil {
		a.cfg.Throttle.SetLevel(level)
	}
}

func (a *Actuator) writeBrake() {
	if a.cfg.Brake != nil {
		a.cfg.Brake.Set(a.brakeEngaged == a.cfg.BrakeOnLevel)
	}
}

func (a *Actuator) writeDirection() {
	if a.cfg.Direction != nil {
		a.cfg.Direction.Set((a.direction == wificar.DirectionForward) == a.cfg.ForwardLevel)
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
