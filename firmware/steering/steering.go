// Package steering pulses the steering stepper and keeps an open-loop count of the step offset
// from center. Travel is clamped to +/- MaxSteps and the offset is persisted whenever the
// steering settles so it survives power cycles.
package steering

import (
	"errors"
	"time"

	"github.com/calvinmclean/wificar"
	"github.com/calvinmclean/wificar/firmware/position"
)

const (
	DefaultMaxSteps            = 100
	DefaultSpeed               = 75
	DefaultMinPulseInterval    = 1 * time.Millisecond
	DefaultMaxPulseInterval    = 20 * time.Millisecond
	DefaultHomingPulseInterval = 3 * time.Millisecond
)

var (
	ErrHomingStalled = errors.New("homing did not reach center before the timeout")
	ErrInvalidConfig = errors.New("invalid steering config")
)

// Persister stores the step offset. position.Store implements this.
type Persister interface {
	Read() (int, error)
	Write(offset int) error
}

// releaser is implemented by drivers that can de-energize the motor while idle
type releaser interface {
	Release()
}

// Config has the travel limits and pulse timing of the steering
type Config struct {
	// MaxSteps is the travel limit in each direction from center
	MaxSteps int

	// MinPulseInterval is the time between pulses at 100% speed
	MinPulseInterval time.Duration
	// MaxPulseInterval is the time between pulses at 1% speed
	MaxPulseInterval time.Duration

	HomingPulseInterval time.Duration
	// HomingTimeout aborts homing that has not reached center. Zero derives it from the
	// full travel at the homing speed.
	HomingTimeout time.Duration

	// DefaultSpeed is the initial speed percent
	DefaultSpeed int
}

func (c *Config) setDefaults() {
	if c.MaxSteps == 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.MinPulseInterval == 0 {
		c.MinPulseInterval = DefaultMinPulseInterval
	}
	if c.MaxPulseInterval == 0 {
		c.MaxPulseInterval = DefaultMaxPulseInterval
	}
	if c.HomingPulseInterval == 0 {
		c.HomingPulseInterval = DefaultHomingPulseInterval
	}
	if c.HomingTimeout == 0 {
		c.HomingTimeout = 2*time.Duration(2*c.MaxSteps)*c.HomingPulseInterval + time.Second
	}
	if c.DefaultSpeed == 0 {
		c.DefaultSpeed = DefaultSpeed
	}
}

// State is a snapshot of the Controller
type State struct {
	Step         int
	Direction    wificar.SteerDirection
	Mode         wificar.SteeringState
	SpeedPercent int
	Calibrated   bool
	HomingFault  bool
}

// Controller owns the steering state. It does no work on its own: Tick must be called from the
// control loop, and each call emits at most one pulse.
type Controller struct {
	driver Driver
	store  Persister
	cfg    Config

	mode        wificar.SteeringState
	direction   wificar.SteerDirection
	step        int
	speed       int
	calibrated  bool
	homingFault bool

	lastPulse   time.Time
	homingStart time.Time
	idleSince   time.Time
}

// New creates a Controller at the persisted offset, or at 0 and uncalibrated if the store
// does not hold a trusted offset
func New(driver Driver, store Persister, cfg Config) (*Controller, error) {
	cfg.setDefaults()
	if cfg.MaxSteps < 0 || cfg.MinPulseInterval > cfg.MaxPulseInterval {
		return nil, ErrInvalidConfig
	}
	if driver == nil || store == nil {
		return nil, errors.New("steering driver and store are required")
	}

	c := &Controller{
		driver: driver,
		store:  store,
		cfg:    cfg,
		mode:   wificar.SteeringIdle,
		speed:  clamp(cfg.DefaultSpeed, 1, 100),
	}

	step, err := store.Read()
	switch {
	case err == nil:
		c.step = step
		c.calibrated = true
	case errors.Is(err, position.ErrUncalibrated):
		c.step = 0
		c.calibrated = false
	default:
		return nil, errors.New("error reading steering position: " + err.Error())
	}

	return c, nil
}

// Start begins moving in dir. Starting the direction that is already moving does nothing.
// Manual steering takes over from homing.
func (c *Controller) Start(dir wificar.SteerDirection) {
	if dir == wificar.SteerNone {
		return
	}
	if c.mode == wificar.SteeringMoving && c.direction == dir {
		return
	}

	c.mode = wificar.SteeringMoving
	c.direction = dir
	c.driver.SetDirection(dir)
	c.lastPulse = time.Time{}
}

// Stop settles the steering if it is moving in dir. The offset is persisted.
func (c *Controller) Stop(dir wificar.SteerDirection, now time.Time) (bool, error) {
	if c.mode != wificar.SteeringMoving || c.direction != dir {
		return false, nil
	}
	return true, c.settle(now)
}

// Halt settles any motion, including homing
func (c *Controller) Halt(now time.Time) (bool, error) {
	if c.mode == wificar.SteeringIdle {
		return false, nil
	}
	return true, c.settle(now)
}

// Home starts returning to center. It only runs from Idle.
func (c *Controller) Home(now time.Time) error {
	if c.mode != wificar.SteeringIdle {
		return nil
	}

	c.mode = wificar.SteeringHoming
	c.homingStart = now
	c.lastPulse = time.Time{}
	c.direction = wificar.SteerNone

	switch {
	case c.step > 0:
		c.direction = wificar.SteerRight
	case c.step < 0:
		c.direction = wificar.SteerLeft
	default:
		return c.finishHoming(now)
	}
	c.driver.SetDirection(c.direction)

	return nil
}

// ResetPosition declares the current position as center without moving. It only runs from Idle.
func (c *Controller) ResetPosition() (bool, error) {
	if c.mode != wificar.SteeringIdle {
		return false, nil
	}

	err := c.store.Write(0)
	if err != nil {
		return false, err
	}
	c.step = 0
	c.calibrated = true
	c.homingFault = false
	return true, nil
}

// SetSpeed sets the manual steering speed percent, clamped to [1, 100]
func (c *Controller) SetSpeed(percent int) {
	c.speed = clamp(percent, 1, 100)
}

// Tick emits a pulse if the pulse interval has elapsed. It returns ErrHomingStalled when homing
// times out.
func (c *Controller) Tick(now time.Time) error {
	switch c.mode {
	case wificar.SteeringMoving:
		if now.Sub(c.lastPulse) < c.PulseInterval() {
			return nil
		}

		next := c.step + c.direction.Delta()
		if next > c.cfg.MaxSteps || next < -c.cfg.MaxSteps {
			return c.settle(now)
		}
		c.pulse(now)
	case wificar.SteeringHoming:
		if now.Sub(c.homingStart) > c.cfg.HomingTimeout {
			c.homingFault = true
			err := c.settle(now)
			if err != nil {
				return errors.New(ErrHomingStalled.Error() + ": " + err.Error())
			}
			return ErrHomingStalled
		}

		if now.Sub(c.lastPulse) < c.cfg.HomingPulseInterval {
			return nil
		}
		c.pulse(now)

		if c.step == 0 {
			return c.finishHoming(now)
		}
	}

	return nil
}

// PulseInterval maps the speed percent linearly from MaxPulseInterval at 1% to
// MinPulseInterval at 100%
func (c *Controller) PulseInterval() time.Duration {
	span := c.cfg.MaxPulseInterval - c.cfg.MinPulseInterval
	return c.cfg.MaxPulseInterval - span*time.Duration(c.speed-1)/99
}

// State returns a snapshot of the Controller
func (c *Controller) State() State {
	return State{
		Step:         c.step,
		Direction:    c.direction,
		Mode:         c.mode,
		SpeedPercent: c.speed,
		Calibrated:   c.calibrated,
		HomingFault:  c.homingFault,
	}
}

// IdleSince returns when the controller last settled
func (c *Controller) IdleSince() time.Time {
	return c.idleSince
}

func (c *Controller) pulse(now time.Time) {
	c.driver.Step()
	c.step += c.direction.Delta()
	c.lastPulse = now
}

func (c *Controller) finishHoming(now time.Time) error {
	c.homingFault = false
	c.calibrated = true
	return c.settle(now)
}

// settle moves to Idle and persists the offset. An uncalibrated offset is not persisted since
// that would mark it as trusted.
func (c *Controller) settle(now time.Time) error {
	c.mode = wificar.SteeringIdle
	c.direction = wificar.SteerNone
	c.idleSince = now
	if r, ok := c.driver.(releaser); ok {
		r.Release()
	}

	if !c.calibrated {
		return nil
	}
	return c.store.Write(c.step)
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
