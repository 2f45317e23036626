package steering

import (
	"errors"
	"time"

	"github.com/calvinmclean/wificar"
)

// OutputPin is a digital output. machine.Pin satisfies this.
type OutputPin interface {
	Set(high bool)
}

// Driver moves the steering actuator by single steps
type Driver interface {
	SetDirection(wificar.SteerDirection)
	Step()
}

// StepDirConfig configures a STEP/DIR stepper driver like the A4988
type StepDirConfig struct {
	Step OutputPin
	Dir  OutputPin
	// LeftLevel is the DIR level that turns the wheels left
	LeftLevel bool
	// PulseWidth is how long STEP is held high
	PulseWidth time.Duration
}

// StepDirDriver pulses a STEP/DIR stepper driver
type StepDirDriver struct {
	cfg StepDirConfig
}

func NewStepDirDriver(cfg StepDirConfig) (*StepDirDriver, error) {
	if cfg.Step == nil || cfg.Dir == nil {
		return nil, errors.New("step and dir pins are required")
	}
	cfg.Step.Set(false)
	return &StepDirDriver{cfg: cfg}, nil
}

func (d *StepDirDriver) SetDirection(dir wificar.SteerDirection) {
	d.cfg.Dir.Set((dir == wificar.SteerLeft) == d.cfg.LeftLevel)
}

func (d *StepDirDriver) Step() {
	d.cfg.Step.Set(true)
	if d.cfg.PulseWidth > 0 {
		time.Sleep(d.cfg.PulseWidth)
	}
	d.cfg.Step.Set(false)
}

type StepMode int

const (
	StepModeFull StepMode = iota
	StepModeHalf
)

var (
	// 8-step half-step halfStepSequence
	halfStepSequence = [8][4]bool{
		{true, false, false, false},
		{true, true, false, false},
		{false, true, false, false},
		{false, true, true, false},
		{false, false, true, false},
		{false, false, true, true},
		{false, false, false, true},
		{true, false, false, true},
	}

	// 4-step sequence
	fullStepSequence = [4][4]bool{
		{true, false, false, false},
		{false, true, false, false},
		{false, false, true, false},
		{false, false, false, true},
	}
)

// CoilDriver energizes the four coils of a unipolar stepper (28BYJ-48 on a ULN2003) directly
type CoilDriver struct {
	pins      [4]OutputPin
	stepMode  StepMode
	phase     int
	direction wificar.SteerDirection
}

func NewCoilDriver(pins [4]OutputPin, stepMode StepMode) (*CoilDriver, error) {
	if stepMode != StepModeFull && stepMode != StepModeHalf {
		return nil, errors.New("invalid StepMode")
	}
	for _, p := range pins {
		if p == nil {
			return nil, errors.New("all four coil pins are required")
		}
	}
	return &CoilDriver{pins: pins, stepMode: stepMode}, nil
}

func (c *CoilDriver) SetDirection(dir wificar.SteerDirection) {
	c.direction = dir
}

// Step advances the coil sequence one phase. Left runs the sequence forwards.
func (c *CoilDriver) Step() {
	sequenceLen := 4
	if c.stepMode == StepModeHalf {
		sequenceLen = 8
	}

	switch c.direction {
	case wificar.SteerLeft:
		c.phase = (c.phase + 1) % sequenceLen
	case wificar.SteerRight:
		c.phase = (c.phase - 1 + sequenceLen) % sequenceLen
	default:
		return
	}
	c.applyStep()
}

func (c *CoilDriver) applyStep() {
	var sequence [4]bool
	switch c.stepMode {
	default:
		fallthrough
	case StepModeFull:
		sequence = fullStepSequence[c.phase]
	case StepModeHalf:
		sequence = halfStepSequence[c.phase]
	}

	for i := 0; i < 4; i++ {
		c.pins[i].Set(sequence[i])
	}
}

// Release de-energizes all coils so the motor does not heat up while holding
func (c *CoilDriver) Release() {
	for _, p := range c.pins {
		p.Set(false)
	}
}

// Mover is a stepper that moves by a signed number of steps. easystepper.Device satisfies this.
type Mover interface {
	Move(steps int32)
}

// MoverDriver steps a Mover one step at a time. Positive steps turn left.
type MoverDriver struct {
	mover     Mover
	direction wificar.SteerDirection
}

func NewMoverDriver(m Mover) (*MoverDriver, error) {
	if m == nil {
		return nil, errors.New("mover is required")
	}
	return &MoverDriver{mover: m}, nil
}

func (d *MoverDriver) SetDirection(dir wificar.SteerDirection) {
	d.direction = dir
}

func (d *MoverDriver) Step() {
	delta := d.direction.Delta()
	if delta == 0 {
		return
	}
	d.mover.Move(int32(delta))
}

// Release turns the motor off if the Mover supports it
func (d *MoverDriver) Release() {
	if off, ok := d.mover.(interface{ Off() }); ok {
		off.Off()
	}
}
