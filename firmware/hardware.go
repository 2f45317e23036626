//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/calvinmclean/wificar/firmware/motion"
	"github.com/calvinmclean/wificar/firmware/steering"

	"tinygo.org/x/drivers/easystepper"
	"tinygo.org/x/drivers/servo"
)

func newThrottle() (motion.DriveOutput, error) {
	if useESC {
		return newESCDrive(machine.PWM7, pinThrottle)
	}
	return newPWMDrive(machine.PWM7, pinThrottle)
}

func newSteeringDriver() (steering.Driver, error) {
	switch steeringHardware {
	case steeringCoil:
		pins := [4]machine.Pin{pinCoil1, pinCoil2, pinCoil3, pinCoil4}
		for _, pin := range pins {
			pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		}
		return steering.NewCoilDriver([4]steering.OutputPin{pins[0], pins[1], pins[2], pins[3]}, steering.StepModeHalf)
	case steeringEasyStepper:
		stepper, err := easystepper.New(easystepper.DeviceConfig{
			Pin1: pinCoil1, Pin2: pinCoil2, Pin3: pinCoil3, Pin4: pinCoil4,
			StepCount: 2048,
			RPM:       15,
			Mode:      easystepper.ModeFour,
		})
		if err != nil {
			return nil, err
		}
		stepper.Configure()
		return steering.NewMoverDriver(stepper)
	}

	for _, pin := range []machine.Pin{pinSteerDir, pinSteerStep} {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	return steering.NewStepDirDriver(steering.StepDirConfig{
		Step:       pinSteerStep,
		Dir:        pinSteerDir,
		LeftLevel:  true,
		PulseWidth: 5 * time.Microsecond,
	})
}

// pwmGroup is a PWM peripheral like machine.PWM7
type pwmGroup interface {
	Configure(machine.PWMConfig) error
	Channel(machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// pwmDrive sets the throttle level as a PWM duty cycle. The throttle controller input is
// RC filtered to an analog voltage.
type pwmDrive struct {
	pwm     pwmGroup
	channel uint8
}

func newPWMDrive(pwm pwmGroup, pin machine.Pin) (*pwmDrive, error) {
	err := pwm.Configure(machine.PWMConfig{Period: uint64(50 * time.Microsecond)})
	if err != nil {
		return nil, err
	}
	ch, err := pwm.Channel(pin)
	if err != nil {
		return nil, err
	}
	return &pwmDrive{pwm: pwm, channel: ch}, nil
}

func (p *pwmDrive) SetLevel(level uint8) {
	p.pwm.Set(p.channel, p.pwm.Top()*uint32(level)/255)
}

const (
	escMinPulse = 1000
	escMaxPulse = 2000
)

// escDrive sets the throttle level as an RC servo pulse for a forward-only ESC.
// Direction is still switched by the direction line.
type escDrive struct {
	servo servo.Servo
}

func newESCDrive(pwm servo.PWM, pin machine.Pin) (*escDrive, error) {
	array, err := servo.NewArray(pwm)
	if err != nil {
		return nil, err
	}
	s, err := array.Add(pin)
	if err != nil {
		return nil, err
	}
	s.SetMicroseconds(escMinPulse)
	return &escDrive{servo: s}, nil
}

func (e *escDrive) SetLevel(level uint8) {
	e.servo.SetMicroseconds(int16(escMinPulse + int(level)*(escMaxPulse-escMinPulse)/255))
}
