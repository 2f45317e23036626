//go:build tinygo

package main

import (
	"context"
	"machine"
	"time"

	"github.com/calvinmclean/wificar"
	"github.com/calvinmclean/wificar/firmware/commands"
	"github.com/calvinmclean/wificar/firmware/device"
	"github.com/calvinmclean/wificar/firmware/home"
	"github.com/calvinmclean/wificar/firmware/motion"
	"github.com/calvinmclean/wificar/firmware/steering"

	"tinygo.org/x/drivers/at24cx"
)

const (
	pinThrottle = machine.GP15
	pinBrake    = machine.GP14
	pinCarDir   = machine.GP13

	pinSteerDir  = machine.GP16
	pinSteerStep = machine.GP17

	// coil pins for the 28BYJ-48 steering option
	pinCoil1 = machine.GP18
	pinCoil2 = machine.GP19
	pinCoil3 = machine.GP20
	pinCoil4 = machine.GP21
)

type steeringKind int

const (
	// steeringStepDir uses a STEP/DIR driver like the A4988
	steeringStepDir steeringKind = iota
	// steeringCoil energizes a 28BYJ-48 on a ULN2003 directly, one phase per pulse
	steeringCoil
	// steeringEasyStepper drives the 28BYJ-48 through easystepper
	steeringEasyStepper
)

const (
	// useESC drives the throttle with RC servo pulses instead of an RC filtered PWM voltage
	useESC = false

	steeringHardware = steeringStepDir
)

func main() {
	// give the USB serial a moment so the first lines are not lost
	time.Sleep(time.Second)

	for _, pin := range []machine.Pin{pinBrake, pinCarDir} {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}

	throttle, err := newThrottle()
	if err != nil {
		panic("error configuring throttle: " + err.Error())
	}

	steeringDriver, err := newSteeringDriver()
	if err != nil {
		panic("error creating steering driver: " + err.Error())
	}

	err = machine.I2C0.Configure(machine.I2CConfig{
		SDA: machine.GP4,
		SCL: machine.GP5,
	})
	if err != nil {
		panic("error configuring I2C: " + err.Error())
	}
	eeprom := at24cx.New(machine.I2C0)
	eeprom.Configure(at24cx.Config{})

	motionCfg := motion.Config{
		Throttle:      throttle,
		Brake:         pinBrake,
		Direction:     pinCarDir,
		BrakeOnLevel:  false,
		ForwardLevel:  true,
		MinDriveLevel: motion.DefaultMinDriveLevel,
		MaxDriveLevel: motion.DefaultMaxDriveLevel,
		Debounce:      200 * time.Millisecond,
	}
	if useESC {
		// the ESC maps the full pulse range itself
		motionCfg.MinDriveLevel, motionCfg.MaxDriveLevel = 0, 255
	}

	steeringCfg := steering.Config{
		MaxSteps:            100,
		MinPulseInterval:    1 * time.Millisecond,
		MaxPulseInterval:    20 * time.Millisecond,
		HomingPulseInterval: 3 * time.Millisecond,
		DefaultSpeed:        75,
	}

	homeCfg := home.Config{
		Mode:  wificar.HomeModeManual,
		Delay: 500 * time.Millisecond,
	}

	d, err := device.New(device.Hardware{
		Steering: steeringDriver,
		Storage:  &eeprom,
		Port:     machine.Serial,
	}, device.Config{
		Motion:   motionCfg,
		Steering: steeringCfg,
		Home:     homeCfg,
		Features: device.Features{
			CarSpeed:      true,
			SteeringSpeed: false,
			ResetPosition: false,
		},
	})
	if err != nil {
		panic(err)
	}

	commands.Run(context.Background(), d)
}
