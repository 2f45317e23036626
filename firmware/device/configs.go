package device

import (
	"io"
	"time"

	"github.com/calvinmclean/wificar/firmware/home"
	"github.com/calvinmclean/wificar/firmware/motion"
	"github.com/calvinmclean/wificar/firmware/position"
	"github.com/calvinmclean/wificar/firmware/steering"
)

// Port is the command transport. machine.Serial satisfies this.
type Port interface {
	io.ByteReader
	io.Writer
}

// Hardware has everything the Device talks to besides the throttle outputs, which are part of
// motion.Config
type Hardware struct {
	Steering steering.Driver
	Storage  position.Storage
	Port     Port

	// Now defaults to time.Now
	Now func() time.Time
}

// Features enables commands that are optional on some builds of the car
type Features struct {
	CarSpeed      bool
	SteeringSpeed bool
	// ResetPosition is never available in HomeModeAuto
	ResetPosition bool
}

// Config has the tuning of each component
type Config struct {
	Motion   motion.Config
	Steering steering.Config
	Home     home.Config
	Features Features
	// CarSpeed is the initial throttle percent
	CarSpeed int
}
