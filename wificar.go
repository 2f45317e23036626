package wificar

// Direction is the latched throttle direction of the car
type Direction uint8

const (
	DirectionForward Direction = iota
	DirectionBackward
)

func (d Direction) String() string {
	switch d {
	case DirectionBackward:
		return "B"
	default:
		fallthrough
	case DirectionForward:
		return "F"
	}
}

// Opposite returns the reverse Direction
func (d Direction) Opposite() Direction {
	if d == DirectionForward {
		return DirectionBackward
	}
	return DirectionForward
}

// SteerDirection is the direction the steering actuator is being pulsed in
type SteerDirection uint8

const (
	SteerNone SteerDirection = iota
	SteerLeft
	SteerRight
)

func (sd SteerDirection) String() string {
	switch sd {
	case SteerLeft:
		return "L"
	case SteerRight:
		return "R"
	default:
		return "N"
	}
}

// Delta is the change in step offset caused by one pulse in this direction. Left counts up.
func (sd SteerDirection) Delta() int {
	switch sd {
	case SteerLeft:
		return +1
	case SteerRight:
		return -1
	default:
		return 0
	}
}

// SteeringState is the state of the steering controller
type SteeringState uint8

const (
	SteeringIdle SteeringState = iota
	SteeringMoving
	SteeringHoming
)

func (s SteeringState) String() string {
	switch s {
	case SteeringMoving:
		return "Moving"
	case SteeringHoming:
		return "Homing"
	default:
		return "Idle"
	}
}

// HomeMode decides when the steering returns to center
type HomeMode uint8

const (
	// HomeModeAuto homes automatically whenever the car goes idle
	HomeModeAuto HomeMode = iota
	// HomeModeManual only homes on the manualHome command
	HomeModeManual
	// HomeModeUser lets the driver toggle automatic homing from the UI
	HomeModeUser
)

func (m HomeMode) String() string {
	switch m {
	case HomeModeAuto:
		return "Auto"
	case HomeModeUser:
		return "User"
	default:
		return "Manual"
	}
}

// ParseHomeMode is the inverse of HomeMode.String. It accepts the lowercase forms too.
func ParseHomeMode(s string) (HomeMode, bool) {
	switch s {
	case "Auto", "auto":
		return HomeModeAuto, true
	case "Manual", "manual":
		return HomeModeManual, true
	case "User", "user":
		return HomeModeUser, true
	}
	return HomeModeManual, false
}
