package wificar

import (
	"errors"
	"strconv"
	"strings"
)

var ErrNoStatus = errors.New("line does not contain a status")

// Status is the snapshot the firmware reports back over the transport so the UI can reflect
// the car's state and which controls are currently available
type Status struct {
	Direction       Direction
	BrakeEngaged    bool
	ThrottlePercent int
	DriveLevel      int
	Reversing       bool

	Step          int
	SteerDir      SteerDirection
	SteeringState SteeringState
	SteerSpeed    int
	Calibrated    bool
	HomingFault   bool

	HomeMode       HomeMode
	AutoHome       bool
	ManualHome     bool
	ResetAvailable bool
}

// String formats the Status as space-separated key=value pairs
func (s Status) String() string {
	var b strings.Builder
	b.WriteString("dir=" + s.Direction.String())
	b.WriteString(" brake=" + b2s(s.BrakeEngaged))
	b.WriteString(" throttle=" + strconv.Itoa(s.ThrottlePercent))
	b.WriteString(" level=" + strconv.Itoa(s.DriveLevel))
	b.WriteString(" reversing=" + b2s(s.Reversing))
	b.WriteString(" step=" + strconv.Itoa(s.Step))
	b.WriteString(" steer=" + s.SteerDir.String())
	b.WriteString(" state=" + s.SteeringState.String())
	b.WriteString(" speed=" + strconv.Itoa(s.SteerSpeed))
	b.WriteString(" calibrated=" + b2s(s.Calibrated))
	b.WriteString(" fault=" + b2s(s.HomingFault))
	b.WriteString(" mode=" + s.HomeMode.String())
	b.WriteString(" auto=" + b2s(s.AutoHome))
	b.WriteString(" manual=" + b2s(s.ManualHome))
	b.WriteString(" reset=" + b2s(s.ResetAvailable))
	return b.String()
}

// ParseStatus reads a line written by Status.String. Other tokens on the line, like the
// timestamp prefix, are skipped. A line without any known key returns ErrNoStatus.
func ParseStatus(line string) (Status, error) {
	var s Status
	found := 0
	for _, field := range strings.Fields(line) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		var err error
		switch key {
		case "dir":
			s.Direction = DirectionForward
			if value == "B" {
				s.Direction = DirectionBackward
			}
		case "brake":
			s.BrakeEngaged = value == "1"
		case "throttle":
			s.ThrottlePercent, err = strconv.Atoi(value)
		case "level":
			s.DriveLevel, err = strconv.Atoi(value)
		case "reversing":
			s.Reversing = value == "1"
		case "step":
			s.Step, err = strconv.Atoi(value)
		case "steer":
			switch value {
			case "L":
				s.SteerDir = SteerLeft
			case "R":
				s.SteerDir = SteerRight
			default:
				s.SteerDir = SteerNone
			}
		case "state":
			switch value {
			case "Moving":
				s.SteeringState = SteeringMoving
			case "Homing":
				s.SteeringState = SteeringHoming
			default:
				s.SteeringState = SteeringIdle
			}
		case "speed":
			s.SteerSpeed, err = strconv.Atoi(value)
		case "calibrated":
			s.Calibrated = value == "1"
		case "fault":
			s.HomingFault = value == "1"
		case "mode":
			s.HomeMode, _ = ParseHomeMode(value)
		case "auto":
			s.AutoHome = value == "1"
		case "manual":
			s.ManualHome = value == "1"
		case "reset":
			s.ResetAvailable = value == "1"
		default:
			continue
		}
		if err != nil {
			return Status{}, errors.New("invalid status field " + key + ": " + err.Error())
		}
		found++
	}

	if found == 0 {
		return Status{}, ErrNoStatus
	}
	return s, nil
}

func b2s(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
