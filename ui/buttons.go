package ui

// button is one of the hold-to-drive controls. Pressing sends the start token and releasing
// sends the matching stop token.
type button int

const (
	buttonForward button = iota
	buttonBackward
	buttonLeft
	buttonRight
	buttonStop
)

func (b button) String() string {
	switch b {
	case buttonForward:
		return "Forward"
	case buttonBackward:
		return "Back"
	case buttonLeft:
		return "Left"
	case buttonRight:
		return "Right"
	case buttonStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

func (b button) press() string {
	switch b {
	case buttonForward:
		return "F"
	case buttonBackward:
		return "B"
	case buttonLeft:
		return "L"
	case buttonRight:
		return "R"
	case buttonStop:
		return "S"
	default:
		return ""
	}
}

func (b button) release() string {
	switch b {
	case buttonForward:
		return "SF"
	case buttonBackward:
		return "SB"
	case buttonLeft:
		return "SL"
	case buttonRight:
		return "SR"
	case buttonStop:
		// releasing Stop halts everything, including homing
		return "SS"
	default:
		return ""
	}
}
