package ui

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/calvinmclean/wificar"
)

// lineWriter splits the car's output into lines and hands each Status it finds to onStatus
type lineWriter struct {
	onLine   func(string)
	onStatus func(wificar.Status)

	mtx sync.Mutex
	buf bytes.Buffer
}

func (lw *lineWriter) Write(p []byte) (int, error) {
	lw.mtx.Lock()
	defer lw.mtx.Unlock()

	lw.buf.Write(p)
	for {
		line, err := lw.buf.ReadString('\n')
		if err != nil {
			// keep the partial line for the next Write
			lw.buf.Reset()
			lw.buf.WriteString(line)
			break
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		if lw.onLine != nil {
			lw.onLine(line)
		}

		status, err := wificar.ParseStatus(line)
		if err == nil && lw.onStatus != nil {
			lw.onStatus(status)
		}
	}

	return len(p), nil
}

// controls is which of the home controls the car currently accepts
type controls struct {
	autoHomeToggle  bool
	autoHomeChecked bool
	goHome          bool
	reset           bool
}

func controlsFor(s wificar.Status) controls {
	return controls{
		autoHomeToggle:  s.HomeMode == wificar.HomeModeUser,
		autoHomeChecked: s.AutoHome,
		goHome:          s.ManualHome && s.SteeringState == wificar.SteeringIdle,
		reset:           s.ResetAvailable && s.SteeringState == wificar.SteeringIdle,
	}
}

func statusText(s wificar.Status) string {
	drive := "stopped"
	if !s.BrakeEngaged {
		drive = "driving " + s.Direction.String()
	}
	if s.Reversing {
		drive = "reversing"
	}

	steering := fmt.Sprintf("step %d", s.Step)
	if s.SteeringState != wificar.SteeringIdle {
		steering = strings.ToLower(s.SteeringState.String())
	}
	switch {
	case s.HomingFault:
		steering += ", homing stalled"
	case !s.Calibrated:
		steering += ", not calibrated"
	}

	return fmt.Sprintf("%s at %d%% | steering %s", drive, s.ThrottlePercent, steering)
}
