// Package home decides when the steering should return to center
package home

import (
	"time"

	"github.com/calvinmclean/wificar"
)

const DefaultDelay = 500 * time.Millisecond

// Config selects the home mode
type Config struct {
	Mode wificar.HomeMode
	// AutoEnabled is the initial auto-home setting in HomeModeUser
	AutoEnabled bool
	// Delay is how long the car has to be idle before homing automatically
	Delay time.Duration
	// WhileDriving allows automatic homing while the throttle is applied
	WhileDriving bool
}

// Activity is what the Machine needs to know about the rest of the car
type Activity struct {
	SteeringIdle bool
	Step         int
	Calibrated   bool
	HomingFault  bool
	DriveIdle    bool
	// IdleSince is when the car last stopped doing anything
	IdleSince time.Time
}

// Machine holds the home mode and the user's auto-home setting
type Machine struct {
	cfg         Config
	autoEnabled bool
}

func New(cfg Config) *Machine {
	if cfg.Delay == 0 {
		cfg.Delay = DefaultDelay
	}
	return &Machine{
		cfg:         cfg,
		autoEnabled: cfg.AutoEnabled,
	}
}

func (m *Machine) Mode() wificar.HomeMode {
	return m.cfg.Mode
}

// SetAuto changes the auto-home setting. It is ignored unless the mode is HomeModeUser.
func (m *Machine) SetAuto(enabled bool) bool {
	if m.cfg.Mode != wificar.HomeModeUser {
		return false
	}
	changed := m.autoEnabled != enabled
	m.autoEnabled = enabled
	return changed
}

// AutoEnabled is the user's setting. It only matters in HomeModeUser.
func (m *Machine) AutoEnabled() bool {
	return m.autoEnabled
}

// AutoActive returns true if the steering is homed automatically
func (m *Machine) AutoActive() bool {
	switch m.cfg.Mode {
	case wificar.HomeModeAuto:
		return true
	case wificar.HomeModeUser:
		return m.autoEnabled
	default:
		return false
	}
}

// ManualAvailable returns true if the manualHome command is accepted. It is always accepted
// while the steering needs recovery, since auto-home does not run on an uncalibrated or
// faulted steering.
func (m *Machine) ManualAvailable(needsRecovery bool) bool {
	return !m.AutoActive() || needsRecovery
}

// ShouldHome returns true when automatic homing should start now
func (m *Machine) ShouldHome(a Activity, now time.Time) bool {
	if !m.AutoActive() {
		return false
	}
	if !a.SteeringIdle || a.Step == 0 || !a.Calibrated || a.HomingFault {
		return false
	}
	if !a.DriveIdle && !m.cfg.WhileDriving {
		return false
	}
	return now.Sub(a.IdleSince) >= m.cfg.Delay
}
