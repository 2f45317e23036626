package home

import (
	"testing"
	"time"

	"github.com/calvinmclean/wificar"
	"github.com/stretchr/testify/assert"
)

func TestModes(t *testing.T) {
	tests := []struct {
		name            string
		cfg             Config
		autoActive      bool
		manualAvailable bool
	}{
		{"Auto", Config{Mode: wificar.HomeModeAuto}, true, false},
		{"Manual", Config{Mode: wificar.HomeModeManual}, false, true},
		{"UserDisabled", Config{Mode: wificar.HomeModeUser}, false, true},
		{"UserEnabled", Config{Mode: wificar.HomeModeUser, AutoEnabled: true}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.cfg)
			assert.Equal(t, tt.cfg.Mode, m.Mode())
			assert.Equal(t, tt.autoActive, m.AutoActive())
			assert.Equal(t, tt.manualAvailable, m.ManualAvailable(false))
			assert.True(t, m.ManualAvailable(true), "recovery is always possible")
		})
	}
}

func TestSetAuto(t *testing.T) {
	t.Run("User", func(t *testing.T) {
		m := New(Config{Mode: wificar.HomeModeUser})

		assert.True(t, m.SetAuto(true))
		assert.True(t, m.AutoActive())
		assert.False(t, m.SetAuto(true), "setting the same value is not a change")

		assert.True(t, m.SetAuto(false))
		assert.False(t, m.AutoActive())
		assert.True(t, m.ManualAvailable(false))
	})

	t.Run("IgnoredOutsideUser", func(t *testing.T) {
		auto := New(Config{Mode: wificar.HomeModeAuto})
		assert.False(t, auto.SetAuto(false))
		assert.True(t, auto.AutoActive())

		manual := New(Config{Mode: wificar.HomeModeManual})
		assert.False(t, manual.SetAuto(true))
		assert.False(t, manual.AutoActive())
	})
}

func TestShouldHome(t *testing.T) {
	now := time.Now()
	idle := Activity{
		SteeringIdle: true,
		Step:         30,
		Calibrated:   true,
		DriveIdle:    true,
		IdleSince:    now.Add(-time.Second),
	}

	tests := []struct {
		name     string
		cfg      Config
		modify   func(*Activity)
		expected bool
	}{
		{"Idle", Config{}, func(*Activity) {}, true},
		{"ManualMode", Config{Mode: wificar.HomeModeManual}, func(*Activity) {}, false},
		{"UserDisabled", Config{Mode: wificar.HomeModeUser}, func(*Activity) {}, false},
		{"UserEnabled", Config{Mode: wificar.HomeModeUser, AutoEnabled: true}, func(*Activity) {}, true},
		{"Centered", Config{}, func(a *Activity) { a.Step = 0 }, false},
		{"NegativeOffset", Config{}, func(a *Activity) { a.Step = -3 }, true},
		{"Steering", Config{}, func(a *Activity) { a.SteeringIdle = false }, false},
		{"Uncalibrated", Config{}, func(a *Activity) { a.Calibrated = false }, false},
		{"Faulted", Config{}, func(a *Activity) { a.HomingFault = true }, false},
		{"Driving", Config{}, func(a *Activity) { a.DriveIdle = false }, false},
		{"DrivingAllowed", Config{WhileDriving: true}, func(a *Activity) { a.DriveIdle = false }, true},
		{"NotIdleLongEnough", Config{}, func(a *Activity) { a.IdleSince = now.Add(-499 * time.Millisecond) }, false},
		{"ExactlyDelay", Config{}, func(a *Activity) { a.IdleSince = now.Add(-DefaultDelay) }, true},
		{"CustomDelay", Config{Delay: 2 * time.Second}, func(*Activity) {}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := idle
			tt.modify(&a)
			assert.Equal(t, tt.expected, New(tt.cfg).ShouldHome(a, now))
		})
	}
}
