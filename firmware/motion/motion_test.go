package motion

import (
	"testing"
	"time"

	"github.com/calvinmclean/wificar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pin struct {
	name   string
	high   bool
	events *[]string
}

func (p *pin) Set(high bool) {
	p.high = high
	if high {
		*p.events = append(*p.events, p.name+"=1")
	} else {
		*p.events = append(*p.events, p.name+"=0")
	}
}

type drive struct {
	level uint8
}

func (d *drive) SetLevel(level uint8) {
	d.level = level
}

type testHardware struct {
	brake, dir *pin
	throttle   *drive
	events     []string
}

func newTestActuator(t *testing.T) (*Actuator, *testHardware) {
	t.Helper()
	hw := &testHardware{throttle: &drive{}}
	hw.brake = &pin{name: "brake", events: &hw.events}
	hw.dir = &pin{name: "dir", events: &hw.events}

	a := New(Config{
		Throttle:      hw.throttle,
		Brake:         hw.brake,
		Direction:     hw.dir,
		BrakeOnLevel:  false,
		ForwardLevel:  true,
		MinDriveLevel: 61,
		MaxDriveLevel: 139,
		Debounce:      100 * time.Millisecond,
	})
	hw.events = nil
	return a, hw
}

func TestNewIsSafe(t *testing.T) {
	a, hw := newTestActuator(t)

	assert.Equal(t, State{
		Direction:    wificar.DirectionForward,
		BrakeEngaged: true,
		DriveLevel:   61,
	}, a.State())
	assert.False(t, hw.brake.high, "brake is active low")
	assert.True(t, hw.dir.high)
	assert.Equal(t, uint8(61), hw.throttle.level)
	assert.True(t, a.Idle())
}

func TestDriveSameDirection(t *testing.T) {
	a, hw := newTestActuator(t)
	a.SetThrottle(50)
	now := time.Now()

	a.ApplyDirection(wificar.DirectionForward, now)

	s := a.State()
	assert.False(t, s.BrakeEngaged)
	assert.False(t, s.Reversing)
	assert.Equal(t, uint8(100), hw.throttle.level)
	assert.True(t, hw.brake.high)
	assert.True(t, a.Driving(wificar.DirectionForward))
}

func TestBrakeBeforeReverse(t *testing.T) {
	a, hw := newTestActuator(t)
	a.SetThrottle(100)
	now := time.Now()

	a.ApplyDirection(wificar.DirectionForward, now)
	require.Equal(t, uint8(139), hw.throttle.level)
	hw.events = nil

	a.ApplyDirection(wificar.DirectionBackward, now)

	s := a.State()
	assert.True(t, s.BrakeEngaged)
	assert.Equal(t, wificar.DirectionForward, s.Direction)
	assert.True(t, s.Reversing)
	assert.Equal(t, uint8(61), hw.throttle.level)

	// not yet settled
	a.Tick(now.Add(99 * time.Millisecond))
	assert.Equal(t, wificar.DirectionForward, a.State().Direction)
	assert.True(t, a.State().BrakeEngaged)

	a.Tick(now.Add(100 * time.Millisecond))
	s = a.State()
	assert.False(t, s.BrakeEngaged)
	assert.Equal(t, wificar.DirectionBackward, s.Direction)
	assert.False(t, s.Reversing)
	assert.Equal(t, uint8(139), hw.throttle.level)

	assert.Equal(t, []string{"brake=0", "dir=0", "brake=1"}, hw.events)
}

func TestReverseFromStandstillWaitsForDebounce(t *testing.T) {
	a, _ := newTestActuator(t)
	now := time.Now()

	a.ApplyDirection(wificar.DirectionBackward, now)
	assert.True(t, a.State().BrakeEngaged)
	assert.Equal(t, wificar.DirectionForward, a.State().Direction)
	assert.True(t, a.Driving(wificar.DirectionBackward))
	assert.False(t, a.Idle())

	a.Tick(now.Add(time.Second))
	assert.Equal(t, wificar.DirectionBackward, a.State().Direction)
	assert.False(t, a.State().BrakeEngaged)
}

func TestStopDuringReverse(t *testing.T) {
	a, _ := newTestActuator(t)
	now := time.Now()

	a.ApplyDirection(wificar.DirectionBackward, now)
	assert.True(t, a.Stop(wificar.DirectionBackward))

	a.Tick(now.Add(time.Second))
	s := a.State()
	assert.True(t, s.BrakeEngaged)
	assert.Equal(t, wificar.DirectionForward, s.Direction)
	assert.False(t, s.Reversing)
}

func TestStopOnlyMatchingDirection(t *testing.T) {
	a, _ := newTestActuator(t)
	now := time.Now()

	a.ApplyDirection(wificar.DirectionForward, now)
	assert.False(t, a.Stop(wificar.DirectionBackward))
	assert.False(t, a.State().BrakeEngaged)

	assert.True(t, a.Stop(wificar.DirectionForward))
	assert.True(t, a.State().BrakeEngaged)

	assert.False(t, a.Stop(wificar.DirectionForward), "stopping while stopped is a no-op")
}

func TestApplyDirectionIdempotent(t *testing.T) {
	a, hw := newTestActuator(t)
	now := time.Now()

	a.ApplyDirection(wificar.DirectionBackward, now)
	a.ApplyDirection(wificar.DirectionBackward, now.Add(90*time.Millisecond))

	// the second request did not restart the debounce
	a.Tick(now.Add(100 * time.Millisecond))
	assert.Equal(t, wificar.DirectionBackward, a.State().Direction)

	hw.events = nil
	a.ApplyDirection(wificar.DirectionBackward, now.Add(time.Second))
	assert.Empty(t, hw.events)
}

func TestSetThrottle(t *testing.T) {
	tests := []struct {
		name     string
		percent  int
		expected int
		level    uint8
	}{
		{"Min", 0, 0, 61},
		{"Half", 50, 50, 100},
		{"Max", 100, 100, 139},
		{"ClampHigh", 150, 100, 139},
		{"ClampLow", -5, 0, 61},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, hw := newTestActuator(t)
			a.ApplyDirection(wificar.DirectionForward, time.Now())
			a.SetThrottle(tt.percent)

			assert.Equal(t, tt.expected, a.State().ThrottlePercent)
			assert.Equal(t, tt.level, hw.throttle.level)
		})
	}
}

func TestSetThrottleWhileBraked(t *testing.T) {
	a, hw := newTestActuator(t)
	a.SetThrottle(100)

	assert.Equal(t, 100, a.State().ThrottlePercent)
	assert.Equal(t, uint8(61), hw.throttle.level)
	assert.True(t, a.State().BrakeEngaged)
	assert.Empty(t, hw.events)
}

func TestDefaultDriveLevels(t *testing.T) {
	a := New(Config{})
	a.SetThrottle(100)
	a.ApplyDirection(wificar.DirectionForward, time.Now())
	assert.Equal(t, DefaultMaxDriveLevel, a.State().DriveLevel)

	a.ApplyStop()
	assert.Equal(t, DefaultMinDriveLevel, a.State().DriveLevel)
}
