package wificar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusString(t *testing.T) {
	s := Status{
		Direction:       DirectionBackward,
		BrakeEngaged:    true,
		ThrottlePercent: 40,
		DriveLevel:      61,
		Step:            -12,
		SteerDir:        SteerRight,
		SteeringState:   SteeringHoming,
		SteerSpeed:      75,
		Calibrated:      true,
		HomeMode:        HomeModeUser,
		ManualHome:      true,
	}

	expected := "dir=B brake=1 throttle=40 level=61 reversing=0 step=-12 steer=R state=Homing speed=75 " +
		"calibrated=1 fault=0 mode=User auto=0 manual=1 reset=0"
	assert.Equal(t, expected, s.String())
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Status
		err      error
	}{
		{
			"TimestampPrefixIsSkipped",
			"[1.5s] dir=F brake=0 throttle=100 step=30 state=Moving steer=L mode=Auto auto=1",
			Status{
				Direction:       DirectionForward,
				ThrottlePercent: 100,
				Step:            30,
				SteeringState:   SteeringMoving,
				SteerDir:        SteerLeft,
				HomeMode:        HomeModeAuto,
				AutoHome:        true,
			},
			nil,
		},
		{
			"UnknownKeysIgnored",
			"fan=9 calibrated=1",
			Status{Calibrated: true, HomeMode: HomeModeAuto},
			nil,
		},
		{
			"NotAStatus",
			"[-] Set Verbose Mode",
			Status{},
			ErrNoStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseStatus(tt.line)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
		})
	}
}

func TestParseStatusRejectsBadNumbers(t *testing.T) {
	_, err := ParseStatus("step=abc")
	assert.Error(t, err)
}

func TestParseStatusReadsString(t *testing.T) {
	s := Status{
		Direction:       DirectionBackward,
		ThrottlePercent: 20,
		Step:            100,
		SteerDir:        SteerLeft,
		SteeringState:   SteeringMoving,
		SteerSpeed:      1,
		HomingFault:     true,
		HomeMode:        HomeModeManual,
		ResetAvailable:  true,
	}

	parsed, err := ParseStatus("[-] " + s.String())
	require.NoError(t, err)
	assert.Equal(t, s, parsed)
}

func TestSteerDirectionDelta(t *testing.T) {
	assert.Equal(t, 1, SteerLeft.Delta())
	assert.Equal(t, -1, SteerRight.Delta())
	assert.Equal(t, 0, SteerNone.Delta())
}
