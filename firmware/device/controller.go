package device

import (
	"errors"
	"strconv"
	"time"

	"github.com/calvinmclean/wificar"
	"github.com/calvinmclean/wificar/firmware/home"
	"github.com/calvinmclean/wificar/firmware/motion"
	"github.com/calvinmclean/wificar/firmware/position"
	"github.com/calvinmclean/wificar/firmware/steering"
)

// Device is the car. It owns the throttle, steering and home components and reports its Status
// back over the Port whenever it changes.
type Device struct {
	port     Port
	now      func() time.Time
	features Features

	motion   *motion.Actuator
	steering *steering.Controller
	home     *home.Machine

	startTime time.Time
	// lastDrive is when the throttle last started or stopped, used to detect idle for auto-home
	lastDrive time.Time

	lastStatus wificar.Status
	reported   bool

	verbose bool
}

// New intializes the components from the provided configs. The steering position is read
// from storage.
func New(hw Hardware, cfg Config) (*Device, error) {
	if hw.Port == nil || hw.Storage == nil {
		return nil, errors.New("port and storage are required")
	}
	if hw.Now == nil {
		hw.Now = time.Now
	}
	cfg.Steering.MaxSteps = steeringMaxSteps(cfg.Steering)

	store := position.New(hw.Storage, cfg.Steering.MaxSteps)
	steer, err := steering.New(hw.Steering, store, cfg.Steering)
	if err != nil {
		return nil, errors.New("error creating steering: " + err.Error())
	}

	now := hw.Now()
	d := &Device{
		port:      hw.Port,
		now:       hw.Now,
		features:  cfg.Features,
		motion:    motion.New(cfg.Motion),
		steering:  steer,
		home:      home.New(cfg.Home),
		startTime: now,
		lastDrive: now,
	}
	d.motion.SetThrottle(cfg.CarSpeed)

	if !d.steering.State().Calibrated {
		d.Print(d.ts() + " steering is not calibrated")
	}

	return d, nil
}

// Drive starts driving in dir
func (d *Device) Drive(dir wificar.Direction) {
	if d.verbose {
		d.Print(d.ts() + " Drive " + dir.String())
	}
	if d.motion.Driving(dir) {
		return
	}
	d.motion.ApplyDirection(dir, d.now())
	d.lastDrive = d.now()
}

// StopDrive brakes only if driving in dir
func (d *Device) StopDrive(dir wificar.Direction) {
	if d.verbose {
		d.Print(d.ts() + " StopDrive " + dir.String())
	}
	if d.motion.Stop(dir) {
		d.lastDrive = d.now()
	}
}

// Steer starts steering in dir
func (d *Device) Steer(dir wificar.SteerDirection) {
	if d.verbose {
		d.Print(d.ts() + " Steer " + dir.String())
	}
	d.steering.Start(dir)
}

// StopSteer stops steering only if steering in dir
func (d *Device) StopSteer(dir wificar.SteerDirection) error {
	if d.verbose {
		d.Print(d.ts() + " StopSteer " + dir.String())
	}
	_, err := d.steering.Stop(dir, d.now())
	if err != nil {
		return errors.New("error saving steering position: " + err.Error())
	}
	return nil
}

// StopAll brakes and stops any steering, including homing
func (d *Device) StopAll() error {
	if d.verbose {
		d.Print(d.ts() + " StopAll")
	}
	if !d.motion.Idle() {
		d.lastDrive = d.now()
	}
	d.motion.ApplyStop()

	_, err := d.steering.Halt(d.now())
	if err != nil {
		return errors.New("error saving steering position: " + err.Error())
	}
	return nil
}

// SetCarSpeed sets the throttle percent
func (d *Device) SetCarSpeed(percent int) {
	if !d.features.CarSpeed {
		if d.verbose {
			d.Print(d.ts() + " car speed is disabled")
		}
		return
	}
	if d.verbose {
		d.Print(d.ts() + " SetCarSpeed " + strconv.Itoa(percent))
	}
	d.motion.SetThrottle(percent)
}

// SetSteerSpeed sets the manual steering speed percent
func (d *Device) SetSteerSpeed(percent int) {
	if !d.features.SteeringSpeed {
		if d.verbose {
			d.Print(d.ts() + " steering speed is disabled")
		}
		return
	}
	if d.verbose {
		d.Print(d.ts() + " SetSteerSpeed " + strconv.Itoa(percent))
	}
	d.steering.SetSpeed(percent)
}

// SetAutoHome enables or disables auto-home. It only has an effect in HomeModeUser.
func (d *Device) SetAutoHome(enabled bool) {
	if d.verbose {
		d.Print(d.ts() + " SetAutoHome " + b2s(enabled))
	}
	d.home.SetAuto(enabled)
}

// GoHome starts homing if manual homing is available
func (d *Device) GoHome() error {
	if d.verbose {
		d.Print(d.ts() + " GoHome")
	}
	if !d.home.ManualAvailable(d.needsRecovery()) {
		if d.verbose {
			d.Print(d.ts() + " manual home is not available in mode " + d.home.Mode().String())
		}
		return nil
	}
	return d.steering.Home(d.now())
}

// ResetPosition uses the current steering position as center
func (d *Device) ResetPosition() error {
	if d.verbose {
		d.Print(d.ts() + " ResetPosition")
	}
	if !d.resetAvailable() {
		if d.verbose {
			d.Print(d.ts() + " reset position is not available")
		}
		return nil
	}

	_, err := d.steering.ResetPosition()
	if err != nil {
		return errors.New("error saving steering position: " + err.Error())
	}
	return nil
}

// Tick advances the throttle reversal and steering, starts auto-home when the car is idle and
// reports the Status if it changed
func (d *Device) Tick(now time.Time) {
	d.motion.Tick(now)

	err := d.steering.Tick(now)
	if err != nil {
		d.Print(d.ts() + " error: " + err.Error())
	}

	if d.home.ShouldHome(d.activity(), now) {
		if d.verbose {
			d.Print(d.ts() + " auto-home")
		}
		err = d.steering.Home(now)
		if err != nil {
			d.Print(d.ts() + " error: " + err.Error())
		}
	}

	d.report()
}

// Status returns a snapshot of every component
func (d *Device) Status() wificar.Status {
	m := d.motion.State()
	s := d.steering.State()
	return wificar.Status{
		Direction:       m.Direction,
		BrakeEngaged:    m.BrakeEngaged,
		ThrottlePercent: m.ThrottlePercent,
		DriveLevel:      int(m.DriveLevel),
		Reversing:       m.Reversing,

		Step:          s.Step,
		SteerDir:      s.Direction,
		SteeringState: s.Mode,
		SteerSpeed:    s.SpeedPercent,
		Calibrated:    s.Calibrated,
		HomingFault:   s.HomingFault,

		HomeMode:       d.home.Mode(),
		AutoHome:       d.home.AutoActive(),
		ManualHome:     d.home.ManualAvailable(d.needsRecovery()),
		ResetAvailable: d.resetAvailable(),
	}
}

// Debug prints the current Status
func (d *Device) Debug() {
	d.Print(d.ts() + " " + d.Status().String())
}

// Verbose sets the Device to Verbose mode and increases logging
func (d *Device) Verbose() {
	d.verbose = true
	d.Print(d.ts() + " Set Verbose Mode")
}

// Print writes a line to the Port
func (d *Device) Print(line string) {
	_, _ = d.port.Write([]byte(line + "\r\n"))
}

func (d *Device) ReadByte() (byte, error) {
	return d.port.ReadByte()
}

func (d *Device) resetAvailable() bool {
	return d.features.ResetPosition && (d.home.Mode() != wificar.HomeModeAuto || d.needsRecovery())
}

// needsRecovery is true when only a reset or a manual home can make the steering trusted again
func (d *Device) needsRecovery() bool {
	s := d.steering.State()
	return !s.Calibrated || s.HomingFault
}

func (d *Device) activity() home.Activity {
	s := d.steering.State()

	idleSince := d.steering.IdleSince()
	if d.lastDrive.After(idleSince) {
		idleSince = d.lastDrive
	}

	return home.Activity{
		SteeringIdle: s.Mode == wificar.SteeringIdle,
		Step:         s.Step,
		Calibrated:   s.Calibrated,
		HomingFault:  s.HomingFault,
		DriveIdle:    d.motion.Idle(),
		IdleSince:    idleSince,
	}
}

// report prints the Status when it changes. The step count is only reported once the steering
// settles so moving does not flood the Port.
func (d *Device) report() {
	status := d.Status()
	if status.SteeringState != wificar.SteeringIdle {
		status.Step = d.lastStatus.Step
	}
	if d.reported && status == d.lastStatus {
		return
	}

	d.lastStatus = status
	d.reported = true
	d.Print(d.ts() + " " + status.String())
}

// ts returns the duration timestamp for logging
func (d *Device) ts() string {
	return "[" + d.now().Sub(d.startTime).String() + "]"
}

func steeringMaxSteps(cfg steering.Config) int {
	if cfg.MaxSteps == 0 {
		return steering.DefaultMaxSteps
	}
	return cfg.MaxSteps
}

func b2s(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
