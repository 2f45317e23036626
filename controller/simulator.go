package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/calvinmclean/wificar"
	"github.com/calvinmclean/wificar/firmware/commands"
	"github.com/calvinmclean/wificar/firmware/device"
	"github.com/calvinmclean/wificar/firmware/home"
	"github.com/calvinmclean/wificar/firmware/position"
	"github.com/calvinmclean/wificar/firmware/steering"
)

// simulatedStorageSize matches a small EEPROM page so the position layout fits
const simulatedStorageSize = 64

var errNoInput = errors.New("no input")

// Simulator runs the firmware's Device in-process. It is used in place of a serial port, so
// writes are commands and reads are the Device's output.
type Simulator struct {
	input  chan byte
	output chan []byte

	outR *io.PipeReader
	outW *io.PipeWriter

	storage *os.File
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ io.ReadWriteCloser = &Simulator{}

// NewSimulator starts a simulated car. The steering position is kept in the file at
// storagePath so it survives restarts like the EEPROM does.
func NewSimulator(storagePath string, homeMode wificar.HomeMode) (*Simulator, error) {
	storage, err := openStorage(storagePath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	outR, outW := io.Pipe()
	s := &Simulator{
		input:   make(chan byte, 256),
		output:  make(chan []byte, 64),
		outR:    outR,
		outW:    outW,
		storage: storage,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	d, err := device.New(device.Hardware{
		Steering: simulatedSteering{},
		Storage:  storage,
		Port:     simulatorPort{s},
	}, device.Config{
		Steering: steering.Config{
			MaxSteps:            100,
			MinPulseInterval:    1 * time.Millisecond,
			MaxPulseInterval:    20 * time.Millisecond,
			HomingPulseInterval: 3 * time.Millisecond,
			DefaultSpeed:        steering.DefaultSpeed,
		},
		Home: home.Config{Mode: homeMode},
		Features: device.Features{
			CarSpeed:      true,
			SteeringSpeed: true,
			ResetPosition: true,
		},
	})
	if err != nil {
		cancel()
		storage.Close()
		return nil, fmt.Errorf("error creating simulated device: %w", err)
	}

	go s.pumpOutput()
	go func() {
		defer close(s.done)
		commands.Run(ctx, d)
	}()

	return s, nil
}

// Read returns the Device's output
func (s *Simulator) Read(p []byte) (int, error) {
	return s.outR.Read(p)
}

// Write sends commands to the Device
func (s *Simulator) Write(p []byte) (int, error) {
	for i, b := range p {
		select {
		case <-s.done:
			return i, io.ErrClosedPipe
		case <-s.ctx.Done():
			return i, io.ErrClosedPipe
		default:
		}

		select {
		case s.input <- b:
		case <-s.done:
			return i, io.ErrClosedPipe
		case <-s.ctx.Done():
			return i, io.ErrClosedPipe
		}
	}
	return len(p), nil
}

// Close stops the Device and closes the storage file
func (s *Simulator) Close() error {
	s.cancel()
	// unblock output that nobody reads
	s.outR.Close()
	<-s.done
	s.outW.Close()
	return s.storage.Close()
}

// pumpOutput moves the Device's output to the pipe so the Device does not block on a reader
func (s *Simulator) pumpOutput() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case b := <-s.output:
			_, err := s.outW.Write(b)
			if err != nil {
				return
			}
		}
	}
}

// simulatorPort is the Device's view of the Simulator
type simulatorPort struct {
	s *Simulator
}

func (p simulatorPort) ReadByte() (byte, error) {
	select {
	case b := <-p.s.input:
		return b, nil
	default:
		return 0, errNoInput
	}
}

func (p simulatorPort) Write(b []byte) (int, error) {
	line := make([]byte, len(b))
	copy(line, b)

	select {
	case p.s.output <- line:
		return len(b), nil
	case <-p.s.ctx.Done():
		return 0, io.ErrClosedPipe
	}
}

type simulatedSteering struct{}

func (simulatedSteering) SetDirection(wificar.SteerDirection) {}
func (simulatedSteering) Step()                               {}

// openStorage opens the simulated EEPROM file, creating it erased if it does not exist
func openStorage(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening storage: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error reading storage: %w", err)
	}

	if info.Size() < simulatedStorageSize {
		erased := make([]byte, simulatedStorageSize-info.Size())
		for i := range erased {
			erased[i] = position.Erased
		}
		_, err = f.WriteAt(erased, info.Size())
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("error initializing storage: %w", err)
		}
	}

	return f, nil
}
