package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"github.com/calvinmclean/wificar"
)

// Controller bridges the car's command port to the host. Commands are written to the port and
// the car's output, including its Status lines, is copied back.
type Controller struct {
	port io.ReadWriteCloser
	log  zerolog.Logger

	mtx    sync.Mutex
	status wificar.Status
	ok     bool
}

// NewFromEnv creates a Controller using LoadConfig
func NewFromEnv() (*Controller, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New opens the configured serial port, or starts a Simulator for SerialPortNone
func New(cfg Config) (*Controller, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel)

	var port io.ReadWriteCloser
	if cfg.SerialPort == SerialPortNone {
		homeMode, _ := wificar.ParseHomeMode(cfg.HomeMode)
		logger.Info().Str("storage", cfg.StoragePath).Stringer("home_mode", homeMode).Msg("starting simulator")

		port, err = NewSimulator(cfg.StoragePath, homeMode)
		if err != nil {
			return nil, err
		}
	} else {
		baudRate, _ := cfg.baudRate()
		logger.Info().Str("port", cfg.SerialPort).Int("baud_rate", baudRate).Msg("opening serial port")

		port, err = serial.Open(cfg.SerialPort, &serial.Mode{BaudRate: baudRate})
		if err != nil {
			return nil, fmt.Errorf("error opening serial port: %w", err)
		}
	}

	return newWithPort(port, logger), nil
}

func newWithPort(port io.ReadWriteCloser, logger zerolog.Logger) *Controller {
	return &Controller{port: port, log: logger}
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger()
}

// Run sends each line from in to the car and copies the car's output to out. It returns when
// the context is cancelled, in is exhausted, or the port stops returning data.
func (c *Controller) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	portDone := make(chan error, 1)
	go func() {
		portDone <- c.copyOutput(out)
	}()

	inDone := make(chan error, 1)
	go func() {
		inDone <- c.copyInput(in)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-inDone:
		return err
	case err := <-portDone:
		return err
	}
}

// Send writes a single command to the car
func (c *Controller) Send(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}

	c.log.Debug().Str("command", command).Msg("sending command")
	_, err := io.WriteString(c.port, command+"\n")
	if err != nil {
		return fmt.Errorf("error writing command: %w", err)
	}
	return nil
}

// Status returns the last Status reported by the car
func (c *Controller) Status() (wificar.Status, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.status, c.ok
}

func (c *Controller) Close() error {
	return c.port.Close()
}

func (c *Controller) copyInput(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		err := c.Send(scanner.Text())
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (c *Controller) copyOutput(out io.Writer) error {
	scanner := bufio.NewScanner(c.port)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\x00")
		if line == "" {
			continue
		}
		c.handleLine(line)

		_, err := fmt.Fprintln(out, line)
		if err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}

	err := scanner.Err()
	if err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("error reading port: %w", err)
	}
	return nil
}

func (c *Controller) handleLine(line string) {
	if strings.Contains(line, "error:") {
		c.log.Warn().Str("line", line).Msg("car reported an error")
		return
	}

	status, err := wificar.ParseStatus(line)
	if err != nil {
		c.log.Debug().Str("line", line).Msg("car output")
		return
	}

	c.mtx.Lock()
	prev, ok := c.status, c.ok
	c.status, c.ok = status, true
	c.mtx.Unlock()

	c.log.Debug().Stringer("status", status).Msg("status")
	if ok && !prev.HomingFault && status.HomingFault {
		c.log.Error().Int("step", status.Step).Msg("steering homing stalled")
	}
	if ok && prev.Calibrated != status.Calibrated {
		c.log.Info().Bool("calibrated", status.Calibrated).Msg("steering calibration changed")
	}
}
