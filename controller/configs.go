package controller

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"go.bug.st/serial/enumerator"

	"github.com/calvinmclean/wificar"
)

// SerialPortNone runs the car in a Simulator instead of connecting to a serial port
const SerialPortNone = "None"

var ErrNoUSBSerial = errors.New("no USB serial ports found")

// Config is the host configuration. LoadConfig reads it from environment variables like
// WIFICAR_SERIALPORT and an optional wificar.json/yaml/toml in the working directory.
type Config struct {
	SerialPort string `mapstructure:"serialPort"`
	BaudRate   string `mapstructure:"baudRate"`

	// StoragePath is the file that holds the simulated EEPROM
	StoragePath string `mapstructure:"storagePath"`
	// HomeMode is used by the simulator: Auto, Manual or User
	HomeMode string `mapstructure:"homeMode"`

	LogLevel string `mapstructure:"logLevel"`
}

// LoadConfig reads the Config with defaults
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetDefault("serialPort", "")
	v.SetDefault("baudRate", "115200")
	v.SetDefault("storagePath", "wificar.eeprom")
	v.SetDefault("homeMode", wificar.HomeModeManual.String())
	v.SetDefault("logLevel", "info")

	v.SetEnvPrefix("WIFICAR")
	for _, key := range []string{"serialPort", "baudRate", "storagePath", "homeMode", "logLevel"} {
		err := v.BindEnv(key)
		if err != nil {
			return Config{}, fmt.Errorf("error binding env for %q: %w", key, err)
		}
	}

	v.SetConfigName("wificar")
	v.AddConfigPath(".")
	var notFound viper.ConfigFileNotFoundError
	err := v.ReadInConfig()
	if err != nil && !errors.As(err, &notFound) {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	err = v.Unmarshal(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later when connecting
func (c Config) Validate() error {
	if c.SerialPort == "" {
		return errors.New("missing serial port")
	}
	if c.SerialPort != SerialPortNone {
		_, err := c.baudRate()
		if err != nil {
			return err
		}
	}
	if _, ok := wificar.ParseHomeMode(c.HomeMode); !ok {
		return fmt.Errorf("invalid home mode %q", c.HomeMode)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

func (c Config) baudRate() (int, error) {
	baudRate, err := strconv.Atoi(c.BaudRate)
	if err != nil || baudRate <= 0 {
		return 0, fmt.Errorf("invalid baud rate %q", c.BaudRate)
	}
	return baudRate, nil
}

// GetSerialPorts lists the USB serial ports, which is where the car's board shows up
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var result []string
	for _, port := range ports {
		if port.IsUSB {
			result = append(result, port.Name)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoUSBSerial
	}
	return result, nil
}
