package ui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/wificar"
	"github.com/calvinmclean/wificar/controller"
)

var homeModes = []string{
	wificar.HomeModeAuto.String(),
	wificar.HomeModeManual.String(),
	wificar.HomeModeUser.String(),
}

type ConfigWindow struct {
	app      fyne.App
	OnSubmit func()
}

func NewConfigWindow(app fyne.App) *ConfigWindow {
	return &ConfigWindow{
		app: app,
	}
}

// loadConfigFromPreferences fills in values that were not set by the environment
func (cw *ConfigWindow) loadConfigFromPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	if cfg.SerialPort == "" {
		cfg.SerialPort = prefs.StringWithFallback("serialPort", "")
	}
	cfg.BaudRate = prefs.StringWithFallback("baudRate", cfg.BaudRate)
	cfg.StoragePath = prefs.StringWithFallback("storagePath", cfg.StoragePath)
	cfg.HomeMode = prefs.StringWithFallback("homeMode", cfg.HomeMode)
}

func (cw *ConfigWindow) saveConfigToPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	prefs.SetString("serialPort", cfg.SerialPort)
	prefs.SetString("baudRate", cfg.BaudRate)
	prefs.SetString("storagePath", cfg.StoragePath)
	prefs.SetString("homeMode", cfg.HomeMode)
}

func (cw *ConfigWindow) Show(cfg *controller.Config) {
	window := cw.app.NewWindow("WiFi Car - Configuration")
	window.Resize(fyne.NewSize(400, 250))
	window.SetCloseIntercept(func() {
		// Treat window close as cancel
		window.Close()
		cw.app.Quit()
	})
	window.Show()

	cw.loadConfigFromPreferences(cfg)

	serialPorts, err := controller.GetSerialPorts()
	if err != nil && !errors.Is(err, controller.ErrNoUSBSerial) {
		ShowError(cw.app, window, fmt.Errorf("error getting serial ports: %w", err))
		return
	}

	serialPorts = append(serialPorts, controller.SerialPortNone)

	serialEntry := widget.NewSelect(serialPorts, nil)
	if cfg.SerialPort == "" {
		cfg.SerialPort = serialPorts[0]
	}
	serialEntry.Bind(binding.BindString(&cfg.SerialPort))

	baudRateEntry := widget.NewEntry()
	baudRateEntry.Bind(binding.BindString(&cfg.BaudRate))

	// storage and home mode only apply to the simulator
	storageEntry := widget.NewEntry()
	storageEntry.Bind(binding.BindString(&cfg.StoragePath))

	homeModeEntry := widget.NewSelect(homeModes, nil)
	homeModeEntry.Bind(binding.BindString(&cfg.HomeMode))

	errorLabel := widget.NewLabel("")

	submitButton := widget.NewButton("Submit", func() {
		cw.saveConfigToPreferences(cfg)
		cw.OnSubmit()
		window.Close()
	})
	submitButton.Disable()

	validateForm := func() {
		err := cfg.Validate()
		if err != nil {
			errorLabel.SetText(err.Error())
			submitButton.Disable()
			return
		}
		errorLabel.SetText("")
		submitButton.Enable()
	}

	setSimulatorFields := func() {
		if cfg.SerialPort == controller.SerialPortNone {
			storageEntry.Enable()
			homeModeEntry.Enable()
			return
		}
		storageEntry.Disable()
		homeModeEntry.Disable()
	}

	// Add listeners to field changes
	serialEntry.OnChanged = func(_ string) {
		setSimulatorFields()
		validateForm()
	}
	baudRateEntry.OnChanged = func(_ string) { validateForm() }
	storageEntry.OnChanged = func(_ string) { validateForm() }
	homeModeEntry.OnChanged = func(_ string) { validateForm() }

	// Initial validation
	setSimulatorFields()
	validateForm()

	form := container.NewVBox(
		widget.NewCard("Configuration", "", container.NewVBox(
			container.NewGridWithColumns(2,
				widget.NewLabel("Serial Port:"),
				serialEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Baud Rate:"),
				baudRateEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Simulator Storage:"),
				storageEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Simulator Home Mode:"),
				homeModeEntry,
			),
			errorLabel,
		)),
		container.NewHBox(
			widget.NewButton("Cancel", func() {
				window.Close()
				cw.app.Quit()
			}),
			submitButton,
		),
	)

	window.SetContent(form)
}

// ShowError shows err and quits when it is dismissed
func ShowError(app fyne.App, window fyne.Window, err error) {
	d := dialog.NewError(err, window)
	d.SetOnClosed(func() {
		app.Quit()
	})
	d.Show()
}
