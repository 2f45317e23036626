package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/wificar"
)

const maxLogLines = 200

// holdButton calls onDown when pressed and onUp when released instead of acting on a tap
type holdButton struct {
	widget.Button
	onDown, onUp func()
}

var (
	_ desktop.Mouseable = &holdButton{}
	_ mobile.Touchable  = &holdButton{}
)

func newHoldButton(label string, onDown, onUp func()) *holdButton {
	b := &holdButton{onDown: onDown, onUp: onUp}
	b.Text = label
	b.ExtendBaseWidget(b)
	return b
}

func (b *holdButton) MouseDown(*desktop.MouseEvent) { b.down() }
func (b *holdButton) MouseUp(*desktop.MouseEvent)   { b.up() }
func (b *holdButton) TouchDown(*mobile.TouchEvent)  { b.down() }
func (b *holdButton) TouchUp(*mobile.TouchEvent)    { b.up() }
func (b *holdButton) TouchCancel(*mobile.TouchEvent) {
	b.up()
}

func (b *holdButton) down() {
	if b.Disabled() {
		return
	}
	b.onDown()
}

func (b *holdButton) up() {
	b.onUp()
}

// keyButtons maps the keyboard to the drive buttons
var keyButtons = map[fyne.KeyName]button{
	fyne.KeyUp:    buttonForward,
	fyne.KeyW:     buttonForward,
	fyne.KeyDown:  buttonBackward,
	fyne.KeyS:     buttonBackward,
	fyne.KeyLeft:  buttonLeft,
	fyne.KeyA:     buttonLeft,
	fyne.KeyRight: buttonRight,
	fyne.KeyD:     buttonRight,
	fyne.KeySpace: buttonStop,
}

func createSlider(labelText string, min, max float64, onSet func(float64)) (*widget.Slider, *fyne.Container) {
	valueLabel := widget.NewLabel(fmt.Sprintf("%.0f%%", max))

	slider := widget.NewSlider(min, max)
	slider.Step = 1
	slider.SetValue(max)
	slider.OnChanged = func(value float64) {
		valueLabel.SetText(fmt.Sprintf("%.0f%%", value))
	}
	slider.OnChangeEnded = onSet

	return slider, container.NewVBox(
		container.NewGridWithColumns(2,
			widget.NewLabel(labelText),
			valueLabel,
		),
		slider,
	)
}

// CarUI is the remote control window. Commands are written to the writer passed to NewCarUI
// and the car's output is written to the CarUI.
type CarUI struct {
	app        fyne.App
	controller *controllerWrapper
	output     *lineWriter

	lastStatus  *timer
	statusLabel *widget.Label
	carSpeed    *widget.Slider
	steerSpeed  *widget.Slider
	autoHome    *widget.Check
	goHome      *widget.Button
	reset       *widget.Button
	logContent  *widget.Label
	logLines    []string

	content fyne.CanvasObject

	// applying is set while a Status updates the widgets so their callbacks do not send
	// the same values back to the car
	applying    bool
	initialized bool
}

var _ io.Writer = &CarUI{}

func NewCarUI(app fyne.App, w io.Writer) *CarUI {
	ui := &CarUI{
		app:         app,
		lastStatus:  newTimer("last update "),
		statusLabel: widget.NewLabel("waiting for the car"),
		logContent:  widget.NewLabel(""),
	}
	ui.controller = newControllerWrapper(w)
	ui.output = &lineWriter{
		onLine: func(line string) {
			fyne.Do(func() { ui.appendLog(line) })
		},
		onStatus: func(s wificar.Status) {
			fyne.Do(func() { ui.applyStatus(s) })
		},
	}

	ui.content = ui.createContent()
	return ui
}

// Write receives the car's output
func (ui *CarUI) Write(p []byte) (int, error) {
	return ui.output.Write(p)
}

// Show opens the window. It is closed when the context is cancelled.
func (ui *CarUI) Show(ctx context.Context) {
	window := ui.app.NewWindow("WiFi Car")

	if dc, ok := window.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(e *fyne.KeyEvent) {
			if b, ok := keyButtons[e.Name]; ok {
				ui.controller.Press(b)
			}
		})
		dc.SetOnKeyUp(func(e *fyne.KeyEvent) {
			if b, ok := keyButtons[e.Name]; ok {
				ui.controller.Release(b)
			}
		})
	}

	ui.lastStatus.Go()
	window.SetOnClosed(func() {
		ui.lastStatus.Stop()
		// never leave the car driving when the window goes away
		ui.controller.Press(buttonStop)
		ui.controller.Release(buttonStop)
		ui.app.Quit()
	})

	go func() {
		<-ctx.Done()
		fyne.Do(func() {
			ui.app.Quit()
		})
	}()

	window.SetContent(ui.content)
	window.Resize(fyne.NewSize(360, 480))
	window.Show()
}

func (ui *CarUI) createContent() fyne.CanvasObject {
	driveButton := func(b button) *holdButton {
		return newHoldButton(b.String(),
			func() { ui.controller.Press(b) },
			func() { ui.controller.Release(b) },
		)
	}

	driveGrid := container.NewGridWithColumns(3,
		layout.NewSpacer(), driveButton(buttonForward), layout.NewSpacer(),
		driveButton(buttonLeft), driveButton(buttonStop), driveButton(buttonRight),
		layout.NewSpacer(), driveButton(buttonBackward), layout.NewSpacer(),
	)

	var carSpeedContainer, steerSpeedContainer *fyne.Container
	ui.carSpeed, carSpeedContainer = createSlider("Car Speed", 0, 100, ui.controller.SetCarSpeed)
	ui.steerSpeed, steerSpeedContainer = createSlider("Steering Speed", 1, 100, ui.controller.SetSteerSpeed)

	ui.autoHome = widget.NewCheck("Auto Home", func(enabled bool) {
		if ui.applying {
			return
		}
		ui.controller.SetAutoHome(enabled)
	})
	ui.autoHome.Disable()

	ui.goHome = widget.NewButton("Go Home", ui.controller.GoHome)
	ui.goHome.Disable()

	ui.reset = widget.NewButton("Set Center", ui.controller.ResetPosition)
	ui.reset.Disable()

	logScroll := container.NewVScroll(ui.logContent)
	logScroll.SetMinSize(fyne.NewSize(300, 100))

	return container.NewVBox(
		container.NewHBox(
			container.NewPadded(ui.statusLabel),
			layout.NewSpacer(),
			container.NewPadded(ui.lastStatus.text),
		),
		driveGrid,
		carSpeedContainer,
		steerSpeedContainer,
		container.NewHBox(ui.autoHome, ui.goHome, ui.reset),
		widget.NewAccordion(
			widget.NewAccordionItem("Logs", logScroll),
		),
	)
}

func (ui *CarUI) applyStatus(s wificar.Status) {
	ui.applying = true
	defer func() { ui.applying = false }()

	ui.lastStatus.Set(time.Now())
	ui.statusLabel.SetText(statusText(s))

	// the sliders follow the car once so later drags are not overwritten
	if !ui.initialized {
		ui.carSpeed.SetValue(float64(s.ThrottlePercent))
		ui.steerSpeed.SetValue(float64(s.SteerSpeed))
		ui.initialized = true
	}

	c := controlsFor(s)
	ui.autoHome.SetChecked(c.autoHomeChecked)
	setEnabled(ui.autoHome, c.autoHomeToggle)
	setEnabled(ui.goHome, c.goHome)
	setEnabled(ui.reset, c.reset)
}

func (ui *CarUI) appendLog(line string) {
	ui.logLines = append(ui.logLines, line)
	if len(ui.logLines) > maxLogLines {
		ui.logLines = ui.logLines[len(ui.logLines)-maxLogLines:]
	}
	ui.logContent.SetText(strings.Join(ui.logLines, "\n"))
}

type disableable interface {
	Enable()
	Disable()
}

func setEnabled(w disableable, enabled bool) {
	if enabled {
		w.Enable()
		return
	}
	w.Disable()
}
