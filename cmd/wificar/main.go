package main

import (
	"context"
	"flag"
	"io"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/calvinmclean/wificar/controller"
	"github.com/calvinmclean/wificar/ui"
)

func main() {
	cfg, err := controller.LoadConfig()
	if err != nil {
		panic(err)
	}

	flag.StringVar(&cfg.SerialPort, "port", cfg.SerialPort, "Serial port of the car, or \"None\" to run the simulator")
	flag.StringVar(&cfg.BaudRate, "baud", cfg.BaudRate, "Serial baud rate")
	flag.StringVar(&cfg.StoragePath, "storage", cfg.StoragePath, "File holding the simulator's steering position")
	flag.StringVar(&cfg.HomeMode, "home", cfg.HomeMode, "Simulator home mode: Auto, Manual or User")
	flag.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "Log level")
	flag.Parse()

	if os.Getenv("ENABLE_UI") == "true" {
		runUI(cfg)
		return
	}

	runCLI(cfg)
}

func runUI(cfg controller.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := app.NewWithID("com.calvinmclean.wificar")

	configWindow := ui.NewConfigWindow(a)
	configWindow.OnSubmit = func() {
		c, err := controller.New(cfg)
		if err != nil {
			showError(a, err)
			return
		}

		r, w := io.Pipe()

		// read from Stdin also
		go func() {
			io.Copy(w, os.Stdin)
		}()

		carUI := ui.NewCarUI(a, w)

		go func() {
			defer c.Close()
			err := c.Run(ctx, r, io.MultiWriter(os.Stdout, carUI))
			if err != nil {
				fyne.Do(func() {
					showError(a, err)
				})
			}
		}()

		carUI.Show(ctx)
	}
	configWindow.Show(&cfg)

	a.Run()
	cancel()
}

func runCLI(cfg controller.Config) {
	c, err := controller.New(cfg)
	if err != nil {
		panic(err)
	}
	defer c.Close()

	err = c.Run(context.Background(), os.Stdin, os.Stdout)
	if err != nil {
		panic(err)
	}
}

func showError(a fyne.App, err error) {
	w := a.NewWindow("WiFi Car - Error")
	w.Resize(fyne.NewSize(400, 200))
	w.Show()
	ui.ShowError(a, w, err)
}
