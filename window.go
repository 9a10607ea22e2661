package main

import (
	"io/fs"

	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"logviewer/logger"
)

const (
	windowLabel  = "main"
	windowTitle  = "Hamsti's Log Viewer"
	windowWidth  = 800
	windowHeight = 600

	appID = "com.hamsti.logviewer"
)

// TitleBarStyle selects how the window title bar is drawn.
type TitleBarStyle int

const (
	TitleBarDefault TitleBarStyle = iota
	TitleBarTransparent
)

// WindowConfig is the effective configuration of the main window.
type WindowConfig struct {
	Label    string
	Title    string
	Width    int
	Height   int
	TitleBar TitleBarStyle
}

// windowConfig returns the main window configuration for goos. Only macOS
// gets a transparent title bar.
func windowConfig(goos string) WindowConfig {
	cfg := WindowConfig{
		Label:    windowLabel,
		Title:    windowTitle,
		Width:    windowWidth,
		Height:   windowHeight,
		TitleBar: TitleBarDefault,
	}
	if goos == "darwin" {
		cfg.TitleBar = TitleBarTransparent
	}
	return cfg
}

// appOptions assembles the Wails options for a single window hosting app.
func appOptions(win WindowConfig, app *App, appMenu *menu.Menu, assets fs.FS) *options.App {
	opts := &options.App{
		Title:  win.Title,
		Width:  win.Width,
		Height: win.Height,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Menu:       appMenu,
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: appID + "." + win.Label,
			OnSecondInstanceLaunch: func(data options.SecondInstanceData) {
				logger.Info("Second instance launched with %v, focusing %s window", data.Args, win.Label)
				if app.ctx != nil {
					runtime.WindowUnminimise(app.ctx)
					runtime.Show(app.ctx)
				}
			},
		},
		Bind: []interface{}{
			app,
		},
	}

	if win.TitleBar == TitleBarTransparent {
		opts.Mac = &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   win.Title,
				Message: "Version " + app.Version(),
			},
		}
	}
	return opts
}

// appEmitter sends bridge events through the Wails runtime.
type appEmitter struct {
	app *App
}

func (e appEmitter) Emit(event string, data ...interface{}) error {
	return e.app.emit(event, data...)
}

// menuActions routes menu clicks to the app.
type menuActions struct {
	app *App
}

func (m menuActions) Dispatch(id string) {
	logger.Debug("menu item %q activated", id)
	m.app.bridge.HandleMenuEvent(id)
}

func (m menuActions) About() {
	if m.app.ctx == nil {
		return
	}
	_, err := runtime.MessageDialog(m.app.ctx, runtime.MessageDialogOptions{
		Type:    runtime.InfoDialog,
		Title:   windowTitle,
		Message: "Version " + m.app.Version(),
	})
	logger.WarnWithError(err, "About dialog failed")
}

func (m menuActions) Hide() {
	if m.app.ctx != nil {
		runtime.Hide(m.app.ctx)
	}
}

// HideOthers is handled natively by the macOS app menu role.
func (m menuActions) HideOthers() {}

func (m menuActions) Quit() {
	m.app.quit()
}
