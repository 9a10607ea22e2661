/*
   Hamsti's Log Viewer
   Copyright (C) 2025 Hamsti's Log Viewer Project

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package main

import (
	"embed"
	"io/fs"
	"path/filepath"
	goruntime "runtime"

	"logviewer/appmenu"
	"logviewer/logger"
	"logviewer/settings"
	"logviewer/version"

	"github.com/wailsapp/wails/v2"
)

//go:embed all:frontend
var assets embed.FS

func getAssets() fs.FS {
	sub, err := fs.Sub(assets, "frontend")
	if err != nil {
		panic(err)
	}
	return sub
}

func main() {
	appDir := settings.AppDir()

	cfg, cfgErr := settings.LoadConfig(filepath.Join(appDir, "config.toml"), appDir)

	level, ok := logger.ParseLevel(cfg.LogLevel)
	if err := logger.Init(cfg.LogDir, level); err != nil {
		// Fall back to stdout-only logging if file logging fails
		logger.Warn("Failed to initialize file logging: %v", err)
	}
	defer logger.Close()

	if !ok {
		logger.Warn("log_level=%q is not supported, using info", cfg.LogLevel)
	}
	if cfgErr != nil {
		logger.WarnWithError(cfgErr, "Config problem, updates disabled")
		cfg.Updater.Enabled = false
	}

	logger.Info("Hamsti's Log Viewer %s starting...", version.String())

	store, err := settings.OpenStore(filepath.Join(appDir, "store.json"))
	if err != nil {
		logger.Fatal("Failed to open settings store: %v", err)
	}

	// Create an instance of the app structure
	app := NewApp(cfg, store)

	m, err := appmenu.Build()
	if err != nil {
		logger.Fatal("Failed to build menu: %v", err)
	}

	win := windowConfig(goruntime.GOOS)
	err = wails.Run(appOptions(win, app, appmenu.Render(m, goruntime.GOOS, menuActions{app}), getAssets()))
	if err != nil {
		logger.Fatal("Application failed to start: %v", err)
	}

	logger.Info("Hamsti's Log Viewer shutting down")
}
