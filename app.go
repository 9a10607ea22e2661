package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"logviewer/appmenu"
	"logviewer/logger"
	"logviewer/settings"
	"logviewer/updater"
	"logviewer/version"
)

// ==========================================================
// PATH VALIDATION (Security)
// ==========================================================

var (
	ErrEmptyPath       = errors.New("path cannot be empty")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrNotRegularFile  = errors.New("path is not a regular file")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnknownTheme    = errors.New("unknown theme")
	ErrUnsupportedURL  = errors.New("only http and https URLs can be opened")
	errNotStarted      = errors.New("application not started")
)

// MaxLogFileSize is the largest file ReadTextFile will hand to the frontend (256MB)
const MaxLogFileSize = 256 * 1024 * 1024

// validateLogPath cleans path and ensures it is absolute.
func validateLogPath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	// Clean the path to resolve any . or .. components
	cleanPath := filepath.Clean(path)

	if !filepath.IsAbs(cleanPath) {
		return "", ErrPathNotAbsolute
	}

	return cleanPath, nil
}

// Theme values accepted by SetTheme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"

	themeKey          = "theme"
	themeChangedEvent = "theme-changed"
)

// App struct
type App struct {
	ctx context.Context

	cfg    settings.Config
	store  *settings.Store
	bridge *appmenu.Bridge
	update *updater.Task
}

// NewApp creates a new App application struct
func NewApp(cfg settings.Config, store *settings.Store) *App {
	a := &App{cfg: cfg, store: store}
	a.bridge = appmenu.NewBridge(appEmitter{a})
	return a
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.applyTheme(a.GetTheme())

	if a.cfg.Updater.Enabled {
		a.update = updater.Start(context.Background(), a.newUpdateFlow())
	}
}

func (a *App) shutdown(ctx context.Context) {
	if err := a.store.Save(); err != nil {
		logger.WithError(err, "Failed to save settings")
	}

	if a.update == nil {
		return
	}
	select {
	case <-a.update.Done():
		if err := a.update.Err(); err != nil {
			logger.Debug("Update task had failed: %v", err)
		}
	default:
		logger.Info("Update task still running at shutdown, not waiting")
	}
}

func (a *App) newUpdateFlow() *updater.Flow {
	svc := &updater.HTTPService{
		Endpoint:       a.cfg.Updater.Endpoint,
		PublicKey:      a.cfg.Updater.PubKey,
		CurrentVersion: version.Version,
	}
	return updater.NewFlow(svc, &updater.ProcessRestarter{Quit: a.quit})
}

func (a *App) emit(event string, data ...interface{}) error {
	if a == nil || a.ctx == nil {
		return errNotStarted
	}
	runtime.EventsEmit(a.ctx, event, data...)
	return nil
}

func (a *App) quit() {
	if a.ctx != nil {
		runtime.Quit(a.ctx)
	}
}

// ==========================================================
// EXPOSED FUNCTIONS
// ==========================================================

// FilterAndSort is a placeholder; it echoes its arguments and does no work.
func (a *App) FilterAndSort(filter string, sort string) string {
	return fmt.Sprintf("filterAndSort called with filter: '%s' and sort: '%s'", filter, sort)
}

func (a *App) Version() string {
	return version.String()
}

// OpenLogFile shows a native open dialog for log files. It returns "" when
// the user cancels.
func (a *App) OpenLogFile() string {
	filename, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Open Log File",
		Filters: []runtime.FileFilter{
			{DisplayName: "Log Files (*.log)", Pattern: "*.log"},
		},
	})
	if err != nil {
		logger.WarnWithError(err, "Open dialog failed")
		return ""
	}
	return filename
}

// ReadTextFile returns the raw contents of an absolute path.
func (a *App) ReadTextFile(path string) (string, error) {
	safePath, err := validateLogPath(path)
	if err != nil {
		return "", err
	}

	// Security: Check file size before reading
	info, err := os.Stat(safePath)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotRegularFile
	}
	if info.Size() > MaxLogFileSize {
		return "", fmt.Errorf("%w (max %dMB)", ErrFileTooLarge, MaxLogFileSize/(1024*1024))
	}

	f, err := os.Open(safePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// Security: Use LimitReader in case the file grows while reading
	content, err := io.ReadAll(io.LimitReader(f, MaxLogFileSize+1))
	if err != nil {
		return "", err
	}
	if int64(len(content)) > MaxLogFileSize {
		return "", fmt.Errorf("%w (max %dMB)", ErrFileTooLarge, MaxLogFileSize/(1024*1024))
	}

	logger.Info("Read %s (%d bytes)", safePath, len(content))
	return string(content), nil
}

// GetTheme returns the stored theme, defaulting to auto.
func (a *App) GetTheme() string {
	var theme string
	ok, err := a.store.Get(themeKey, &theme)
	if err != nil {
		logger.WarnWithError(err, "Stored theme unreadable")
	}
	if !ok || err != nil || !validTheme(theme) {
		return ThemeAuto
	}
	return theme
}

// SetTheme persists and applies theme and tells the frontend about it.
func (a *App) SetTheme(theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if !validTheme(theme) {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}

	if err := a.store.Set(themeKey, theme); err != nil {
		return err
	}
	if err := a.store.Save(); err != nil {
		return err
	}

	a.applyTheme(theme)
	_ = a.emit(themeChangedEvent, theme)
	return nil
}

func validTheme(theme string) bool {
	switch theme {
	case ThemeLight, ThemeDark, ThemeAuto:
		return true
	}
	return false
}

func (a *App) applyTheme(theme string) {
	if a.ctx == nil {
		return
	}
	switch theme {
	case ThemeLight:
		runtime.WindowSetLightTheme(a.ctx)
	case ThemeDark:
		runtime.WindowSetDarkTheme(a.ctx)
	default:
		runtime.WindowSetSystemDefaultTheme(a.ctx)
	}
}

// OpenURL opens an http(s) link in the system browser.
func (a *App) OpenURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}
	if a.ctx == nil {
		return errNotStarted
	}
	runtime.BrowserOpenURL(a.ctx, u.String())
	return nil
}
