// Package updater checks for, downloads and installs new releases of the
// application, then restarts it.
package updater

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"logviewer/logger"
)

// Release describes an available update as reported by the update service.
type Release struct {
	Version   string
	Notes     string
	PubDate   string
	URL       string
	Signature string
}

// ChunkFunc is called for every downloaded chunk. total is nil when the
// server did not advertise a content length.
type ChunkFunc func(chunkLen int, total *int64)

// Service is the external update provider.
type Service interface {
	// Check returns nil when the running version is current.
	Check(ctx context.Context) (*Release, error)
	// Download streams the release payload, calling onChunk for every chunk
	// and onFinish once after the last one.
	Download(ctx context.Context, rel *Release, onChunk ChunkFunc, onFinish func()) ([]byte, error)
	// Install applies a downloaded payload.
	Install(ctx context.Context, rel *Release, payload []byte) error
}

// Restarter relaunches the application after a successful install.
type Restarter interface {
	Restart() error
}

// State is the position of a flow in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateChecking
	StateNoUpdate
	StateDownloading
	StateInstalling
	StateRestarting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateNoUpdate:
		return "no-update"
	case StateDownloading:
		return "downloading"
	case StateInstalling:
		return "installing"
	case StateRestarting:
		return "restarting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrAlreadyRan is returned when a flow is asked to run a second time.
var ErrAlreadyRan = errors.New("update flow already ran")

// Flow runs a single check, download, install and restart cycle.
type Flow struct {
	service   Service
	restarter Restarter

	// Progress, if set, observes the running downloaded total after each chunk.
	Progress func(downloaded int64, total *int64)
	// Finished, if set, is called once the download completes.
	Finished func()

	once  sync.Once
	mu    sync.Mutex
	state State
}

// NewFlow creates a flow over service and restarter.
func NewFlow(service Service, restarter Restarter) *Flow {
	return &Flow{service: service, restarter: restarter}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
	logger.Debug("update flow: %s", s)
}

// Run executes the cycle. Errors abort it immediately and are not retried.
// A flow runs at most once; later calls return ErrAlreadyRan.
func (f *Flow) Run(ctx context.Context) error {
	err := ErrAlreadyRan
	f.once.Do(func() {
		err = f.run(ctx)
		if err != nil {
			f.setState(StateFailed)
		}
	})
	return err
}

func (f *Flow) run(ctx context.Context) error {
	f.setState(StateChecking)
	rel, err := f.service.Check(ctx)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if rel == nil {
		f.setState(StateNoUpdate)
		logger.Info("No update available")
		return nil
	}

	logger.Info("Update %s available, downloading", rel.Version)
	f.setState(StateDownloading)

	var downloaded int64
	onChunk := func(chunkLen int, total *int64) {
		downloaded += int64(chunkLen)
		if total != nil {
			logger.Debug("downloaded %s of %s", humanize.IBytes(uint64(downloaded)), humanize.IBytes(uint64(*total)))
		} else {
			logger.Debug("downloaded %s", humanize.IBytes(uint64(downloaded)))
		}
		if f.Progress != nil {
			f.Progress(downloaded, total)
		}
	}
	onFinish := func() {
		logger.Info("Download finished (%s)", humanize.IBytes(uint64(downloaded)))
		if f.Finished != nil {
			f.Finished()
		}
	}

	payload, err := f.service.Download(ctx, rel, onChunk, onFinish)
	if err != nil {
		return fmt.Errorf("update download failed: %w", err)
	}

	f.setState(StateInstalling)
	if err := f.service.Install(ctx, rel, payload); err != nil {
		return fmt.Errorf("update install failed: %w", err)
	}
	logger.Info("Update %s installed", rel.Version)

	f.setState(StateRestarting)
	if err := f.restarter.Restart(); err != nil {
		return fmt.Errorf("restart failed: %w", err)
	}
	return nil
}
