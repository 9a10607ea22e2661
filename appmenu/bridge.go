package appmenu

// FileOpenEvent is emitted to the frontend when File > Open is activated.
const FileOpenEvent = "file-open"

// Emitter sends a named event to every frontend listener.
type Emitter interface {
	Emit(event string, data ...interface{}) error
}

// Bridge forwards menu activations to the frontend as events.
type Bridge struct {
	emitter Emitter
}

// NewBridge creates a bridge emitting through e.
func NewBridge(e Emitter) *Bridge {
	return &Bridge{emitter: e}
}

// HandleMenuEvent emits FileOpenEvent, without payload, for the Open item
// and ignores every other id. Emission errors are dropped.
func (b *Bridge) HandleMenuEvent(id string) {
	if id != OpenID {
		return
	}
	_ = b.emitter.Emit(FileOpenEvent)
}
