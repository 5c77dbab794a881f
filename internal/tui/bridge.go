package tui

import "sync"

// Bridge is the send pipeline's view hook. The pipeline is constructed
// before the application shell, so the bridge forwards calls to the app
// once it binds. Calls before binding are dropped; nothing can be sent
// before the app runs.
type Bridge struct {
	mu  sync.RWMutex
	app *App
}

// NewBridge creates an unbound bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

func (b *Bridge) bind(a *App) {
	b.mu.Lock()
	b.app = a
	b.mu.Unlock()
}

func (b *Bridge) target() *App {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.app
}

// ClearComposer implements send.UI.
func (b *Bridge) ClearComposer() {
	if a := b.target(); a != nil {
		a.ClearComposer()
	}
}

// ForceScrollToBottom implements send.UI.
func (b *Bridge) ForceScrollToBottom() {
	if a := b.target(); a != nil {
		a.ForceScrollToBottom()
	}
}

// Flash implements send.UI.
func (b *Bridge) Flash(msg string) {
	if a := b.target(); a != nil {
		a.Flash(msg)
	}
}
