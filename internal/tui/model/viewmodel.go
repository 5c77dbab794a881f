package model

import (
	"sync"

	"github.com/veigalabs/chatdesk/internal/store"
)

// ViewModel tracks UI-facing state on top of the local store and coalesces
// refresh signals. Store mutations arrive on the bus; the app drains
// RefreshCh and redraws on the tview goroutine.
type ViewModel struct {
	mu sync.RWMutex

	store  *store.Memory
	active string
	staged []string
	Flash  Flash

	refreshCh chan struct{}
}

// NewViewModel creates a view model backed by the local store.
func NewViewModel(s *store.Memory) *ViewModel {
	return &ViewModel{
		store:     s,
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

// SignalRefresh requests a redraw. Signals coalesce while one is pending.
func (vm *ViewModel) SignalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// SetActive records the open conversation and drops staged attachments
// from the previous one.
func (vm *ViewModel) SetActive(conversationID string) {
	vm.mu.Lock()
	vm.active = conversationID
	vm.staged = nil
	vm.mu.Unlock()
	vm.SignalRefresh()
}

// Active returns the open conversation id, or empty on the list view.
func (vm *ViewModel) Active() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.active
}

// Conversations returns the store's conversation snapshot, newest first.
func (vm *ViewModel) Conversations() []store.Conversation {
	return vm.store.Conversations()
}

// ActiveConversation returns the open conversation, if any.
func (vm *ViewModel) ActiveConversation() (store.Conversation, bool) {
	vm.mu.RLock()
	id := vm.active
	vm.mu.RUnlock()
	if id == "" {
		return store.Conversation{}, false
	}
	return vm.store.Conversation(id)
}

// ActiveMessages returns the open conversation's messages, oldest first.
func (vm *ViewModel) ActiveMessages() []store.Message {
	vm.mu.RLock()
	id := vm.active
	vm.mu.RUnlock()
	if id == "" {
		return nil
	}
	return vm.store.Messages(id)
}

// StageAttachment adds a file path to the pending composer submission.
func (vm *ViewModel) StageAttachment(path string) {
	vm.mu.Lock()
	vm.staged = append(vm.staged, path)
	vm.mu.Unlock()
	vm.SignalRefresh()
}

// TakeStaged returns staged attachment paths and clears them.
func (vm *ViewModel) TakeStaged() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	staged := vm.staged
	vm.staged = nil
	return staged
}

// StagedCount returns how many attachments are pending.
func (vm *ViewModel) StagedCount() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.staged)
}
