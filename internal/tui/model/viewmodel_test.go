package model

import (
	"testing"
	"time"

	"github.com/veigalabs/chatdesk/internal/bus"
	"github.com/veigalabs/chatdesk/internal/store"
)

func TestRefreshSignalsCoalesce(t *testing.T) {
	vm := NewViewModel(store.NewMemory(bus.New()))

	vm.SignalRefresh()
	vm.SignalRefresh()
	vm.SignalRefresh()

	select {
	case <-vm.RefreshCh():
	case <-time.After(time.Second):
		t.Fatal("expected a pending refresh signal")
	}
	select {
	case <-vm.RefreshCh():
		t.Error("signals should coalesce to one")
	default:
	}
}

func TestSetActiveDropsStagedAttachments(t *testing.T) {
	mem := store.NewMemory(bus.New())
	mem.UpsertConversation(store.Conversation{ID: "+111", Phone: "+111"})
	vm := NewViewModel(mem)

	vm.SetActive("+111")
	vm.StageAttachment("/tmp/a.png")
	vm.StageAttachment("/tmp/b.pdf")
	if vm.StagedCount() != 2 {
		t.Fatalf("StagedCount() = %d, want 2", vm.StagedCount())
	}

	vm.SetActive("+222")
	if vm.StagedCount() != 0 {
		t.Errorf("StagedCount() after switch = %d, want 0", vm.StagedCount())
	}
}

func TestTakeStagedClears(t *testing.T) {
	vm := NewViewModel(store.NewMemory(bus.New()))
	vm.StageAttachment("/tmp/a.png")

	staged := vm.TakeStaged()
	if len(staged) != 1 || staged[0] != "/tmp/a.png" {
		t.Fatalf("TakeStaged() = %v", staged)
	}
	if vm.StagedCount() != 0 {
		t.Errorf("StagedCount() = %d, want 0", vm.StagedCount())
	}
}

func TestActiveConversationSnapshot(t *testing.T) {
	mem := store.NewMemory(bus.New())
	mem.UpsertConversation(store.Conversation{ID: "+111", Phone: "+111", DisplayName: "Ana"})
	vm := NewViewModel(mem)

	if _, ok := vm.ActiveConversation(); ok {
		t.Error("no active conversation expected")
	}
	if msgs := vm.ActiveMessages(); msgs != nil {
		t.Errorf("ActiveMessages() = %v, want nil", msgs)
	}

	vm.SetActive("+111")
	conv, ok := vm.ActiveConversation()
	if !ok || conv.DisplayName != "Ana" {
		t.Errorf("ActiveConversation() = %+v, %v", conv, ok)
	}
}
