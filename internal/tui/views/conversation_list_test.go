package views

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/veigalabs/chatdesk/internal/store"
	"github.com/veigalabs/chatdesk/internal/tui/ui"
)

func TestConversationListRendersThemeAndUnread(t *testing.T) {
	theme := ui.DefaultTheme()
	theme.TableHeaderFg = tcell.ColorGreen
	cl := NewConversationList(theme)
	cl.Update([]store.Conversation{
		{ID: "+111", Phone: "+111", DisplayName: "Ana", LastMessagePreview: "hi", UnreadCount: 2},
		{ID: "+222", Phone: "+222", ProfileName: "Ben", LastMessagePreview: "yo"},
	})

	if got := cl.GetCell(0, 0).Color; got != theme.TableHeaderFg {
		t.Errorf("header color = %v, want %v", got, theme.TableHeaderFg)
	}

	unread := cl.GetCell(1, 0)
	if !strings.Contains(unread.Text, "Ana") || !strings.Contains(unread.Text, "(2)") {
		t.Errorf("unread cell = %q, want name with count", unread.Text)
	}
	if unread.Color != theme.UnreadColor {
		t.Errorf("unread color = %v, want %v", unread.Color, theme.UnreadColor)
	}

	read := cl.GetCell(2, 0)
	if !strings.Contains(read.Text, "Ben") {
		t.Errorf("read cell = %q, want profile name fallback", read.Text)
	}
	if read.Color == theme.UnreadColor {
		t.Error("read conversation should not use the unread color")
	}
}

func TestConversationListSelected(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	cl.Update([]store.Conversation{
		{ID: "+111", Phone: "+111"},
		{ID: "+222", Phone: "+222"},
	})

	cl.selectedFn = func() (int, int) { return 2, 0 }
	if got := cl.Selected(); got != "+222" {
		t.Errorf("Selected() = %q, want +222", got)
	}

	// Header row maps to no conversation.
	cl.selectedFn = func() (int, int) { return 0, 0 }
	if got := cl.Selected(); got != "" {
		t.Errorf("Selected() on header = %q, want empty", got)
	}
}
