package views

import (
	"strings"
	"testing"

	"github.com/veigalabs/chatdesk/internal/scroll"
	"github.com/veigalabs/chatdesk/internal/status"
	"github.com/veigalabs/chatdesk/internal/store"
)

func threadFixture() []store.Message {
	return []store.Message{
		{ClientID: "m1", Body: "hello", Kind: store.KindText, Direction: store.Inbound, Status: status.Received(), Timestamp: 100},
		{ClientID: "m2", Body: "", Kind: store.KindVoice, Direction: store.Inbound, Status: status.Received(), VoiceDuration: 12, Timestamp: 200},
		{ClientID: "m3", Body: "on my way", Kind: store.KindText, Direction: store.Outbound, Status: status.Status{State: status.Delivered}, Timestamp: 300},
	}
}

func TestMessageViewSatisfiesViewport(t *testing.T) {
	mv := NewMessageView()
	mv.SetRect(0, 0, 80, 12)
	mv.Update(threadFixture(), "Ana")

	// The controller consumes the view directly; reading geometry through
	// the interface must reflect the rendered content.
	var v scroll.Viewport = mv
	row, contentRows, viewRows := v.ScrollOffset()
	if row != 0 {
		t.Errorf("row = %d, want 0", row)
	}
	if contentRows != 9 {
		t.Errorf("contentRows = %d, want 9", contentRows)
	}
	if viewRows != 10 {
		t.Errorf("viewRows = %d, want 10", viewRows)
	}

	c := scroll.NewController(mv, scroll.DefaultThreshold)
	c.OnUserScroll()
	if !c.NearBottom() {
		t.Error("short thread should report near bottom")
	}
}

func TestMessageViewScrollByClampsAtTop(t *testing.T) {
	mv := NewMessageView()
	mv.SetRect(0, 0, 80, 12)
	mv.Update(threadFixture(), "Ana")

	mv.ScrollBy(-5)
	if row, _, _ := mv.ScrollOffset(); row != 0 {
		t.Errorf("row after clamped scroll = %d, want 0", row)
	}
	mv.ScrollBy(7)
	if row, _, _ := mv.ScrollOffset(); row != 7 {
		t.Errorf("row = %d, want 7", row)
	}
}

func TestMessageViewRendersKindsAndStatus(t *testing.T) {
	mv := NewMessageView()
	mv.SetRect(0, 0, 80, 12)
	mv.Update(threadFixture(), "Ana")

	text := mv.GetText(false)
	if !strings.Contains(text, "[voice message 12s]") {
		t.Errorf("voice placeholder missing from %q", text)
	}
	if !strings.Contains(text, "✓✓") {
		t.Errorf("delivered glyph missing from %q", text)
	}
	if !strings.Contains(text, "You") {
		t.Errorf("outbound sender label missing from %q", text)
	}
}
