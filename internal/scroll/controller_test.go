package scroll

import "testing"

// fakeViewport records scroll calls and serves canned geometry.
type fakeViewport struct {
	row, contentRows, viewRows int
	scrollToEndCalls           int
}

func (f *fakeViewport) ScrollOffset() (int, int, int) {
	return f.row, f.contentRows, f.viewRows
}

func (f *fakeViewport) ScrollToEnd() {
	f.scrollToEndCalls++
	f.row = f.contentRows - f.viewRows
}

func TestUserScrollAwayDisablesAutoScroll(t *testing.T) {
	v := &fakeViewport{row: 0, contentRows: 100, viewRows: 20}
	c := NewController(v, 4)

	c.OnUserScroll()
	if c.NearBottom() || c.AutoScrollEnabled() {
		t.Error("scrolled to top should clear both flags")
	}
}

func TestUserScrollBackReArms(t *testing.T) {
	v := &fakeViewport{row: 0, contentRows: 100, viewRows: 20}
	c := NewController(v, 4)
	c.OnUserScroll()

	v.row = 78 // within 4 rows of the end
	c.OnUserScroll()
	if !c.NearBottom() || !c.AutoScrollEnabled() {
		t.Error("scrolling near the bottom should re-arm both flags")
	}
}

func TestPollDoesNotYankReader(t *testing.T) {
	v := &fakeViewport{row: 0, contentRows: 100, viewRows: 20}
	c := NewController(v, 4)
	c.OnUserScroll() // user is reading history

	c.OnNewMessages(3)

	if v.scrollToEndCalls != 0 {
		t.Error("background poll must not scroll a reader away from history")
	}
	if c.AutoScrollEnabled() {
		t.Error("autoScroll must stay disabled")
	}
}

func TestPollScrollsWhenCaughtUp(t *testing.T) {
	v := &fakeViewport{row: 80, contentRows: 100, viewRows: 20}
	c := NewController(v, 4)
	c.OnUserScroll()

	v.contentRows = 105
	c.OnNewMessages(2)

	if v.scrollToEndCalls != 1 {
		t.Errorf("ScrollToEnd calls = %d, want 1", v.scrollToEndCalls)
	}
	if !c.AutoScrollEnabled() {
		t.Error("autoScroll should be reconfirmed")
	}
}

func TestPollWithNoNewMessagesIsNoOp(t *testing.T) {
	v := &fakeViewport{row: 80, contentRows: 100, viewRows: 20}
	c := NewController(v, 4)

	c.OnNewMessages(0)
	if v.scrollToEndCalls != 0 {
		t.Error("no new messages should never scroll")
	}
}

func TestLocalSendOverridesScrollAway(t *testing.T) {
	v := &fakeViewport{row: 0, contentRows: 100, viewRows: 20}
	c := NewController(v, 4)
	c.OnUserScroll() // reading history

	c.OnLocalSend()

	if v.scrollToEndCalls != 1 {
		t.Error("local send must force a scroll")
	}
	if !c.NearBottom() || !c.AutoScrollEnabled() {
		t.Error("local send must re-arm both flags")
	}
}
