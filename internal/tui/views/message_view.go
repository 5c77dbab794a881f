package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
	"github.com/veigalabs/chatdesk/internal/scroll"
	"github.com/veigalabs/chatdesk/internal/status"
	"github.com/veigalabs/chatdesk/internal/store"
)

var _ scroll.Viewport = (*MessageView)(nil)

// MessageView displays the open conversation's thread. It reports scroll
// geometry so the scroll controller can decide when following the bottom
// is safe.
type MessageView struct {
	*tview.TextView
	title     string
	lineCount int
}

// NewMessageView creates the thread view.
func NewMessageView() *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &MessageView{TextView: tv}
}

// SetConversationName updates the title with the counterparty name.
func (mv *MessageView) SetConversationName(name string) {
	mv.title = name
	mv.SetTitle(fmt.Sprintf(" %s ", sanitizeForTerminal(name)))
}

// Update re-renders the thread. Messages arrive oldest first. The current
// scroll position is preserved; callers scroll explicitly via the
// controller.
func (mv *MessageView) Update(msgs []store.Message, senderName string) {
	row, _ := mv.GetScrollOffset()
	mv.Clear()
	mv.lineCount = 0

	for i := range msgs {
		m := &msgs[i]
		sender := senderName
		if m.Direction == store.Outbound {
			sender = "You"
		}

		ts := formatTimestamp(m.Timestamp)
		header := fmt.Sprintf("[::b]%s[-:-:-] [::d]%s[-:-:-]%s", sanitizeForTerminal(sender), ts, statusSuffix(m))
		body := sanitizeForTerminal(renderBody(m))

		_, _ = fmt.Fprintf(mv, "%s\n%s\n\n", header, body)
		mv.lineCount += 3 + strings.Count(body, "\n")
	}

	mv.ScrollTo(row, 0)
}

// ScrollOffset reports the top visible row, total content rows and the
// viewport height.
func (mv *MessageView) ScrollOffset() (row, contentRows, viewRows int) {
	row, _ = mv.GetScrollOffset()
	_, _, _, height := mv.GetInnerRect()
	return row, mv.lineCount, height
}

// ScrollToEnd jumps to the newest message. Shadows the promoted tview
// method, which returns the text view and would not match the viewport
// contract.
func (mv *MessageView) ScrollToEnd() {
	mv.TextView.ScrollToEnd()
}

// ScrollBy moves the viewport by delta rows, clamping at the top.
func (mv *MessageView) ScrollBy(delta int) {
	row, _ := mv.GetScrollOffset()
	row += delta
	if row < 0 {
		row = 0
	}
	mv.ScrollTo(row, 0)
}

// PageSize returns the viewport height for page scrolling.
func (mv *MessageView) PageSize() int {
	_, _, _, height := mv.GetInnerRect()
	return height
}

func renderBody(m *store.Message) string {
	switch m.Kind {
	case store.KindText:
		return m.Body
	case store.KindVoice:
		label := "[voice message]"
		if m.VoiceDuration > 0 {
			label = fmt.Sprintf("[voice message %ds]", m.VoiceDuration)
		}
		return withCaption(label, m.Body)
	case store.KindImage:
		return withCaption("[image]", m.Body)
	case store.KindVideo:
		return withCaption("[video]", m.Body)
	case store.KindDocument:
		return withCaption("[document]", m.Body)
	case store.KindSticker:
		return "[sticker]"
	case store.KindLocation:
		return withCaption("[location]", m.Body)
	case store.KindProductSummary:
		return withCaption("[product]", m.Body)
	default:
		return m.Body
	}
}

func withCaption(label, caption string) string {
	if caption == "" {
		return label
	}
	return label + " " + caption
}

func statusSuffix(m *store.Message) string {
	if m.Direction != store.Outbound {
		return ""
	}
	switch m.Status.State {
	case status.Sending:
		return " [::d]…[-:-:-]"
	case status.Sent:
		return " [::d]✓[-:-:-]"
	case status.Delivered:
		return " [::d]✓✓[-:-:-]"
	case status.Failed:
		if m.Status.Reason == status.ReasonSessionWindowExpired {
			return " [red]✗ session window expired[-]"
		}
		return " [red]✗ failed[-]"
	default:
		return ""
	}
}
