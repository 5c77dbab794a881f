package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/veigalabs/chatdesk/internal/contact"
	"github.com/veigalabs/chatdesk/internal/store"
	"github.com/veigalabs/chatdesk/internal/tui/ui"
)

// ConversationList is the main conversation table, newest activity first.
type ConversationList struct {
	*tview.Table
	theme         *ui.Theme
	conversations []store.Conversation
	selectedFn    func() (int, int)
}

// NewConversationList creates the conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetBorder(true).SetTitle(" Conversations ")

	cl := &ConversationList{Table: table, theme: theme}
	cl.selectedFn = table.GetSelection
	return cl
}

// Update refreshes the table from a store snapshot.
func (cl *ConversationList) Update(conversations []store.Conversation) {
	cl.conversations = conversations
	cl.Clear()

	cl.SetCell(0, 0, tview.NewTableCell(" Name").SetSelectable(false).SetTextColor(cl.theme.TableHeaderFg))
	cl.SetCell(0, 1, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(cl.theme.TableHeaderFg))
	cl.SetCell(0, 2, tview.NewTableCell(" Time").SetSelectable(false).SetTextColor(cl.theme.TableHeaderFg))

	for i, c := range conversations {
		row := i + 1
		name := contact.ResolveDisplayName(c.OverrideName, c.DisplayName, c.ProfileName, c.Phone)
		nameCell := tview.NewTableCell(" " + sanitizeForTerminal(name)).SetMaxWidth(30).SetExpansion(1)
		if c.UnreadCount > 0 {
			nameCell.SetText(fmt.Sprintf(" * %s (%d)", sanitizeForTerminal(name), c.UnreadCount))
			nameCell.SetTextColor(cl.theme.UnreadColor)
		}

		cl.SetCell(row, 0, nameCell)
		cl.SetCell(row, 1, tview.NewTableCell(" "+sanitizeForTerminal(c.LastMessagePreview)).SetMaxWidth(40).SetExpansion(2))
		cl.SetCell(row, 2, tview.NewTableCell(" "+formatTimestamp(c.LastMessageAt)).SetMaxWidth(12))
	}
}

// Selected returns the id of the currently selected conversation.
func (cl *ConversationList) Selected() string {
	row, _ := cl.selectedFn()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(cl.conversations) {
		return cl.conversations[idx].ID
	}
	return ""
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
