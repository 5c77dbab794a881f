package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Composer is the text input for sending messages. Staged attachments are
// reflected in the label; submission hands off text only, the app pairs it
// with whatever is staged.
type Composer struct {
	*tview.InputField
	onSubmit func(text string)
	onCancel func()
}

// NewComposer creates a new message composer.
func NewComposer() *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)

	c := &Composer{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			if c.onSubmit != nil {
				c.onSubmit(c.GetText())
			}
		case tcell.KeyEscape:
			if c.onCancel != nil {
				c.onCancel()
			}
		}
	})

	return c
}

// SetOnCancel sets the callback when the composer loses focus via Escape.
func (c *Composer) SetOnCancel(fn func()) {
	c.onCancel = fn
}

// SetOnSubmit sets the callback when the composer is submitted. An empty
// text submission is still delivered; the pipeline decides whether it is a
// no-op (no attachments staged) or a file-only send.
func (c *Composer) SetOnSubmit(fn func(text string)) {
	c.onSubmit = fn
}

// SetAttachmentCount updates the label with the staged attachment count.
func (c *Composer) SetAttachmentCount(n int) {
	if n == 0 {
		c.SetLabel(" > ")
		return
	}
	c.SetLabel(fmt.Sprintf(" [%d file(s)] > ", n))
}

// Reset clears the input text and attachment indicator.
func (c *Composer) Reset() {
	c.SetText("")
	c.SetAttachmentCount(0)
}
