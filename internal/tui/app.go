package tui

import (
	"context"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/veigalabs/chatdesk/internal/bus"
	"github.com/veigalabs/chatdesk/internal/contact"
	"github.com/veigalabs/chatdesk/internal/poll"
	"github.com/veigalabs/chatdesk/internal/remote"
	"github.com/veigalabs/chatdesk/internal/scroll"
	"github.com/veigalabs/chatdesk/internal/send"
	"github.com/veigalabs/chatdesk/internal/store"
	"github.com/veigalabs/chatdesk/internal/tui/keys"
	"github.com/veigalabs/chatdesk/internal/tui/model"
	"github.com/veigalabs/chatdesk/internal/tui/ui"
	"github.com/veigalabs/chatdesk/internal/tui/views"
	"go.uber.org/zap"
)

const (
	pageConversations = "conversations"
	pageChat          = "chat"
)

// App is the console application shell. It owns the tview event loop and
// translates engine state into screen updates; all mutation goes through
// the store, the send pipeline and the pollers.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	vm        *model.ViewModel
	store     *store.Memory
	db        *store.DB
	pipeline  *send.Pipeline
	active    *poll.ActivePoller
	bus       *bus.Bus
	logger    *zap.Logger
	registry  *keys.Registry
	scroll    *scroll.Controller
	theme     *ui.Theme
	convList  *views.ConversationList
	msgView   *views.MessageView
	composer  *views.Composer
	statusBar *views.StatusBar
	prompt    *ui.Prompt
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the console application.
func NewApp(profileName string, mem *store.Memory, db *store.DB, pipeline *send.Pipeline, active *poll.ActivePoller, bridge *Bridge, b *bus.Bus, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		vm:        model.NewViewModel(mem),
		store:     mem,
		db:        db,
		pipeline:  pipeline,
		active:    active,
		bus:       b,
		logger:    logger,
		registry:  keys.NewRegistry(),
		theme:     theme,
		convList:  views.NewConversationList(theme),
		msgView:   views.NewMessageView(),
		composer:  views.NewComposer(),
		statusBar: views.NewStatusBar(),
		prompt:    ui.NewPrompt(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.scroll = scroll.NewController(a.msgView, scroll.DefaultThreshold)
	bridge.bind(a)

	a.statusBar.SetProfile(profileName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	active.OnNewMessages = func(conversationID string, n int) {
		a.app.QueueUpdateDraw(func() {
			if a.vm.Active() != conversationID {
				return
			}
			a.renderThread()
			a.scroll.OnNewMessages(n)
		})
	}

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddView(pageConversations, &keys.Action{
		Rune: 'n', Key: tcell.KeyRune,
		Description: "n:new chat", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptNewChat) },
	})
	a.registry.AddView(pageChat, &keys.Action{
		Rune: 'i', Key: tcell.KeyRune,
		Description: "i:compose", Visible: true,
		Handler: func() { a.app.SetFocus(a.composer.InputField) },
	})
	a.registry.AddView(pageChat, &keys.Action{
		Rune: 'a', Key: tcell.KeyRune,
		Description: "a:attach", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptAttach) },
	})
	a.registry.AddView(pageChat, &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:rename", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptRename) },
	})
}

func (a *App) setupCallbacks() {
	a.convList.SetSelectedFunc(func(row, col int) {
		if id := a.convList.Selected(); id != "" {
			a.openConversation(id)
		}
	})

	a.composer.SetOnSubmit(func(text string) {
		a.submit(text)
	})
	a.composer.SetOnCancel(func() {
		a.app.SetFocus(a.msgView)
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptNewChat:
			a.startConversation(text)
		case ui.PromptRename:
			a.renameContact(text)
		case ui.PromptAttach:
			a.stageAttachment(text)
		}
	})
	a.prompt.SetOnCancel(func() {
		a.hidePrompt()
	})
}

func (a *App) setupLayout() {
	chatFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgView, 0, 1, false).
		AddItem(a.composer, 1, 0, false)

	a.pages.AddPage(pageConversations, a.convList, true, true)
	a.pages.AddPage(pageChat, chatFlex, true, false)

	promptRow := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(a.prompt, 60, 0, true).
		AddItem(nil, 0, 1, false)
	promptLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(promptRow, 3, 0, true).
		AddItem(nil, 0, 1, false)
	a.pages.AddPage("prompt", promptLayout, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		// Let text input widgets handle all keys normally, including
		// Escape, which they use to yield focus.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}

		if event.Key() == tcell.KeyEscape && currentPage == pageChat {
			a.closeConversation()
			return nil
		}

		if currentPage == pageChat && a.handleScrollKey(event) {
			return nil
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}

		return event
	})
}

// handleScrollKey moves the thread viewport and reports the movement to the
// scroll controller, which decides whether following the bottom stays on.
func (a *App) handleScrollKey(event *tcell.EventKey) bool {
	switch {
	case event.Key() == tcell.KeyUp || (event.Key() == tcell.KeyRune && event.Rune() == 'k'):
		a.msgView.ScrollBy(-1)
	case event.Key() == tcell.KeyDown || (event.Key() == tcell.KeyRune && event.Rune() == 'j'):
		a.msgView.ScrollBy(1)
	case event.Key() == tcell.KeyPgUp:
		a.msgView.ScrollBy(-a.msgView.PageSize())
	case event.Key() == tcell.KeyPgDn:
		a.msgView.ScrollBy(a.msgView.PageSize())
	case event.Key() == tcell.KeyHome:
		a.msgView.ScrollTo(0, 0)
	case event.Key() == tcell.KeyEnd || (event.Key() == tcell.KeyRune && event.Rune() == 'G'):
		a.msgView.ScrollToEnd()
	default:
		return false
	}
	a.scroll.OnUserScroll()
	return true
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.pages.ShowPage("prompt")
	a.app.SetFocus(a.prompt.InputField)
}

func (a *App) hidePrompt() {
	a.pages.HidePage("prompt")
	currentPage, _ := a.pages.GetFrontPage()
	if currentPage == pageChat {
		a.app.SetFocus(a.msgView)
	} else {
		a.app.SetFocus(a.convList)
	}
}

// openConversation clears the unread marker, pins the active poller to the
// conversation and switches to the thread view at the bottom.
func (a *App) openConversation(id string) {
	a.store.ClearUnread(id)
	a.vm.SetActive(id)
	a.active.SetConversation(id)

	a.msgView.SetConversationName(a.activeName())
	a.renderThread()
	a.scroll.OnLocalSend()

	a.pages.SwitchToPage(pageChat)
	a.app.SetFocus(a.msgView)
	a.statusBar.SetHints(a.registry.Hints(pageChat))
}

func (a *App) closeConversation() {
	a.active.Stop()
	a.vm.SetActive("")
	a.composer.Reset()
	a.pages.SwitchToPage(pageConversations)
	a.app.SetFocus(a.convList)
	a.convList.Update(a.vm.Conversations())
	a.statusBar.SetHints(a.registry.Hints(pageConversations))
}

// startConversation normalizes the entered phone number and opens a thread
// for it, creating the conversation locally if the backend has never seen
// it.
func (a *App) startConversation(raw string) {
	phone := contact.NormalizePhone(raw)
	if phone == "" {
		a.Flash("invalid phone number")
		return
	}
	id := contact.ConversationID(phone)
	a.store.UpsertConversation(store.Conversation{
		ID:               id,
		Phone:            phone,
		LocallyInitiated: true,
	})
	a.openConversation(id)
}

func (a *App) renameContact(name string) {
	id := a.vm.Active()
	if id == "" {
		return
	}
	a.store.SetOverrideName(id, name)
	if err := a.db.SaveOverride(id, name); err != nil {
		a.logger.Warn("persist contact override", zap.Error(err))
	}
	a.msgView.SetConversationName(a.activeName())
	a.renderThread()
}

func (a *App) stageAttachment(path string) {
	if _, err := os.Stat(path); err != nil {
		a.Flash("cannot attach: " + err.Error())
		return
	}
	a.vm.StageAttachment(path)
	a.composer.SetAttachmentCount(a.vm.StagedCount())
	a.app.SetFocus(a.composer.InputField)
}

// submit hands the composer content and staged attachments to the send
// pipeline on a background goroutine so the event loop never blocks on the
// network.
func (a *App) submit(text string) {
	conv, ok := a.vm.ActiveConversation()
	if !ok {
		return
	}
	paths := a.vm.TakeStaged()
	go func() {
		files := a.loadAttachments(paths)
		a.pipeline.Send(a.ctx, conv, text, files)
	}()
}

func (a *App) loadAttachments(paths []string) []remote.Attachment {
	var files []remote.Attachment
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			a.logger.Warn("read attachment", zap.String("path", path), zap.Error(err))
			a.Flash("cannot read " + filepath.Base(path))
			continue
		}
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		files = append(files, remote.Attachment{
			Filename: filepath.Base(path),
			MIMEType: mimeType,
			Data:     data,
		})
	}
	return files
}

func (a *App) activeName() string {
	conv, ok := a.vm.ActiveConversation()
	if !ok {
		return ""
	}
	return contact.ResolveDisplayName(conv.OverrideName, conv.DisplayName, conv.ProfileName, conv.Phone)
}

func (a *App) renderThread() {
	a.msgView.Update(a.vm.ActiveMessages(), a.activeName())
}

// ClearComposer implements send.UI. Called from the pipeline goroutine
// before any network traffic.
func (a *App) ClearComposer() {
	a.app.QueueUpdateDraw(func() {
		a.composer.Reset()
	})
}

// ForceScrollToBottom implements send.UI. A local send always lands the
// view at the newest message.
func (a *App) ForceScrollToBottom() {
	a.app.QueueUpdateDraw(func() {
		a.renderThread()
		a.scroll.OnLocalSend()
	})
}

// Flash implements send.UI.
func (a *App) Flash(msg string) {
	a.vm.Flash.Set(msg, 5*time.Second)
	a.vm.SignalRefresh()
}

// Run starts the application and blocks until it exits.
func (a *App) Run() error {
	events, unsub := a.bus.Subscribe("", 64)
	go func() {
		defer unsub()
		for {
			select {
			case <-events:
				a.vm.SignalRefresh()
			case <-a.ctx.Done():
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-a.vm.RefreshCh():
				a.app.QueueUpdateDraw(a.refresh)
			case <-ticker.C:
				a.app.QueueUpdateDraw(a.refresh)
			case <-a.ctx.Done():
				return
			}
		}
	}()

	a.convList.Update(a.vm.Conversations())
	a.statusBar.SetHints(a.registry.Hints(pageConversations))

	return a.app.Run()
}

func (a *App) refresh() {
	a.statusBar.SetFlash(a.vm.Flash.Get())
	currentPage, _ := a.pages.GetFrontPage()
	switch currentPage {
	case pageConversations:
		a.convList.Update(a.vm.Conversations())
	case pageChat:
		a.renderThread()
	}
}

// Stop gracefully shuts down the application.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
