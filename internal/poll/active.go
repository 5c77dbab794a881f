package poll

import (
	"context"
	"sync"
	"time"

	"github.com/veigalabs/chatdesk/internal/remote"
	intsync "github.com/veigalabs/chatdesk/internal/sync"
	"go.uber.org/zap"
)

// MessageSource is the backend surface the active-conversation poller needs.
type MessageSource interface {
	ListMessages(ctx context.Context, conversationID string) ([]remote.RemoteMessage, error)
}

// DefaultActiveInterval is the fine poll period for the open conversation.
const DefaultActiveInterval = 15 * time.Second

// ActivePoller reconciles the open conversation's message feed. Switching
// conversations cancels the old loop before the new one starts, so a late
// response can never land in the wrong conversation: each loop's context
// dies with its conversation and the result is discarded with it.
type ActivePoller struct {
	source     MessageSource
	reconciler *intsync.Reconciler
	logger     *zap.Logger
	interval   time.Duration
	cap        time.Duration

	// OnNewMessages fires after a background (non-initial) pass merged
	// previously-unseen messages, with the open conversation id and count.
	// The scroll controller hangs off this.
	OnNewMessages func(conversationID string, count int)

	mu      sync.Mutex
	parent  context.Context
	cancel  context.CancelFunc
	current string
}

// NewActivePoller creates a poller with the given period. cap bounds the
// failure backoff.
func NewActivePoller(source MessageSource, rec *intsync.Reconciler, logger *zap.Logger, interval, cap time.Duration) *ActivePoller {
	if interval <= 0 {
		interval = DefaultActiveInterval
	}
	if cap <= 0 {
		cap = 2 * time.Minute
	}
	return &ActivePoller{
		source:     source,
		reconciler: rec,
		logger:     logger,
		interval:   interval,
		cap:        cap,
	}
}

// Start binds the poller to a parent context. No conversation is polled
// until SetConversation is called.
func (p *ActivePoller) Start(ctx context.Context) {
	p.mu.Lock()
	p.parent = ctx
	p.mu.Unlock()
}

// Stop cancels any running loop.
func (p *ActivePoller) Stop() {
	p.SetConversation("")
}

// Current returns the conversation being polled, or empty.
func (p *ActivePoller) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// SetConversation switches the poll target. The previous conversation's
// loop is cancelled first; an empty id just stops polling.
func (p *ActivePoller) SetConversation(conversationID string) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.current = conversationID
	if conversationID == "" || p.parent == nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(p.parent)
	p.cancel = cancel
	p.mu.Unlock()

	go p.loop(ctx, conversationID)
}

func (p *ActivePoller) loop(ctx context.Context, conversationID string) {
	bo := newBackoff(p.interval, p.cap)
	timer := time.NewTimer(0)
	defer timer.Stop()

	initial := true
	for {
		select {
		case <-timer.C:
			delay := p.interval
			if err := p.tick(ctx, conversationID, initial); err != nil {
				if ctx.Err() != nil {
					return
				}
				delay = bo.NextBackOff()
				if p.logger != nil {
					p.logger.Warn("message poll failed",
						zap.Error(err),
						zap.String("conversation", conversationID),
						zap.Duration("retry_in", delay))
				}
			} else {
				bo.Reset()
				initial = false
			}
			timer.Reset(delay)
		case <-ctx.Done():
			return
		}
	}
}

func (p *ActivePoller) tick(ctx context.Context, conversationID string, initial bool) error {
	feed, err := p.source.ListMessages(ctx, conversationID)
	if err != nil {
		return err
	}
	// The fetch may have straddled a conversation switch; a cancelled
	// context means this result belongs to a conversation no longer open.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	outcome := p.reconciler.Reconcile(conversationID, feed)
	if !initial && outcome.NewMessages > 0 && p.OnNewMessages != nil {
		p.OnNewMessages(conversationID, outcome.NewMessages)
	}
	return nil
}
