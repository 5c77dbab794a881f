// Package poll owns the two reconciliation timers: a coarse conversation
// list poll and a fine-grained poll for the open conversation. Both are
// explicit, cancellable tasks; a failed tick is logged and retried with
// exponential backoff, and never clears data already held locally.
package poll

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/veigalabs/chatdesk/internal/contact"
	"github.com/veigalabs/chatdesk/internal/remote"
	"github.com/veigalabs/chatdesk/internal/store"
	"go.uber.org/zap"
)

// ConversationSource is the backend surface the conversation poller needs.
type ConversationSource interface {
	ListConversations(ctx context.Context) ([]remote.RemoteConversation, error)
}

// DefaultConversationInterval is the coarse conversation-list poll period.
const DefaultConversationInterval = 30 * time.Second

// ConversationPoller keeps the conversation list fresh.
type ConversationPoller struct {
	source   ConversationSource
	store    *store.Memory
	logger   *zap.Logger
	interval time.Duration
	cap      time.Duration
	cancel   context.CancelFunc

	// Active returns the id of the currently open conversation, or empty.
	// New activity on any other conversation bumps its unread count.
	Active func() string
}

// NewConversationPoller creates a poller with the given period. cap bounds
// the failure backoff.
func NewConversationPoller(source ConversationSource, s *store.Memory, logger *zap.Logger, interval, cap time.Duration) *ConversationPoller {
	if interval <= 0 {
		interval = DefaultConversationInterval
	}
	if cap <= 0 {
		cap = 5 * time.Minute
	}
	return &ConversationPoller{
		source:   source,
		store:    s,
		logger:   logger,
		interval: interval,
		cap:      cap,
	}
}

// Start begins polling. The first fetch happens immediately.
func (p *ConversationPoller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

// Stop cancels the poll loop.
func (p *ConversationPoller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *ConversationPoller) loop(ctx context.Context) {
	bo := newBackoff(p.interval, p.cap)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			delay := p.interval
			if err := p.tick(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				delay = bo.NextBackOff()
				if p.logger != nil {
					p.logger.Warn("conversation poll failed",
						zap.Error(err), zap.Duration("retry_in", delay))
				}
			} else {
				bo.Reset()
			}
			timer.Reset(delay)
		case <-ctx.Done():
			return
		}
	}
}

// tick fetches the conversation list and upserts every record. Existing
// local enrichments survive because the store's upsert treats missing
// fields as "no information".
func (p *ConversationPoller) tick(ctx context.Context) error {
	list, err := p.source.ListConversations(ctx)
	if err != nil {
		return err
	}
	// Stop may have raced the fetch; a late response must not touch the
	// store during shutdown.
	if err := ctx.Err(); err != nil {
		return err
	}

	active := ""
	if p.Active != nil {
		active = p.Active()
	}

	for _, rc := range list {
		id := contact.ConversationID(rc.Phone)
		if id == "" {
			continue
		}
		c := store.Conversation{
			ID:                 id,
			Phone:              contact.NormalizePhone(rc.Phone),
			DisplayName:        rc.DisplayName,
			ProfileName:        rc.ProfileName,
			LastMessagePreview: rc.LastMessage,
			LastMessageAt:      rc.LastMessageAt,
		}
		if prev, ok := p.store.Conversation(id); ok && id != active && rc.LastMessageAt > prev.LastMessageAt {
			// The feed carries no unread info; infer it from activity.
			c.UnreadCount = prev.UnreadCount + 1
		}
		p.store.UpsertConversation(c)
	}
	return nil
}

func newBackoff(initial, cap time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initial
	bo.MaxInterval = cap
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}
