// Package send turns composer submissions into outbound messages and drives
// each one to a terminal delivery status. Messages are appended to the store
// optimistically before any network call; acknowledgements update them by id
// so a racing poll can never corrupt a status the pipeline already advanced.
package send

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/veigalabs/chatdesk/internal/bus"
	"github.com/veigalabs/chatdesk/internal/cart"
	"github.com/veigalabs/chatdesk/internal/remote"
	"github.com/veigalabs/chatdesk/internal/status"
	"github.com/veigalabs/chatdesk/internal/store"
	"go.uber.org/zap"
)

// Transport is the backend surface the pipeline needs for delivery.
type Transport interface {
	SendText(ctx context.Context, recipient, text string) (remote.SendResult, error)
	SendMedia(ctx context.Context, recipient string, file remote.Attachment, caption string) (remote.SendResult, error)
}

// Catalog resolves products for the local add-to-cart command.
type Catalog interface {
	FindProduct(ctx context.Context, name string) (*remote.Product, error)
}

// UI is the pipeline's hook back into the view layer. The composer is
// cleared and the view force-scrolled before any network call so the UI
// never shows a stuck input box. Implementations must be safe to call from
// the pipeline's goroutine.
type UI interface {
	ClearComposer()
	ForceScrollToBottom()
	Flash(msg string)
}

// DefaultDeliveredDelay is how long after a successful ack a message is
// promoted from sent to delivered.
const DefaultDeliveredDelay = 2 * time.Second

// Pipeline submits composer content for one conversation at a time.
type Pipeline struct {
	store     *store.Memory
	transport Transport
	catalog   Catalog
	cart      *cart.Cart
	ui        UI
	bus       *bus.Bus
	logger    *zap.Logger

	// DeliveredDelay is overridable in tests.
	DeliveredDelay time.Duration
}

// NewPipeline creates a send pipeline.
func NewPipeline(s *store.Memory, transport Transport, catalog Catalog, ct *cart.Cart, ui UI, b *bus.Bus, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:          s,
		transport:      transport,
		catalog:        catalog,
		cart:           ct,
		ui:             ui,
		bus:            b,
		logger:         logger,
		DeliveredDelay: DefaultDeliveredDelay,
	}
}

// Send converts one composer submission into outbound messages. Empty
// submissions are a no-op. A leading add-to-cart command is handled locally
// and nothing is sent. Files go out sequentially in input order; the text
// rides as a caption on the last file, and when several files carry a text
// body one trailing text message follows them.
func (p *Pipeline) Send(ctx context.Context, conv store.Conversation, text string, files []remote.Attachment) {
	text = strings.TrimSpace(text)
	if text == "" && len(files) == 0 {
		return
	}

	if len(files) == 0 {
		if name, ok := cart.ParseAddCommand(text); ok {
			p.addToCart(ctx, name)
			return
		}
	}

	// Composer resets and the forced scroll happen before any network
	// call, independent of the async result.
	p.ui.ClearComposer()
	p.ui.ForceScrollToBottom()

	if len(files) == 0 {
		p.sendText(ctx, conv, text)
		return
	}

	// The composer text rides only the last file's request as its caption;
	// with several files it additionally goes out as one trailing text
	// message after all files complete.
	for i, file := range files {
		caption := ""
		if i == len(files)-1 {
			caption = text
		}
		p.sendFile(ctx, conv, file, caption)
	}

	if len(files) > 1 && text != "" {
		p.sendText(ctx, conv, text)
	}
}

func (p *Pipeline) sendText(ctx context.Context, conv store.Conversation, text string) {
	msg := store.Message{
		ClientID:       uuid.New().String(),
		ConversationID: conv.ID,
		Body:           text,
		Kind:           store.KindText,
		Direction:      store.Outbound,
		Status:         status.NewSending(),
		Timestamp:      time.Now().UnixMilli(),
	}
	p.store.AppendMessage(msg)
	p.touchConversation(conv, text, msg.Timestamp)

	result, err := p.transport.SendText(ctx, conv.Phone, text)
	p.resolve(conv.ID, msg.ClientID, result, err)
}

func (p *Pipeline) sendFile(ctx context.Context, conv store.Conversation, file remote.Attachment, caption string) {
	msg := store.Message{
		ClientID:       uuid.New().String(),
		ConversationID: conv.ID,
		Body:           caption,
		Kind:           kindForMIME(file.MIMEType),
		Direction:      store.Outbound,
		Status:         status.NewSending(),
		MediaMIME:      file.MIMEType,
		Timestamp:      time.Now().UnixMilli(),
	}
	p.store.AppendMessage(msg)
	p.touchConversation(conv, previewFor(msg.Kind, caption), msg.Timestamp)

	result, err := p.transport.SendMedia(ctx, conv.Phone, file, caption)
	p.resolve(conv.ID, msg.ClientID, result, err)
}

// resolve applies a send acknowledgement to the optimistic message.
func (p *Pipeline) resolve(convID, clientID string, result remote.SendResult, err error) {
	if err != nil {
		reason := Classify(err)
		if uerr := p.store.UpdateMessageStatus(convID, clientID, status.Failed, reason); uerr != nil && p.logger != nil {
			p.logger.Warn("failed to record send failure", zap.Error(uerr), zap.String("client_msg_id", clientID))
		}
		if p.logger != nil {
			p.logger.Error("send failed", zap.Error(err),
				zap.String("conversation", convID),
				zap.String("client_msg_id", clientID),
				zap.String("classification", string(reason)))
		}
		p.bus.Emit(bus.KindSendFailed, bus.MessageRef{ConversationID: convID, MessageID: clientID})
		if reason == status.ReasonSessionWindowExpired {
			p.ui.Flash("Session window closed. Use a template to re-engage.")
		} else {
			p.ui.Flash("Message failed to send.")
		}
		return
	}

	if result.MessageID != "" {
		p.store.SetRemoteID(convID, clientID, result.MessageID)
	}
	if uerr := p.store.UpdateMessageStatus(convID, clientID, status.Sent, status.ReasonNone); uerr != nil && p.logger != nil {
		p.logger.Warn("failed to mark sent", zap.Error(uerr), zap.String("client_msg_id", clientID))
	}

	key := clientID
	if result.MessageID != "" {
		key = result.MessageID
	}
	time.AfterFunc(p.DeliveredDelay, func() {
		// The message may have failed or been reconciled meanwhile; an
		// invalid transition here is expected and dropped.
		_ = p.store.UpdateMessageStatus(convID, key, status.Delivered, status.ReasonNone)
	})
}

// addToCart handles the local command grammar: nothing is sent.
func (p *Pipeline) addToCart(ctx context.Context, name string) {
	product, err := p.catalog.FindProduct(ctx, name)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("catalog lookup failed", zap.Error(err), zap.String("name", name))
		}
		p.ui.Flash("Could not reach the catalog.")
		return
	}
	if product == nil {
		p.ui.Flash(fmt.Sprintf("No product named %q.", name))
		return
	}
	if err := p.cart.Add(product.ID, product.Name, product.Price, 1); err != nil {
		if p.logger != nil {
			p.logger.Error("cart update failed", zap.Error(err), zap.String("product", product.ID))
		}
		p.ui.Flash("Could not update the cart.")
		return
	}
	p.ui.ClearComposer()
	p.ui.Flash(fmt.Sprintf("Added %s to cart.", product.Name))
}

func (p *Pipeline) touchConversation(conv store.Conversation, preview string, ts int64) {
	p.store.UpsertConversation(store.Conversation{
		ID:                 conv.ID,
		Phone:              conv.Phone,
		LastMessagePreview: preview,
		LastMessageAt:      ts,
	})
}

// kindForMIME maps an attachment MIME type to a content kind by prefix.
func kindForMIME(mime string) store.ContentKind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return store.KindImage
	case strings.HasPrefix(mime, "video/"):
		return store.KindVideo
	default:
		return store.KindDocument
	}
}

func previewFor(kind store.ContentKind, caption string) string {
	if caption != "" {
		return caption
	}
	switch kind {
	case store.KindImage:
		return "[image]"
	case store.KindVideo:
		return "[video]"
	default:
		return "[document]"
	}
}
