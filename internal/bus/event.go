package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the engine. Subscribers filter by prefix, so
// "store." matches every store mutation.
const (
	KindConversationUpserted = "store.conversation_upserted"
	KindMessagesMerged       = "store.messages_merged"
	KindMessageAppended      = "store.message_appended"
	KindMessageStatus        = "store.message_status_changed"
	KindCartUpdated          = "store.cart_updated"
	KindSendFailed           = "send.failed"
)

// MessageRef identifies one message within one conversation. Payload for
// message-scoped store events.
type MessageRef struct {
	ConversationID string
	MessageID      string
}
