package store

import "github.com/veigalabs/chatdesk/internal/status"

// ContentKind classifies what a message carries.
type ContentKind string

const (
	KindText           ContentKind = "text"
	KindImage          ContentKind = "image"
	KindVideo          ContentKind = "video"
	KindVoice          ContentKind = "voice"
	KindDocument       ContentKind = "document"
	KindSticker        ContentKind = "sticker"
	KindLocation       ContentKind = "location"
	KindProductSummary ContentKind = "product"
)

// Direction marks which side of the conversation produced a message.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// Conversation is a thread with one counterparty, identified by the
// normalized phone number. OverrideName, UnreadCount and LocallyInitiated
// are local enrichments the remote feed knows nothing about.
type Conversation struct {
	ID                 string
	Phone              string
	DisplayName        string
	ProfileName        string
	OverrideName       string
	LastMessagePreview string
	LastMessageAt      int64
	UnreadCount        int
	LocallyInitiated   bool
}

// Message is one unit of content within a conversation. ClientID is assigned
// locally at creation; RemoteID is the backend's durable id once known. The
// merge key is RemoteID when present, else ClientID.
type Message struct {
	ClientID       string
	RemoteID       string
	ConversationID string
	Body           string
	Kind           ContentKind
	Direction      Direction
	Status         status.Status
	MediaRef       string
	MediaMIME      string
	LocalMediaURL  string
	VoiceDuration  int
	Timestamp      int64
}

// Key returns the identity used to merge this message across polls.
func (m *Message) Key() string {
	if m.RemoteID != "" {
		return m.RemoteID
	}
	return m.ClientID
}
