package remote

// RemoteConversation is one record from GET /conversations.
type RemoteConversation struct {
	Phone         string `json:"phone"`
	DisplayName   string `json:"display_name,omitempty"`
	ProfileName   string `json:"profile_name,omitempty"`
	LastMessage   string `json:"last_message"`
	LastMessageAt int64  `json:"last_message_at"`
}

// RemoteMessage is one record from GET /conversations/{id}/messages.
// The feed is newest-first.
type RemoteMessage struct {
	ID            string `json:"id"`
	Content       string `json:"content"`
	Direction     string `json:"direction"`
	MessageType   string `json:"message_type"`
	MediaRef      string `json:"media_ref,omitempty"`
	MediaMIMEType string `json:"media_mime_type,omitempty"`
	VoiceDuration int    `json:"voice_duration,omitempty"`
	Timestamp     int64  `json:"timestamp"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// SendResult is the envelope returned by the send endpoints.
type SendResult struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Product is a commerce catalog entry, consumed read-only.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Attachment is a local file handed to the send pipeline.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}
