// Package sync reconciles freshly polled remote message feeds into the
// local store. The remote feed is newest-first; the store's canonical order
// is oldest-first. Incoming records are merged by identity, never replaced
// wholesale, so an optimistic local send the backend has not echoed yet
// survives a racing poll.
package sync

import (
	"strings"

	"github.com/veigalabs/chatdesk/internal/remote"
	"github.com/veigalabs/chatdesk/internal/status"
	"github.com/veigalabs/chatdesk/internal/store"
	"go.uber.org/zap"
)

// audioMarkers are MIME fragments that identify a voice note regardless of
// what message_type claims. The upstream tagging for audio is inconsistent,
// so kind inference is a deliberate disjunction over type, MIME and the
// presence of a voice duration.
var audioMarkers = []string{"audio", "ogg", "opus"}

// Reconciler merges remote message feeds into the in-memory store.
type Reconciler struct {
	store  *store.Memory
	logger *zap.Logger
}

// New creates a reconciler writing into the given store.
func New(s *store.Memory, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: s, logger: logger}
}

// Outcome reports what a reconciliation pass changed.
type Outcome struct {
	NewMessages int
	Total       int
}

// Reconcile maps a newest-first remote feed into store messages and merges
// them. Locally-derived fields (resolved media URLs, statuses the send
// pipeline has advanced further) are preserved by the merge.
func (r *Reconciler) Reconcile(convID string, feed []remote.RemoteMessage) Outcome {
	built := make([]store.Message, 0, len(feed))
	// Reverse: remote is newest-first, the store wants oldest-first.
	for i := len(feed) - 1; i >= 0; i-- {
		built = append(built, BuildMessage(convID, feed[i]))
	}

	fresh := r.store.MergeMessages(convID, built)
	if len(fresh) > 0 && r.logger != nil {
		r.logger.Debug("reconciled new messages",
			zap.String("conversation", convID),
			zap.Int("new", len(fresh)),
			zap.Int("total", len(built)))
	}
	return Outcome{NewMessages: len(fresh), Total: len(built)}
}

// BuildMessage maps one remote record to a store message.
func BuildMessage(convID string, rec remote.RemoteMessage) store.Message {
	dir := store.Inbound
	if rec.Direction == "outbound" {
		dir = store.Outbound
	}
	return store.Message{
		RemoteID:       rec.ID,
		ConversationID: convID,
		Body:           rec.Content,
		Kind:           inferKind(rec),
		Direction:      dir,
		Status:         mapStatus(dir, rec.Status, rec.FailureReason),
		MediaRef:       rec.MediaRef,
		MediaMIME:      rec.MediaMIMEType,
		VoiceDuration:  rec.VoiceDuration,
		Timestamp:      rec.Timestamp,
	}
}

// inferKind decides the content kind. Voice detection tolerates inconsistent
// upstream tagging: type says voice/audio, OR the MIME smells like audio, OR
// a voice duration is present.
func inferKind(rec remote.RemoteMessage) store.ContentKind {
	mt := strings.ToLower(rec.MessageType)
	mime := strings.ToLower(rec.MediaMIMEType)

	if mt == "voice" || mt == "audio" || rec.VoiceDuration > 0 {
		return store.KindVoice
	}
	for _, marker := range audioMarkers {
		if mime != "" && strings.Contains(mime, marker) {
			return store.KindVoice
		}
	}

	switch mt {
	case "image":
		return store.KindImage
	case "video":
		return store.KindVideo
	case "document":
		return store.KindDocument
	case "sticker":
		return store.KindSticker
	case "location":
		return store.KindLocation
	case "product", "product_summary":
		return store.KindProductSummary
	default:
		return store.KindText
	}
}

// mapStatus converts the remote status string. Inbound messages arrive
// final. Outbound history carries sent/delivered/failed; an unknown string
// is treated as delivered rather than inventing an in-flight state.
func mapStatus(dir store.Direction, s, failureReason string) status.Status {
	if dir == store.Inbound {
		return status.Received()
	}
	switch s {
	case "sending":
		return status.NewSending()
	case "sent":
		return status.Status{State: status.Sent}
	case "failed":
		reason := status.ReasonGenericError
		if failureReason == string(status.ReasonSessionWindowExpired) {
			reason = status.ReasonSessionWindowExpired
		}
		return status.Status{State: status.Failed, Reason: reason}
	default:
		return status.Status{State: status.Delivered}
	}
}
