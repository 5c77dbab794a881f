package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/veigalabs/chatdesk/internal/bus"
	"github.com/veigalabs/chatdesk/internal/status"
)

// Memory is the in-memory source of truth for conversations and their
// messages. All mutators are synchronous and total for well-formed input,
// and each publishes exactly one bus event. Messages are held oldest-first.
type Memory struct {
	mu            sync.RWMutex
	bus           *bus.Bus
	conversations map[string]*Conversation
	messages      map[string][]Message
	seedOverrides map[string]string
}

// NewMemory creates an empty store publishing mutations on the given bus.
func NewMemory(b *bus.Bus) *Memory {
	return &Memory{
		bus:           b,
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]Message),
		seedOverrides: make(map[string]string),
	}
}

// SeedOverrides loads persisted contact names. They apply to conversations
// already present and to each conversation as it is first seen, so names
// survive a restart even though the remote feed repopulates everything else.
func (s *Memory) SeedOverrides(overrides map[string]string) {
	s.mu.Lock()
	for id, name := range overrides {
		s.seedOverrides[id] = name
		if c, ok := s.conversations[id]; ok {
			c.OverrideName = name
		}
	}
	s.mu.Unlock()
}

// UpsertConversation inserts or updates a conversation by id. Fields the
// incoming record does not carry (zero values) never clobber local state:
// unread counts, override names and the provenance flag survive a poll that
// lacks that information.
func (s *Memory) UpsertConversation(c Conversation) {
	s.mu.Lock()
	existing, ok := s.conversations[c.ID]
	if !ok {
		cp := c
		if name, seeded := s.seedOverrides[c.ID]; seeded && cp.OverrideName == "" {
			cp.OverrideName = name
		}
		s.conversations[c.ID] = &cp
	} else {
		if c.Phone != "" {
			existing.Phone = c.Phone
		}
		if c.DisplayName != "" {
			existing.DisplayName = c.DisplayName
		}
		if c.ProfileName != "" {
			existing.ProfileName = c.ProfileName
		}
		if c.OverrideName != "" {
			existing.OverrideName = c.OverrideName
		}
		if c.LastMessageAt > existing.LastMessageAt {
			existing.LastMessageAt = c.LastMessageAt
			existing.LastMessagePreview = c.LastMessagePreview
		}
		if c.UnreadCount > 0 {
			existing.UnreadCount = c.UnreadCount
		}
		if c.LocallyInitiated {
			existing.LocallyInitiated = true
		}
	}
	s.mu.Unlock()
	s.bus.Emit(bus.KindConversationUpserted, c.ID)
}

// SetOverrideName records a saved-contact name for a conversation.
func (s *Memory) SetOverrideName(convID, name string) {
	s.mu.Lock()
	s.seedOverrides[convID] = name
	if c, ok := s.conversations[convID]; ok {
		c.OverrideName = name
	}
	s.mu.Unlock()
	s.bus.Emit(bus.KindConversationUpserted, convID)
}

// ClearUnread zeroes the unread count, typically when a conversation opens.
func (s *Memory) ClearUnread(convID string) {
	s.mu.Lock()
	if c, ok := s.conversations[convID]; ok {
		c.UnreadCount = 0
	}
	s.mu.Unlock()
	s.bus.Emit(bus.KindConversationUpserted, convID)
}

// Conversations returns a snapshot sorted by last activity, newest first.
func (s *Memory) Conversations() []Conversation {
	s.mu.RLock()
	out := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, *c)
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageAt > out[j].LastMessageAt
	})
	return out
}

// Conversation returns one conversation by id.
func (s *Memory) Conversation(id string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return Conversation{}, false
	}
	return *c, true
}

// Messages returns a snapshot of a conversation's messages, oldest first.
func (s *Memory) Messages(convID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[convID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// AppendMessage adds a message at the end of a conversation's list. Used by
// the send pipeline for optimistic outbound messages.
func (s *Memory) AppendMessage(m Message) {
	s.mu.Lock()
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], m)
	s.mu.Unlock()
	s.bus.Emit(bus.KindMessageAppended, bus.MessageRef{
		ConversationID: m.ConversationID,
		MessageID:      m.Key(),
	})
}

// MergeMessages merges a reconciled, oldest-first message list into the
// conversation by identity. Existing entries are updated in place with the
// remote-authoritative fields while locally-derived ones survive: a resolved
// media URL carries forward, and a status the send pipeline has already
// advanced past the remote's view is kept. Local messages absent from the
// incoming list are retained (an optimistic send the backend has not echoed
// yet must not vanish). Returns the keys of previously-unseen messages.
func (s *Memory) MergeMessages(convID string, incoming []Message) []string {
	s.mu.Lock()
	current := s.messages[convID]
	index := make(map[string]int, len(current))
	for i := range current {
		index[current[i].Key()] = i
		// An optimistic message acked with a remote id is also reachable
		// under that id.
		if current[i].RemoteID != "" && current[i].ClientID != "" {
			index[current[i].ClientID] = i
		}
	}

	var fresh []string
	for _, in := range incoming {
		i, seen := index[in.Key()]
		if !seen && in.ClientID != "" {
			i, seen = index[in.ClientID]
		}
		if seen {
			local := &current[i]
			if in.RemoteID != "" {
				local.RemoteID = in.RemoteID
			}
			local.Body = in.Body
			local.Kind = in.Kind
			local.Direction = in.Direction
			local.MediaRef = in.MediaRef
			local.MediaMIME = in.MediaMIME
			local.VoiceDuration = in.VoiceDuration
			local.Timestamp = in.Timestamp
			if !local.Status.MoreAdvancedThan(in.Status) {
				local.Status = in.Status
			}
			continue
		}
		current = append(current, in)
		index[in.Key()] = len(current) - 1
		fresh = append(fresh, in.Key())
	}

	sort.SliceStable(current, func(i, j int) bool {
		return current[i].Timestamp < current[j].Timestamp
	})
	s.messages[convID] = current
	s.mu.Unlock()

	s.bus.Emit(bus.KindMessagesMerged, convID)
	return fresh
}

// UpdateMessageStatus advances one message's delivery status, located by
// merge key. The transition is validated by the status machine; an invalid
// transition (a poll racing an ack it cannot improve on) is an error the
// caller may log and drop.
func (s *Memory) UpdateMessageStatus(convID, key string, to status.State, reason status.Reason) error {
	s.mu.Lock()
	m := s.findLocked(convID, key)
	if m == nil {
		s.mu.Unlock()
		return fmt.Errorf("message %s not found in conversation %s", key, convID)
	}
	next, err := m.Status.Advance(to, reason)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	m.Status = next
	s.mu.Unlock()

	s.bus.Emit(bus.KindMessageStatus, bus.MessageRef{ConversationID: convID, MessageID: key})
	return nil
}

// SetRemoteID records the backend-assigned durable id on an acked message.
func (s *Memory) SetRemoteID(convID, clientID, remoteID string) {
	s.mu.Lock()
	if m := s.findLocked(convID, clientID); m != nil {
		m.RemoteID = remoteID
	}
	s.mu.Unlock()
	s.bus.Emit(bus.KindMessageStatus, bus.MessageRef{ConversationID: convID, MessageID: clientID})
}

// SetLocalMediaURL attaches a lazily-resolved playable URL to a message.
func (s *Memory) SetLocalMediaURL(convID, key, url string) {
	s.mu.Lock()
	if m := s.findLocked(convID, key); m != nil {
		m.LocalMediaURL = url
	}
	s.mu.Unlock()
	s.bus.Emit(bus.KindMessagesMerged, convID)
}

func (s *Memory) findLocked(convID, key string) *Message {
	msgs := s.messages[convID]
	for i := range msgs {
		if msgs[i].Key() == key || (msgs[i].ClientID != "" && msgs[i].ClientID == key) {
			return &msgs[i]
		}
	}
	return nil
}
