package status

import (
	"fmt"
	"slices"
)

// State represents an outbound message delivery state.
type State string

const (
	Sending   State = "sending"
	Sent      State = "sent"
	Delivered State = "delivered"
	Failed    State = "failed"
)

// Reason classifies why a message entered Failed.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonSessionWindowExpired Reason = "session_window_expired"
	ReasonGenericError         Reason = "generic_error"
)

// validTransitions defines allowed state transitions. Failed is reachable
// from any non-terminal state; Delivered and Failed are terminal.
var validTransitions = map[State][]State{
	Sending:   {Sent, Failed},
	Sent:      {Delivered, Failed},
	Delivered: {},
	Failed:    {},
}

// Status is the delivery status of a message. Reason is only meaningful
// when State is Failed; Advance enforces that.
type Status struct {
	State  State
	Reason Reason
}

// NewSending returns the initial status for an optimistic outbound message.
func NewSending() Status {
	return Status{State: Sending}
}

// Received returns the status used for inbound and historical messages,
// which arrive already final.
func Received() Status {
	return Status{State: Delivered}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(validTransitions[s.State]) == 0
}

// Advance attempts a transition to a new state. A reason may only accompany
// a transition into Failed, and a transition into Failed must carry one.
func (s Status) Advance(to State, reason Reason) (Status, error) {
	if !slices.Contains(validTransitions[s.State], to) {
		return s, fmt.Errorf("invalid transition from %s to %s", s.State, to)
	}
	if to == Failed && reason == ReasonNone {
		return s, fmt.Errorf("transition to %s requires a reason", Failed)
	}
	if to != Failed && reason != ReasonNone {
		return s, fmt.Errorf("reason %q not allowed on transition to %s", reason, to)
	}
	return Status{State: to, Reason: reason}, nil
}

// Fail marks the status failed with the given classification. It is the
// only way to reach Failed and works from any non-terminal state.
func (s Status) Fail(reason Reason) (Status, error) {
	return s.Advance(Failed, reason)
}

// MoreAdvancedThan reports whether s is further along the delivery pipeline
// than other. Used by the reconciler to keep a locally-advanced status when
// the remote feed lags behind.
func (s Status) MoreAdvancedThan(other Status) bool {
	return rank(s.State) > rank(other.State)
}

func rank(st State) int {
	switch st {
	case Sending:
		return 0
	case Sent:
		return 1
	case Delivered:
		return 2
	case Failed:
		return 3
	default:
		return -1
	}
}
