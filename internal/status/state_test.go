package status

import "testing"

func TestHappyPath(t *testing.T) {
	s := NewSending()

	s, err := s.Advance(Sent, ReasonNone)
	if err != nil {
		t.Fatalf("sending -> sent: %v", err)
	}
	s, err = s.Advance(Delivered, ReasonNone)
	if err != nil {
		t.Fatalf("sent -> delivered: %v", err)
	}
	if !s.Terminal() {
		t.Error("delivered should be terminal")
	}
}

func TestFailFromAnyNonTerminal(t *testing.T) {
	for _, from := range []State{Sending, Sent} {
		s := Status{State: from}
		failed, err := s.Fail(ReasonSessionWindowExpired)
		if err != nil {
			t.Errorf("%s -> failed: %v", from, err)
		}
		if failed.State != Failed || failed.Reason != ReasonSessionWindowExpired {
			t.Errorf("%s -> failed: got %+v", from, failed)
		}
	}
}

func TestTerminalStatesRejectTransitions(t *testing.T) {
	for _, from := range []State{Delivered, Failed} {
		s := Status{State: from}
		if _, err := s.Advance(Sent, ReasonNone); err == nil {
			t.Errorf("%s -> sent should be rejected", from)
		}
		if _, err := s.Fail(ReasonGenericError); err == nil {
			t.Errorf("%s -> failed should be rejected", from)
		}
	}
}

func TestMonotonic(t *testing.T) {
	s := Status{State: Sent}
	if _, err := s.Advance(Sending, ReasonNone); err == nil {
		t.Error("sent -> sending should be rejected")
	}
	s = Status{State: Delivered}
	if _, err := s.Advance(Sent, ReasonNone); err == nil {
		t.Error("delivered -> sent should be rejected")
	}
}

func TestReasonOnlyOnFailure(t *testing.T) {
	s := NewSending()
	if _, err := s.Advance(Sent, ReasonGenericError); err == nil {
		t.Error("reason on non-failure transition should be rejected")
	}
	if _, err := s.Advance(Failed, ReasonNone); err == nil {
		t.Error("failure without reason should be rejected")
	}
}

func TestMoreAdvancedThan(t *testing.T) {
	cases := []struct {
		a, b State
		want bool
	}{
		{Sent, Sending, true},
		{Delivered, Sent, true},
		{Sending, Sent, false},
		{Sent, Sent, false},
		{Failed, Delivered, true},
	}
	for _, tc := range cases {
		got := (Status{State: tc.a}).MoreAdvancedThan(Status{State: tc.b})
		if got != tc.want {
			t.Errorf("%s more advanced than %s = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
