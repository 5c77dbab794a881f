package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestActionMatches(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		event  *tcell.EventKey
		want   bool
	}{
		{"rune match", Action{Key: tcell.KeyRune, Rune: 'q'}, tcell.NewEventKey(tcell.KeyRune, 'q', 0), true},
		{"rune mismatch", Action{Key: tcell.KeyRune, Rune: 'q'}, tcell.NewEventKey(tcell.KeyRune, 'x', 0), false},
		{"special key match", Action{Key: tcell.KeyEscape}, tcell.NewEventKey(tcell.KeyEscape, 0, 0), true},
		{"special key vs rune", Action{Key: tcell.KeyEscape}, tcell.NewEventKey(tcell.KeyRune, 'q', 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.Matches(tt.event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandleEventViewPrecedence(t *testing.T) {
	r := NewRegistry()
	var fired string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'x', Handler: func() { fired = "global" }})
	r.AddView("chat", &Action{Key: tcell.KeyRune, Rune: 'x', Handler: func() { fired = "chat" }})

	if !r.HandleEvent("chat", tcell.NewEventKey(tcell.KeyRune, 'x', 0)) {
		t.Fatal("HandleEvent() = false, want true")
	}
	if fired != "chat" {
		t.Errorf("fired = %q, want chat", fired)
	}

	fired = ""
	if !r.HandleEvent("other", tcell.NewEventKey(tcell.KeyRune, 'x', 0)) {
		t.Fatal("HandleEvent() = false, want true")
	}
	if fired != "global" {
		t.Errorf("fired = %q, want global", fired)
	}

	if r.HandleEvent("chat", tcell.NewEventKey(tcell.KeyRune, 'z', 0)) {
		t.Error("unbound key should not match")
	}
}

func TestHintsOrderStable(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "q:quit", Visible: true})
	r.AddView("chat", &Action{Key: tcell.KeyRune, Rune: 'i', Description: "i:compose", Visible: true})
	r.AddView("chat", &Action{Key: tcell.KeyRune, Rune: 'a', Description: "a:attach", Visible: true})
	r.AddView("chat", &Action{Key: tcell.KeyRune, Rune: 'h', Description: "", Visible: false, Handler: func() {}})

	want := []string{"i:compose", "a:attach", "q:quit"}
	for i := 0; i < 10; i++ {
		got := r.Hints("chat")
		if len(got) != len(want) {
			t.Fatalf("Hints() = %v, want %v", got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("Hints()[%d] = %q, want %q", j, got[j], want[j])
			}
		}
	}
}
