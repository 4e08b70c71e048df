package batch

import "testing"

func TestStateTerminal(t *testing.T) {
	for s := range stateNames {
		if s.Terminal() && len(next[s]) > 0 {
			t.Errorf("terminal state %v has outgoing transitions %v", s, next[s])
		}
		if !s.Terminal() && len(next[s]) == 0 {
			t.Errorf("state %v is a dead end but not terminal", s)
		}
	}
}

func TestStateString(t *testing.T) {
	if got := StateParseFailed.String(); got != "parse-failed" {
		t.Errorf("String() = %q", got)
	}
	if got := State(99).String(); got != "unknown" {
		t.Errorf("String() = %q", got)
	}
}
