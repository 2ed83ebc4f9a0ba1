package command

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type doneMsg struct{ value string }

type ctxKey struct{}

func TestExecuteRunsRequest(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "bus")
	bus := New(ctx)
	cmd := bus.Execute(Request{ID: "nav:channel", Label: "7", Run: func(ctx context.Context) tea.Msg {
		v, _ := ctx.Value(ctxKey{}).(string)
		return doneMsg{value: v}
	}})
	if cmd == nil {
		t.Fatalf("expected command")
	}
	msg, ok := cmd().(doneMsg)
	if !ok {
		t.Fatalf("expected doneMsg")
	}
	if msg.value != "bus" {
		t.Fatalf("expected request to run under the bus context, got %q", msg.value)
	}
}

func TestExecuteWithoutRunYieldsNil(t *testing.T) {
	bus := New(nil)
	cmd := bus.Execute(Request{ID: "noop"})
	if msg := cmd(); msg != nil {
		t.Fatalf("expected nil message, got %T", msg)
	}
}
