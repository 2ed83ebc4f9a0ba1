package form

import (
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
)

func typeInto(f *Form, text string) {
	for _, r := range text {
		f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	f := NewLogin()
	f.SetCursorMode(cursor.CursorStatic)

	_, done, _ := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if done {
		t.Fatalf("expected empty login to be rejected")
	}
	if f.Error() != missingCredentials {
		t.Fatalf("expected %q, got %q", missingCredentials, f.Error())
	}

	typeInto(f, "alice")
	f.Update(tea.KeyMsg{Type: tea.KeyTab})
	if f.Focused() != 1 {
		t.Fatalf("expected tab to focus the password, got %d", f.Focused())
	}
	typeInto(f, " pw ")
	_, done, _ = f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !done {
		t.Fatalf("expected submission, err=%q", f.Error())
	}
	if f.Error() != "" {
		t.Fatalf("expected error to clear, got %q", f.Error())
	}
	values := f.Values()
	if values[0] != "alice" || values[1] != " pw " {
		t.Fatalf("expected trimmed username and raw password, got %q", values)
	}
}

func TestFocusWraps(t *testing.T) {
	f := NewRegister()
	f.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if f.Focused() != 1 {
		t.Fatalf("expected shift+tab to wrap to the last field, got %d", f.Focused())
	}
	f.Next()
	if f.Focused() != 0 {
		t.Fatalf("expected Next to wrap to the first field, got %d", f.Focused())
	}
}

func TestEscCancels(t *testing.T) {
	f := NewCreateChannel()
	_, done, cancel := f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if done || !cancel {
		t.Fatalf("expected cancel, got done=%v cancel=%v", done, cancel)
	}
}

func TestCtrlUClearsFocusedField(t *testing.T) {
	f := NewUpdateUsername("alice")
	if f.Value() != "alice" {
		t.Fatalf("expected prefilled value, got %q", f.Value())
	}
	f.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	if f.Value() != "" {
		t.Fatalf("expected ctrl+u to clear, got %q", f.Value())
	}
}

func TestResetClearsValuesAndError(t *testing.T) {
	f := NewLogin()
	typeInto(f, "bob")
	f.Next()
	f.SetError("Invalid credentials")
	f.Reset()
	if f.Focused() != 0 || f.Error() != "" || f.Values()[0] != "" {
		t.Fatalf("expected a fresh form, got focus=%d err=%q values=%q", f.Focused(), f.Error(), f.Values())
	}
}

func TestReactCarriesTarget(t *testing.T) {
	f := NewReact(42)
	if f.Target() != 42 || f.Kind() != KindReact {
		t.Fatalf("expected react form for 42, got %s/%d", f.Kind(), f.Target())
	}
	_, done, _ := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if done || f.Error() != "Emoji required" {
		t.Fatalf("expected empty emoji to be rejected, got %q", f.Error())
	}
}

func TestLinesIncludeLabels(t *testing.T) {
	f := NewLogin()
	lines := f.Lines()
	if len(lines) != 4 || lines[0] != "Username" || lines[2] != "Password" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestEmptyFormIsInert(t *testing.T) {
	f := New("empty", "Empty", "", nil, nil)
	cmd, done, cancel := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || done || cancel {
		t.Fatalf("expected an empty form to ignore input")
	}
	if f.Value() != "" {
		t.Fatalf("expected empty value")
	}
}
