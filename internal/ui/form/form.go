// Package form holds the text-entry forms shown over the main views: the
// login and register screens and the single-field prompts.
package form

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Validator inspects the trimmed field values and returns a message when
// they cannot be submitted.
type Validator func(values []string) string

type field struct {
	label string
	input textinput.Model
}

// Form is a stack of labelled text inputs with one focused field.
type Form struct {
	kind     string
	title    string
	help     string
	fields   []field
	focus    int
	err      string
	validate Validator
	target   int64
}

// Spec describes one field.
type Spec struct {
	Label       string
	Placeholder string
	Secret      bool
	CharLimit   int
}

// New builds a form. The first field is focused.
func New(kind, title, help string, specs []Spec, validate Validator) *Form {
	f := &Form{kind: kind, title: title, help: help, validate: validate}
	for _, spec := range specs {
		ti := textinput.New()
		ti.Placeholder = spec.Placeholder
		ti.Prompt = "> "
		if spec.CharLimit > 0 {
			ti.CharLimit = spec.CharLimit
		}
		if spec.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		f.fields = append(f.fields, field{label: spec.Label, input: ti})
	}
	f.focusField(0)
	return f
}

func (f *Form) Kind() string  { return f.kind }
func (f *Form) Title() string { return f.title }
func (f *Form) Help() string  { return f.help }
func (f *Form) Error() string { return f.err }
func (f *Form) Focused() int  { return f.focus }
func (f *Form) Target() int64 { return f.target }
func (f *Form) Len() int      { return len(f.fields) }

func (f *Form) SetError(msg string) {
	f.err = msg
}

// SetCursorMode applies mode to every field's cursor.
func (f *Form) SetCursorMode(mode cursor.Mode) {
	for i := range f.fields {
		f.fields[i].input.Cursor.SetMode(mode)
	}
}

// WithTarget attaches the id the form acts on, such as the message a
// reaction is for.
func (f *Form) WithTarget(id int64) *Form {
	f.target = id
	return f
}

// Values returns the field values. Surrounding whitespace is trimmed except
// for secret fields, which are returned as typed.
func (f *Form) Values() []string {
	out := make([]string, len(f.fields))
	for i, fl := range f.fields {
		if fl.input.EchoMode == textinput.EchoPassword {
			out[i] = fl.input.Value()
			continue
		}
		out[i] = strings.TrimSpace(fl.input.Value())
	}
	return out
}

// Value returns the first field's value.
func (f *Form) Value() string {
	if len(f.fields) == 0 {
		return ""
	}
	return f.Values()[0]
}

// SetValue replaces the value of field i.
func (f *Form) SetValue(i int, value string) {
	if i < 0 || i >= len(f.fields) {
		return
	}
	f.fields[i].input.SetValue(value)
	f.fields[i].input.CursorEnd()
}

// Reset clears every field and the error, refocusing the first field.
func (f *Form) Reset() {
	for i := range f.fields {
		f.fields[i].input.SetValue("")
	}
	f.err = ""
	f.focusField(0)
}

// Update feeds msg to the form. done reports a submission that passed
// validation; cancel reports that the user backed out.
func (f *Form) Update(msg tea.Msg) (cmd tea.Cmd, done bool, cancel bool) {
	if len(f.fields) == 0 {
		return nil, false, false
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+u":
			in := &f.fields[f.focus].input
			if in.Value() != "" {
				in.SetValue("")
				in.CursorStart()
			}
			return nil, false, false
		case "tab", "down":
			f.Next()
			return nil, false, false
		case "shift+tab", "up":
			f.focusField((f.focus - 1 + len(f.fields)) % len(f.fields))
			return nil, false, false
		case "esc":
			return nil, false, true
		case "enter":
			if f.validate != nil {
				if problem := f.validate(f.Values()); problem != "" {
					f.err = problem
					return nil, false, false
				}
			}
			f.err = ""
			return nil, true, false
		}
	}
	var next tea.Cmd
	f.fields[f.focus].input, next = f.fields[f.focus].input.Update(msg)
	return next, false, false
}

// Next moves focus to the following field.
func (f *Form) Next() {
	if len(f.fields) == 0 {
		return
	}
	f.focusField((f.focus + 1) % len(f.fields))
}

// Lines renders each field as a label line followed by its input.
func (f *Form) Lines() []string {
	lines := make([]string, 0, len(f.fields)*2)
	for _, fl := range f.fields {
		if fl.label != "" {
			lines = append(lines, fl.label)
		}
		lines = append(lines, fl.input.View())
	}
	return lines
}

func (f *Form) focusField(i int) {
	if len(f.fields) == 0 {
		return
	}
	for j := range f.fields {
		f.fields[j].input.Blur()
	}
	f.focus = i
	f.fields[i].input.Focus()
}

// Required rejects the submission when any field is blank.
func Required(message string) Validator {
	return func(values []string) string {
		for _, v := range values {
			if strings.TrimSpace(v) == "" {
				return message
			}
		}
		return ""
	}
}
