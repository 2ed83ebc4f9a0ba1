package ui

import tea "github.com/charmbracelet/bubbletea"

// Harness drives the UI model programmatically for integration tests. It
// runs commands synchronously and expands batches, so every fetch completes
// before Send returns.
type Harness struct {
	model *Model
	quit  bool
}

// NewHarness creates a harness for the provided model.
func NewHarness(model *Model) *Harness {
	return &Harness{model: model}
}

// Init runs the model's Init command.
func (h *Harness) Init() {
	if h.model == nil {
		return
	}
	h.Run(h.model.Init())
}

// Send routes a message through the model and executes any returned commands.
func (h *Harness) Send(msg tea.Msg) {
	h.Run(h.Dispatch(msg))
}

// Dispatch updates the model with msg and returns the resulting command
// without running it. Tests use it to hold a response back.
func (h *Harness) Dispatch(msg tea.Msg) tea.Cmd {
	if h.model == nil || msg == nil {
		return nil
	}
	if _, ok := msg.(tea.QuitMsg); ok {
		h.quit = true
		return nil
	}
	mdl, cmd := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
	return cmd
}

// Run executes cmd and feeds every message it produces back into the model.
func (h *Harness) Run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	switch batch := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, c := range batch {
			h.Run(c)
		}
	default:
		h.Send(msg)
	}
}

// Quit reports whether the model asked the program to exit.
func (h *Harness) Quit() bool {
	return h.quit
}

// View returns the current view string.
func (h *Harness) View() string {
	if h.model == nil {
		return ""
	}
	return h.model.View()
}

// Model exposes the underlying model.
func (h *Harness) Model() *Model {
	return h.model
}
