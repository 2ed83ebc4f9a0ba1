package ui

import (
	"github.com/atomicstack/pollchat/internal/logging/events"
	"github.com/atomicstack/pollchat/internal/ui/form"
	tea "github.com/charmbracelet/bubbletea"
)

// openPrompt shows f over the current view. Only one prompt is open at a
// time.
func (m *Model) openPrompt(f *form.Form) {
	if f == nil {
		return
	}
	m.prompt = m.newForm(f)
	m.errMsg = ""
	m.forceClearInfo()
	events.UI.PromptOpen(f.Kind())
}

func (m *Model) submitPrompt(p *form.Form) tea.Cmd {
	switch p.Kind() {
	case form.KindCreateChannel:
		return m.createChannel(p.Value())
	case form.KindUpdateUsername:
		return m.updateUsername(p.Value())
	case form.KindUpdatePassword:
		return m.updatePassword(p.Value())
	case form.KindReact:
		return m.react(p.Target(), p.Value())
	default:
		return nil
	}
}
