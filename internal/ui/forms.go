package ui

import (
	"context"

	"github.com/atomicstack/pollchat/internal/logging/events"
	"github.com/atomicstack/pollchat/internal/state"
	"github.com/atomicstack/pollchat/internal/ui/command"
	"github.com/atomicstack/pollchat/internal/ui/form"
	tea "github.com/charmbracelet/bubbletea"
)

// handleActiveForm gives key presses to the login screen while logged out,
// or to an open prompt.
func (m *Model) handleActiveForm(msg tea.Msg) (bool, tea.Cmd) {
	if !m.view.LoggedIn() {
		return m.handleAuthForm(msg)
	}
	if m.prompt != nil {
		return m.handlePromptForm(msg)
	}
	return false, nil
}

func (m *Model) handleAuthForm(msg tea.Msg) (bool, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.auth == nil {
		return false, nil
	}
	switch key.String() {
	case "ctrl+c":
		return true, tea.Quit
	case "ctrl+r":
		if m.view.Subview() == state.SubviewRegister {
			m.switchSubview(state.SubviewLogin)
		} else {
			m.switchSubview(state.SubviewRegister)
		}
		return true, nil
	}
	cmd, done, cancel := m.auth.Update(msg)
	if cancel {
		if m.view.Subview() == state.SubviewRegister {
			m.switchSubview(state.SubviewLogin)
		}
		return true, cmd
	}
	if done {
		if m.loading {
			return true, nil
		}
		values := m.auth.Values()
		m.errMsg = ""
		m.forceClearInfo()
		if m.auth.Kind() == form.KindRegister {
			return true, m.submitRegister(values[0], values[1])
		}
		return true, m.submitLogin(values[0], values[1])
	}
	return true, cmd
}

func (m *Model) switchSubview(sub state.Subview) {
	if sub == state.SubviewRegister {
		m.auth = m.newForm(form.NewRegister())
	} else {
		m.auth = m.newForm(form.NewLogin())
	}
	if m.view != state.LoggedOut(sub) {
		m.setView(state.LoggedOut(sub))
		events.UI.Subview(sub.String())
	}
}

func (m *Model) submitLogin(username, password string) tea.Cmd {
	store := m.session
	if store == nil {
		return nil
	}
	m.loading = true
	m.pendingLabel = "Logging in"
	return m.bus.Execute(command.Request{ID: "session:login", Label: username, Run: func(ctx context.Context) tea.Msg {
		sess, err := store.Login(ctx, username, password)
		return loginResultMsg{session: sess, err: err}
	}})
}

func (m *Model) handleLoginResultMsg(msg tea.Msg) tea.Cmd {
	result, ok := msg.(loginResultMsg)
	if !ok {
		return nil
	}
	m.loading = false
	m.pendingLabel = ""
	if m.view.LoggedIn() {
		return nil
	}
	if result.err != nil {
		events.Action.Error(result.err)
		if m.auth != nil {
			m.auth.SetError(result.err.Error())
		}
		return nil
	}
	return m.enterLoggedIn()
}

func (m *Model) submitRegister(username, password string) tea.Cmd {
	store := m.session
	if store == nil {
		return nil
	}
	m.loading = true
	m.pendingLabel = "Registering"
	return m.bus.Execute(command.Request{ID: "session:register", Label: username, Run: func(ctx context.Context) tea.Msg {
		return registerResultMsg{username: username, err: store.Register(ctx, username, password)}
	}})
}

// handleRegisterResultMsg returns to the login screen on success; a new
// account is not logged in.
func (m *Model) handleRegisterResultMsg(msg tea.Msg) tea.Cmd {
	result, ok := msg.(registerResultMsg)
	if !ok {
		return nil
	}
	m.loading = false
	m.pendingLabel = ""
	if m.view != state.LoggedOut(state.SubviewRegister) {
		return nil
	}
	if result.err != nil {
		events.Action.Error(result.err)
		m.auth.SetError(result.err.Error())
		return nil
	}
	m.switchSubview(state.SubviewLogin)
	m.auth.SetValue(0, result.username)
	m.auth.Next()
	m.setInfo("Registration successful! Please login.")
	return nil
}

func (m *Model) handlePromptForm(msg tea.Msg) (bool, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}
	if key.String() == "ctrl+c" {
		return true, tea.Quit
	}
	cmd, done, cancel := m.prompt.Update(msg)
	if cancel {
		events.UI.PromptCancel(m.prompt.Kind())
		m.prompt = nil
		return true, cmd
	}
	if done {
		p := m.prompt
		m.prompt = nil
		return true, m.submitPrompt(p)
	}
	return true, cmd
}
