package ui

import (
	"fmt"
	"strings"

	"github.com/atomicstack/pollchat/internal/api"
	"github.com/atomicstack/pollchat/internal/logging/events"
	"github.com/atomicstack/pollchat/internal/state"
	"github.com/atomicstack/pollchat/internal/ui/form"
	uistate "github.com/atomicstack/pollchat/internal/ui/state"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if !m.view.LoggedIn() {
		return nil
	}
	switch keyMsg.String() {
	case "ctrl+c":
		return tea.Quit
	case "ctrl+l":
		return m.logout()
	case "alt+left", "ctrl+o":
		return m.navigateHistory(true)
	case "alt+right":
		return m.navigateHistory(false)
	case "ctrl+n":
		m.openPrompt(form.NewCreateChannel())
		return nil
	case "f2":
		name := ""
		if m.session != nil {
			if sess, ok := m.session.Current(); ok {
				name = sess.Username
			}
		}
		m.openPrompt(form.NewUpdateUsername(name))
		return nil
	case "f3":
		m.openPrompt(form.NewUpdatePassword())
		return nil
	case "tab":
		m.cycleFocus(1)
		return nil
	case "shift+tab":
		m.cycleFocus(-1)
		return nil
	}
	switch m.focus {
	case focusCompose:
		return m.handleComposeKey(keyMsg)
	case focusMessages:
		return m.handleMessagesKey(keyMsg)
	default:
		return m.handleChannelsKey(keyMsg)
	}
}

func (m *Model) handleChannelsKey(msg tea.KeyMsg) tea.Cmd {
	if handled, cmd := m.handleTextInput(msg); handled {
		return cmd
	}
	current := m.channelLevel
	switch msg.String() {
	case "esc":
		if m.view.Kind() == state.KindThread {
			return m.closeThread()
		}
		if m.view.Kind() == state.KindChannel {
			m.setFocus(focusMessages)
		}
		return nil
	case "enter":
		item, ok := current.Current()
		if !ok {
			return nil
		}
		before := current.FilterCursorPos()
		current.SetFilter("", 0)
		m.noteFilterCursorChange(current, before)
		current.Select(item.ID)
		m.syncViewport(current)
		return m.openChannel(item.ID, true)
	default:
		m.moveCursor(current, msg.String())
	}
	return nil
}

func (m *Model) handleMessagesKey(msg tea.KeyMsg) tea.Cmd {
	current := m.messageLevel
	switch msg.String() {
	case "esc", "q":
		if m.view.Kind() == state.KindThread {
			return m.closeThread()
		}
		m.setFocus(focusChannels)
		return nil
	case "enter", "r":
		// "N replies" and "Reply" are the same intent. In a thread the
		// focused reply becomes the parent; the open parent is a no-op.
		if m.view.Kind() != state.KindChannel && m.view.Kind() != state.KindThread {
			return nil
		}
		item, ok := current.Current()
		if !ok || item.ID == m.view.ParentID() {
			return nil
		}
		return m.openThread(item.ID, m.view.ChannelID(), true)
	case "e":
		item, ok := current.Current()
		if !ok {
			return nil
		}
		m.openPrompt(form.NewReact(item.ID))
		return nil
	case "+":
		// repeat the first reaction already on the message
		item, ok := current.Current()
		if !ok {
			return nil
		}
		msgData, ok := m.messageByID(item.ID)
		if !ok {
			return nil
		}
		if emojis := msgData.ReactionEmojis(); len(emojis) > 0 {
			return m.react(item.ID, emojis[0])
		}
		return nil
	case "i", "c":
		m.setFocus(focusCompose)
		return nil
	default:
		m.moveCursor(current, msg.String())
	}
	return nil
}

func (m *Model) handleComposeKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.setFocus(focusMessages)
		return nil
	case "enter":
		content := strings.TrimSpace(m.compose.Value())
		if content == "" {
			return nil
		}
		m.compose.SetValue("")
		return m.sendMessage(content)
	}
	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return cmd
}

func (m *Model) moveCursor(l *level, key string) {
	var moved bool
	switch key {
	case "up", "k":
		moved = l.MoveCursorUp()
	case "down", "j":
		moved = l.MoveCursorDown()
	case "pgup":
		moved = l.MoveCursorPageUp(m.maxVisibleRows())
	case "pgdown":
		moved = l.MoveCursorPageDown(m.maxVisibleRows())
	case "home":
		moved = l.MoveCursorHome()
	case "end":
		moved = l.MoveCursorEnd()
	default:
		return
	}
	if moved {
		events.UI.Cursor(l.ID, l.Cursor)
	}
	m.syncViewport(l)
}

func (m *Model) syncViewport(l *level) {
	if l == nil {
		return
	}
	l.EnsureCursorVisible(m.maxVisibleRows())
}

// availableFocus lists the panes the current view offers.
func (m *Model) availableFocus() []focusPane {
	switch m.view.Kind() {
	case state.KindChannel, state.KindThread:
		return []focusPane{focusChannels, focusMessages, focusCompose}
	default:
		return []focusPane{focusChannels}
	}
}

func (m *Model) cycleFocus(delta int) {
	panes := m.availableFocus()
	idx := 0
	for i, p := range panes {
		if p == m.focus {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(panes)) % len(panes)
	m.setFocus(panes[idx])
}

func (m *Model) setFocus(f focusPane) {
	if f == m.focus {
		return
	}
	m.focus = f
	if f == focusCompose {
		m.compose.Focus()
	} else {
		m.compose.Blur()
	}
	events.UI.Focus(f.String())
}

// syncChannelLevel rebuilds the channel list from the channel cache. The
// open channel never shows an unread badge.
func (m *Model) syncChannelLevel() {
	entries := m.channels.Entries()
	items := make([]uistate.Item, 0, len(entries))
	open := m.view.ChannelID()
	for _, ch := range entries {
		badge := ch.UnreadCount
		if ch.ID == open {
			badge = 0
		}
		items = append(items, uistate.Item{ID: ch.ID, Label: ch.Name, Badge: badge})
	}
	m.channelLevel.UpdateItems(items)
	m.syncViewport(m.channelLevel)
}

// syncMessageLevel rebuilds the message list from the transcript or, in a
// thread, from the parent and its replies.
func (m *Model) syncMessageLevel() {
	msgs := m.visibleMessages()
	items := make([]uistate.Item, 0, len(msgs))
	for _, msg := range msgs {
		items = append(items, uistate.Item{ID: msg.ID, Label: msg.Content, Badge: msg.ReplyCount})
	}
	m.messageLevel.UpdateItems(items)
	m.syncViewport(m.messageLevel)
}

func (m *Model) visibleMessages() []api.Message {
	switch m.view.Kind() {
	case state.KindThread:
		parent, ok := m.thread.Parent()
		if !ok {
			return nil
		}
		return append([]api.Message{parent}, m.thread.Replies()...)
	case state.KindChannel:
		if m.transcript.ChannelID() != m.view.ChannelID() {
			return nil
		}
		return m.transcript.Messages()
	default:
		return nil
	}
}

func (m *Model) messageByID(id int64) (api.Message, bool) {
	for _, msg := range m.visibleMessages() {
		if msg.ID == id {
			return msg, true
		}
	}
	return api.Message{}, false
}

// location describes the open view for the header.
func (m *Model) location() string {
	switch m.view.Kind() {
	case state.KindChannel:
		return "# " + m.channels.Name(m.view.ChannelID())
	case state.KindThread:
		return fmt.Sprintf("# %s › thread %d", m.channels.Name(m.view.ChannelID()), m.view.ParentID())
	case state.KindChannelList:
		return state.NoChannelTitle
	default:
		return ""
	}
}
