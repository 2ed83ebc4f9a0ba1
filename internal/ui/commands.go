package ui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/atomicstack/pollchat/internal/api"
	"github.com/atomicstack/pollchat/internal/logging/events"
	"github.com/atomicstack/pollchat/internal/session"
	"github.com/atomicstack/pollchat/internal/ui/command"
	tea "github.com/charmbracelet/bubbletea"
)

type loginResultMsg struct {
	session session.Session
	err     error
}

type registerResultMsg struct {
	username string
	err      error
}

type logoutDoneMsg struct {
	err error
}

// Results that outlive a navigation carry the session epoch they were
// started under.

type channelsLoadedMsg struct {
	epoch    uint64
	channels []api.Channel
	err      error
}

// channelOpenedMsg and threadOpenedMsg answer a navigation. They apply only
// while nav is still the pending navigation.
type channelOpenedMsg struct {
	nav      pendingNav
	messages []api.Message
	err      error
}

type threadOpenedMsg struct {
	nav pendingNav
	// channelHint is the channel known when the thread was requested; it is
	// used when the parent does not report its channel.
	channelHint int64
	thread      api.Thread
	err         error
}

// transcriptRefreshMsg and threadRefreshMsg follow a direct action. They
// apply only while their target is still the open view.
type transcriptRefreshMsg struct {
	epoch     uint64
	channelID int64
	messages  []api.Message
	err       error
}

type threadRefreshMsg struct {
	epoch    uint64
	parentID int64
	thread   api.Thread
	err      error
}

// actionResultMsg reports a direct action. after runs on the event loop once
// the action succeeded.
type actionResultMsg struct {
	epoch uint64
	id    string
	info  string
	err   error
	after func(*Model) tea.Cmd
}

func (m *Model) loadChannels() tea.Cmd {
	backend, epoch := m.backend, m.epoch
	return m.bus.Execute(command.Request{ID: "channels:list", Label: "channels", Run: func(ctx context.Context) tea.Msg {
		channels, err := backend.Channels(ctx)
		return channelsLoadedMsg{epoch: epoch, channels: channels, err: err}
	}})
}

// currentEpoch reports whether a result started under epoch still belongs to
// the live session.
func (m *Model) currentEpoch(id string, epoch uint64) bool {
	if epoch == m.epoch && m.view.LoggedIn() {
		return true
	}
	events.Session.Stale(id, epoch, m.epoch)
	return false
}

func (m *Model) handleChannelsLoadedMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(channelsLoadedMsg)
	if !ok {
		return nil
	}
	if !m.currentEpoch("channels:list", update.epoch) {
		return nil
	}
	if update.err != nil {
		return m.actionFailed("channels:list", update.err)
	}
	m.channels.SetEntries(update.channels)
	m.syncChannelLevel()
	if len(update.channels) == 0 {
		m.setInfo("No channels yet. Press ctrl+n to create one.")
	}
	return nil
}

func (m *Model) refreshTranscript(channelID int64) tea.Cmd {
	backend, epoch := m.backend, m.epoch
	return m.bus.Execute(command.Request{ID: "messages:refresh", Label: strconv.FormatInt(channelID, 10), Run: func(ctx context.Context) tea.Msg {
		msgs, err := backend.Messages(ctx, channelID)
		return transcriptRefreshMsg{epoch: epoch, channelID: channelID, messages: msgs, err: err}
	}})
}

func (m *Model) handleTranscriptRefreshMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(transcriptRefreshMsg)
	if !ok {
		return nil
	}
	if !m.currentEpoch("messages:refresh", update.epoch) {
		return nil
	}
	if !m.view.IsChannel(update.channelID) {
		events.Nav.Stale(0, m.navSeq, "messages:refresh", update.channelID)
		return nil
	}
	if update.err != nil {
		events.Action.Error(update.err)
		return nil
	}
	m.transcript.Set(update.channelID, update.messages)
	m.syncMessageLevel()
	return nil
}

func (m *Model) refreshThread(parentID int64) tea.Cmd {
	backend, epoch := m.backend, m.epoch
	return m.bus.Execute(command.Request{ID: "thread:refresh", Label: strconv.FormatInt(parentID, 10), Run: func(ctx context.Context) tea.Msg {
		th, err := backend.Thread(ctx, parentID)
		return threadRefreshMsg{epoch: epoch, parentID: parentID, thread: th, err: err}
	}})
}

func (m *Model) handleThreadRefreshMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(threadRefreshMsg)
	if !ok {
		return nil
	}
	if !m.currentEpoch("thread:refresh", update.epoch) {
		return nil
	}
	if !m.view.IsThread(update.parentID) {
		events.Nav.Stale(0, m.navSeq, "thread:refresh", update.parentID)
		return nil
	}
	if update.err != nil {
		events.Action.Error(update.err)
		return nil
	}
	m.thread.Set(update.thread)
	m.syncMessageLevel()
	return nil
}

// refreshView re-reads whatever the open view shows.
func (m *Model) refreshView() tea.Cmd {
	switch {
	case m.view.ParentID() != 0:
		return m.refreshThread(m.view.ParentID())
	case m.view.ChannelID() != 0:
		return m.refreshTranscript(m.view.ChannelID())
	default:
		return nil
	}
}

func (m *Model) runAction(id, label string, run func(ctx context.Context) actionResultMsg) tea.Cmd {
	m.loading = true
	m.pendingLabel = label
	m.errMsg = ""
	m.forceClearInfo()
	events.Action.Submit(id, m.view.ChannelID())
	epoch := m.epoch
	return m.bus.Execute(command.Request{ID: id, Label: label, Run: func(ctx context.Context) tea.Msg {
		res := run(ctx)
		res.id = id
		res.epoch = epoch
		return res
	}})
}

// sendMessage posts to the open channel, or replies in the open thread.
func (m *Model) sendMessage(content string) tea.Cmd {
	if content == "" || !m.view.LoggedIn() || m.view.ChannelID() == 0 {
		return nil
	}
	msg := api.NewMessage{ChannelID: m.view.ChannelID(), Content: content}
	id := "message:send"
	if parent := m.view.ParentID(); parent != 0 {
		msg.RepliesTo = &parent
		id = "message:reply"
	}
	backend := m.backend
	return m.runAction(id, content, func(ctx context.Context) actionResultMsg {
		_, err := backend.PostMessage(ctx, msg)
		return actionResultMsg{err: err, after: (*Model).refreshView}
	})
}

func (m *Model) react(messageID int64, emoji string) tea.Cmd {
	if messageID == 0 || emoji == "" {
		return nil
	}
	backend := m.backend
	return m.runAction("message:react", emoji, func(ctx context.Context) actionResultMsg {
		err := backend.React(ctx, messageID, emoji)
		return actionResultMsg{err: err, after: (*Model).refreshView}
	})
}

func (m *Model) createChannel(name string) tea.Cmd {
	backend := m.backend
	return m.runAction("channel:create", name, func(ctx context.Context) actionResultMsg {
		if err := backend.CreateChannel(ctx, name); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{
			info:  fmt.Sprintf("Created channel %s", name),
			after: (*Model).loadChannels,
		}
	})
}

func (m *Model) updateUsername(name string) tea.Cmd {
	backend := m.backend
	return m.runAction("user:username", name, func(ctx context.Context) actionResultMsg {
		if err := backend.UpdateUsername(ctx, name); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{
			info: "Username updated",
			after: func(m *Model) tea.Cmd {
				if m.session != nil {
					m.session.SetUsername(name)
				}
				return tea.Batch(m.loadChannels(), m.refreshView())
			},
		}
	})
}

func (m *Model) updatePassword(password string) tea.Cmd {
	backend := m.backend
	return m.runAction("user:password", "password", func(ctx context.Context) actionResultMsg {
		if err := backend.UpdatePassword(ctx, password); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{info: "Password updated"}
	})
}

func (m *Model) handleActionResultMsg(msg tea.Msg) tea.Cmd {
	result, ok := msg.(actionResultMsg)
	if !ok {
		return nil
	}
	// a result from an ended session must not touch the live one
	if !m.currentEpoch(result.id, result.epoch) {
		return nil
	}
	m.loading = false
	m.pendingLabel = ""
	if result.err != nil {
		return m.actionFailed(result.id, result.err)
	}
	if result.info != "" {
		m.setInfo(result.info)
	} else {
		m.forceClearInfo()
	}
	events.Action.Success(result.info)
	if result.after != nil {
		return result.after(m)
	}
	return nil
}

// actionFailed surfaces the error of a direct user action. An auth failure
// means the session is gone and forces a logout.
func (m *Model) actionFailed(id string, err error) tea.Cmd {
	m.loading = false
	m.pendingLabel = ""
	events.Action.Error(err)
	if api.IsAuth(err) {
		events.Action.ForcedLogout(id, err)
		m.forceLogout(err)
		return nil
	}
	m.errMsg = err.Error()
	m.forceClearInfo()
	return nil
}
