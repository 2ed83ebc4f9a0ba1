package ui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/atomicstack/pollchat/internal/history"
	"github.com/atomicstack/pollchat/internal/logging/events"
	"github.com/atomicstack/pollchat/internal/poll"
	"github.com/atomicstack/pollchat/internal/state"
	"github.com/atomicstack/pollchat/internal/ui/command"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	navChannel = "channel"
	navThread  = "thread"
)

// beginNav records a navigation intent and supersedes any earlier one.
func (m *Model) beginNav(kind string, target int64, push bool) pendingNav {
	m.navSeq++
	nav := pendingNav{seq: m.navSeq, kind: kind, target: target, push: push}
	m.pending = &nav
	m.loading = true
	m.pendingLabel = fmt.Sprintf("%s %d", kind, target)
	events.Nav.Begin(nav.seq, kind, target, push)
	return nav
}

// claimNav reports whether nav is still the pending navigation and, if so,
// completes it. Responses to superseded intents are dropped silently.
func (m *Model) claimNav(nav pendingNav) bool {
	if m.pending == nil || m.pending.seq != nav.seq {
		var pending uint64
		if m.pending != nil {
			pending = m.pending.seq
		}
		events.Nav.Stale(nav.seq, pending, nav.kind, nav.target)
		return false
	}
	m.pending = nil
	m.loading = false
	m.pendingLabel = ""
	return true
}

func (m *Model) cancelNav() {
	if m.pending == nil {
		return
	}
	m.pending = nil
	m.loading = false
	m.pendingLabel = ""
}

// openChannel shows channelID once its messages are fetched. Nothing changes
// until then, and nothing changes if the fetch fails.
func (m *Model) openChannel(channelID int64, push bool) tea.Cmd {
	if channelID <= 0 || !m.view.LoggedIn() {
		return nil
	}
	nav := m.beginNav(navChannel, channelID, push)
	backend := m.backend
	return m.bus.Execute(command.Request{ID: "nav:channel", Label: strconv.FormatInt(channelID, 10), Run: func(ctx context.Context) tea.Msg {
		msgs, err := backend.Messages(ctx, channelID)
		return channelOpenedMsg{nav: nav, messages: msgs, err: err}
	}})
}

func (m *Model) handleChannelOpenedMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(channelOpenedMsg)
	if !ok || !m.claimNav(update.nav) {
		return nil
	}
	if update.err != nil {
		events.Nav.Failed(update.nav.seq, update.nav.kind, update.nav.target, update.err)
		return m.actionFailed("nav:channel", update.err)
	}
	channelID := update.nav.target
	m.poller.Stop(poll.KindMessages)
	m.thread.Clear()
	m.transcript.Set(channelID, update.messages)
	m.setView(state.ChannelView(channelID))
	if update.nav.push {
		m.pushHistory(history.ChannelEntry(channelID))
	}
	m.errMsg = ""
	m.channelLevel.Select(channelID)
	m.messageLevel.SetFilter("", 0)
	m.syncMessageLevel()
	m.messageLevel.MoveCursorEnd()
	m.syncViewport(m.messageLevel)
	m.setFocus(focusMessages)
	return m.poller.Start(poll.KindMessages, channelID)
}

// openThread shows the replies to parentID. channelHint is the channel the
// request came from; the parent's own channel wins when reported.
func (m *Model) openThread(parentID, channelHint int64, push bool) tea.Cmd {
	if parentID <= 0 || !m.view.LoggedIn() {
		return nil
	}
	nav := m.beginNav(navThread, parentID, push)
	backend := m.backend
	return m.bus.Execute(command.Request{ID: "nav:thread", Label: strconv.FormatInt(parentID, 10), Run: func(ctx context.Context) tea.Msg {
		th, err := backend.Thread(ctx, parentID)
		return threadOpenedMsg{nav: nav, channelHint: channelHint, thread: th, err: err}
	}})
}

func (m *Model) handleThreadOpenedMsg(msg tea.Msg) tea.Cmd {
	update, ok := msg.(threadOpenedMsg)
	if !ok || !m.claimNav(update.nav) {
		return nil
	}
	err := update.err
	channelID := update.thread.Parent.ChannelID
	if channelID == 0 {
		channelID = update.channelHint
	}
	if err == nil && channelID == 0 {
		err = fmt.Errorf("thread %d: channel unknown", update.nav.target)
	}
	if err != nil {
		events.Nav.Failed(update.nav.seq, update.nav.kind, update.nav.target, err)
		return m.actionFailed("nav:thread", err)
	}
	parentID := update.nav.target
	m.poller.Stop(poll.KindMessages)
	m.thread.Set(update.thread)
	if m.transcript.ChannelID() != channelID {
		m.transcript.Clear()
	}
	m.setView(state.ThreadView(channelID, parentID))
	if update.nav.push {
		m.pushHistory(history.ThreadEntry(channelID, parentID))
	}
	m.errMsg = ""
	m.messageLevel.SetFilter("", 0)
	m.syncMessageLevel()
	m.messageLevel.MoveCursorHome()
	m.syncViewport(m.messageLevel)
	m.setFocus(focusMessages)
	return nil
}

// closeThread returns to the thread's channel and resumes its message poll.
func (m *Model) closeThread() tea.Cmd {
	if m.view.Kind() != state.KindThread {
		return nil
	}
	m.cancelNav()
	channelID := m.view.ChannelID()
	events.Nav.CloseThread(channelID)
	m.thread.Clear()
	if channelID == 0 {
		m.showChannelList(true)
		return nil
	}
	m.setView(state.ChannelView(channelID))
	m.pushHistory(history.ChannelEntry(channelID))
	cmds := []tea.Cmd{m.poller.Start(poll.KindMessages, channelID)}
	if m.transcript.ChannelID() != channelID {
		m.transcript.Clear()
		cmds = append(cmds, m.refreshTranscript(channelID))
	}
	m.syncMessageLevel()
	m.setFocus(focusMessages)
	return tea.Batch(cmds...)
}

// showChannelList drops any channel or thread and abandons a pending
// navigation. The unread poll keeps running.
func (m *Model) showChannelList(push bool) {
	m.cancelNav()
	m.poller.Stop(poll.KindMessages)
	m.transcript.Clear()
	m.thread.Clear()
	m.setView(state.ChannelList())
	if push {
		m.pushHistory(history.Entry{})
	}
	m.syncMessageLevel()
	m.setFocus(focusChannels)
}

func (m *Model) pushHistory(entry history.Entry) {
	m.history.Push(entry)
	events.Nav.Push(entry.Path(), m.history.Len())
}

// navigateHistory moves through history and rebuilds the view from the
// entry alone. Pops never push.
func (m *Model) navigateHistory(back bool) tea.Cmd {
	if !m.view.LoggedIn() {
		return nil
	}
	var (
		entry     history.Entry
		ok        bool
		direction = "forward"
	)
	if back {
		direction = "back"
		entry, ok = m.history.Back()
	} else {
		entry, ok = m.history.Forward()
	}
	if !ok {
		return nil
	}
	events.Nav.Pop(direction, entry.Path())
	return m.applyEntry(entry, false)
}

func (m *Model) applyEntry(entry history.Entry, push bool) tea.Cmd {
	switch {
	case entry.Empty():
		m.showChannelList(push)
		return nil
	case entry.View == history.ViewThread:
		return m.openThread(entry.ParentID, entry.ChannelID, push)
	default:
		return m.openChannel(entry.ChannelID, push)
	}
}

// enterLoggedIn shows the channel list, starts the unread poll and follows
// the start location once.
func (m *Model) enterLoggedIn() tea.Cmd {
	m.auth.Reset()
	m.setView(state.ChannelList())
	m.setFocus(focusChannels)
	cmds := []tea.Cmd{
		m.loadChannels(),
		m.poller.Start(poll.KindUnread, 0),
	}
	entry := m.initialEntry
	m.initialEntry = history.Entry{}
	if !entry.Empty() {
		cmds = append(cmds, m.applyEntry(entry, true))
	}
	return tea.Batch(cmds...)
}

// logout tears the view down at once; the session store clears the token
// before it attempts the remote call.
func (m *Model) logout() tea.Cmd {
	if !m.view.LoggedIn() {
		return nil
	}
	m.teardown(state.SubviewLogin)
	store := m.session
	if store == nil {
		return nil
	}
	return m.bus.Execute(command.Request{ID: "session:logout", Label: "logout", Run: func(ctx context.Context) tea.Msg {
		return logoutDoneMsg{err: store.Logout(ctx)}
	}})
}

func (m *Model) handleLogoutDoneMsg(msg tea.Msg) tea.Cmd {
	done, ok := msg.(logoutDoneMsg)
	if !ok {
		return nil
	}
	// the local session is already gone; a failed remote call is only traced
	if done.err != nil {
		events.Action.Error(done.err)
	}
	if !m.view.LoggedIn() {
		m.setInfo("Logged out")
	}
	return nil
}

// forceLogout handles a rejected session token.
func (m *Model) forceLogout(err error) {
	if m.session != nil {
		m.session.Invalidate(err.Error())
	}
	m.teardown(state.SubviewLogin)
	m.errMsg = "Session expired. Please log in again."
}

func (m *Model) teardown(sub state.Subview) {
	m.epoch++
	m.cancelNav()
	m.poller.StopAll()
	m.channels.Clear()
	m.transcript.Clear()
	m.thread.Clear()
	m.history.Reset()
	m.prompt = nil
	m.compose.SetValue("")
	m.compose.Blur()
	m.loading = false
	m.pendingLabel = ""
	m.channelLevel = newLevel(channelLevelID, "Channels", nil)
	m.messageLevel = newLevel(messageLevelID, "Messages", nil)
	m.focus = focusChannels
	m.errMsg = ""
	m.forceClearInfo()
	m.switchSubview(sub)
}
