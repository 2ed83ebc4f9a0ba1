package ui

import (
	"context"

	"github.com/atomicstack/pollchat/internal/logging/events"
	"github.com/atomicstack/pollchat/internal/poll"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) fetchMessages(ctx context.Context, channelID int64) (interface{}, error) {
	msgs, err := m.backend.Messages(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (m *Model) fetchUnread(ctx context.Context, _ int64) (interface{}, error) {
	counts, err := m.backend.Unread(ctx)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// handlePollTickMsg fetches for a live loop. A message tick only fetches
// while its channel is the open view.
func (m *Model) handlePollTickMsg(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(poll.TickMsg)
	if !ok {
		return nil
	}
	h := tick.Handle
	if h.Kind == poll.KindMessages && !m.view.IsChannel(h.Target) {
		events.Poll.Drop(h.Kind.String(), h.Target, h.Gen, "view")
		return m.poller.Next(h)
	}
	return m.poller.HandleTick(tick)
}

// handlePollResultMsg applies a poll fetch. Failures are traced and never
// surface to the user or change the view; the loop keeps running.
func (m *Model) handlePollResultMsg(msg tea.Msg) tea.Cmd {
	res, ok := msg.(poll.Result)
	if !ok {
		return nil
	}
	h := res.Handle
	if !m.poller.AcceptResult(res) {
		return nil
	}
	if res.Err != nil {
		events.Poll.Error(h.Kind.String(), h.Target, res.Err)
		return nil
	}
	if h.Kind == poll.KindMessages && !m.view.IsChannel(h.Target) {
		events.Poll.Drop(h.Kind.String(), h.Target, h.Gen, "view")
		return nil
	}
	out := m.dispatcher.Handle(res)
	if out.ChannelsUpdated {
		m.syncChannelLevel()
	}
	if out.TranscriptUpdated {
		m.syncMessageLevel()
	}
	return nil
}
