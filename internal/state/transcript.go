package state

import "github.com/atomicstack/pollchat/internal/api"

// TranscriptStore holds the messages of the channel on screen. Messages are
// server snapshots and are never edited in place.
type TranscriptStore interface {
	ChannelID() int64
	Messages() []api.Message
	Set(channelID int64, msgs []api.Message)
	Lookup(id int64) (api.Message, bool)
	Clear()
}

type transcriptStore struct {
	channelID int64
	messages  []api.Message
}

func NewTranscriptStore() TranscriptStore {
	return &transcriptStore{}
}

func (t *transcriptStore) ChannelID() int64 {
	return t.channelID
}

func (t *transcriptStore) Messages() []api.Message {
	return cloneMessages(t.messages)
}

func (t *transcriptStore) Set(channelID int64, msgs []api.Message) {
	t.channelID = channelID
	t.messages = cloneMessages(msgs)
}

func (t *transcriptStore) Lookup(id int64) (api.Message, bool) {
	for _, m := range t.messages {
		if m.ID == id {
			return m, true
		}
	}
	return api.Message{}, false
}

func (t *transcriptStore) Clear() {
	t.channelID = 0
	t.messages = nil
}

func cloneMessages(msgs []api.Message) []api.Message {
	if len(msgs) == 0 {
		return nil
	}
	dup := make([]api.Message, len(msgs))
	copy(dup, msgs)
	return dup
}
