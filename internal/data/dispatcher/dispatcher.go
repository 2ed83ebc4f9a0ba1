package dispatcher

import (
	"github.com/atomicstack/pollchat/internal/api"
	"github.com/atomicstack/pollchat/internal/poll"
	"github.com/atomicstack/pollchat/internal/state"
)

type Result struct {
	ChannelsUpdated   bool
	TranscriptUpdated bool
}

// Dispatcher routes poll results into the stores. Callers have already
// checked that the result is not stale.
type Dispatcher struct {
	channels   state.ChannelStore
	transcript state.TranscriptStore
}

func New(c state.ChannelStore, t state.TranscriptStore) *Dispatcher {
	return &Dispatcher{channels: c, transcript: t}
}

func (d *Dispatcher) Handle(res poll.Result) Result {
	var out Result
	if res.Err != nil {
		return out
	}
	switch res.Handle.Kind {
	case poll.KindUnread:
		if counts, ok := res.Data.(map[int64]int); ok {
			out.ChannelsUpdated = d.channels.MergeUnread(counts)
		}
	case poll.KindMessages:
		if msgs, ok := res.Data.([]api.Message); ok {
			d.transcript.Set(res.Handle.Target, msgs)
			out.TranscriptUpdated = true
		}
	}
	return out
}
