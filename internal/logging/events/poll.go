package events

import "github.com/atomicstack/pollchat/internal/logging"

type PollTracer struct{}

var Poll = PollTracer{}

func (PollTracer) Start(kind string, target int64, gen uint64) {
	logging.Trace("poll.start", map[string]interface{}{"kind": kind, "target": target, "gen": gen})
}

func (PollTracer) Stop(kind string, target int64, gen uint64) {
	logging.Trace("poll.stop", map[string]interface{}{"kind": kind, "target": target, "gen": gen})
}

// Drop records a tick or result whose handle was no longer live.
func (PollTracer) Drop(kind string, target int64, gen uint64, reason string) {
	logging.Trace("poll.drop", map[string]interface{}{"kind": kind, "target": target, "gen": gen, "reason": reason})
}

func (PollTracer) Error(kind string, target int64, err error) {
	logging.Trace("poll.error", map[string]interface{}{"kind": kind, "target": target, "error": errString(err)})
}
