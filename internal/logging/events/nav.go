package events

import "github.com/atomicstack/pollchat/internal/logging"

type NavTracer struct{}

var Nav = NavTracer{}

// Begin records a navigation intent waiting on its fetch.
func (NavTracer) Begin(seq uint64, kind string, target int64, push bool) {
	logging.Trace("nav.begin", map[string]interface{}{"seq": seq, "kind": kind, "target": target, "push": push})
}

func (NavTracer) Apply(seq uint64, view string) {
	logging.Trace("nav.apply", map[string]interface{}{"seq": seq, "view": view})
}

func (NavTracer) Stale(seq, pending uint64, kind string, target int64) {
	logging.Trace("nav.stale", map[string]interface{}{"seq": seq, "pending": pending, "kind": kind, "target": target})
}

func (NavTracer) Failed(seq uint64, kind string, target int64, err error) {
	logging.Trace("nav.error", map[string]interface{}{"seq": seq, "kind": kind, "target": target, "error": errString(err)})
}

func (NavTracer) Push(path string, depth int) {
	logging.Trace("nav.history.push", map[string]interface{}{"path": path, "depth": depth})
}

func (NavTracer) Pop(direction, path string) {
	logging.Trace("nav.history.pop", map[string]interface{}{"direction": direction, "path": path})
}

func (NavTracer) CloseThread(channel int64) {
	logging.Trace("nav.thread.close", map[string]interface{}{"channel": channel})
}
