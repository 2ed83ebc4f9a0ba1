package events

import "github.com/atomicstack/pollchat/internal/logging"

type AppTracer struct{}

var App = AppTracer{}

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) InitialPath(path, view string) {
	logging.Trace("app.initial-path", map[string]interface{}{"path": path, "view": view})
}
