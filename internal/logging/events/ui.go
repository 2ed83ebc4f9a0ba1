package events

import "github.com/atomicstack/pollchat/internal/logging"

type UITracer struct{}

type FilterTracer struct{}

type ActionTracer struct{}

type CommandTracer struct{}

var (
	UI      = UITracer{}
	Filter  = FilterTracer{}
	Action  = ActionTracer{}
	Command = CommandTracer{}
)

func (UITracer) Focus(pane string) {
	logging.Trace("ui.focus", map[string]interface{}{"pane": pane})
}

func (UITracer) Cursor(list string, cursor int) {
	logging.Trace("ui.cursor", map[string]interface{}{"list": list, "cursor": cursor})
}

func (UITracer) Subview(name string) {
	logging.Trace("ui.subview", map[string]interface{}{"subview": name})
}

func (UITracer) PromptOpen(kind string) {
	logging.Trace("ui.prompt.open", map[string]interface{}{"kind": kind})
}

func (UITracer) PromptCancel(kind string) {
	logging.Trace("ui.prompt.cancel", map[string]interface{}{"kind": kind})
}

func (ActionTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("action.error", map[string]interface{}{"error": err.Error()})
}

func (ActionTracer) Success(info string) {
	logging.Trace("action.success", map[string]interface{}{"info": info})
}

func (ActionTracer) Submit(kind string, target int64) {
	logging.Trace("action.submit", map[string]interface{}{"kind": kind, "target": target})
}

// ForcedLogout records an auth failure from a direct action.
func (ActionTracer) ForcedLogout(kind string, err error) {
	logging.Trace("action.forced-logout", map[string]interface{}{"kind": kind, "error": errString(err)})
}

func (FilterTracer) Cleared(levelID string) {
	logging.Trace("filter.clear", map[string]interface{}{"level": levelID})
}

func (FilterTracer) WordBackspace(levelID, filter string) {
	logging.Trace("filter.word-backspace", map[string]interface{}{"level": levelID, "filter": filter})
}

func (FilterTracer) Cursor(levelID string, pos int) {
	logging.Trace("filter.cursor", map[string]interface{}{"level": levelID, "cursor": pos})
}

func (FilterTracer) Append(levelID, filter string) {
	logging.Trace("filter.append", map[string]interface{}{"level": levelID, "filter": filter})
}

func (FilterTracer) Backspace(levelID, filter string) {
	logging.Trace("filter.backspace", map[string]interface{}{"level": levelID, "filter": filter})
}

func (CommandTracer) Queue(id, label string) {
	logging.Trace("command.queue", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Skip(id, label string) {
	logging.Trace("command.skip", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) NoOp(id, label string) {
	logging.Trace("command.noop", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Result(id, label, msgType string) {
	logging.Trace("command.result", map[string]interface{}{"id": id, "label": label, "msg": msgType})
}
