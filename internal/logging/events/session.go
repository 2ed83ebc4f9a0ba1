package events

import "github.com/atomicstack/pollchat/internal/logging"

type SessionTracer struct{}

var Session = SessionTracer{}

func (SessionTracer) Restore(found bool) {
	logging.Trace("session.restore", map[string]interface{}{"found": found})
}

func (SessionTracer) Login(username string) {
	logging.Trace("session.login", map[string]interface{}{"username": username})
}

func (SessionTracer) LoginFailed(username string, err error) {
	logging.Trace("session.login.error", map[string]interface{}{"username": username, "error": errString(err)})
}

func (SessionTracer) Register(username string) {
	logging.Trace("session.register", map[string]interface{}{"username": username})
}

func (SessionTracer) Logout(remoteErr error) {
	logging.Trace("session.logout", map[string]interface{}{"remoteError": errString(remoteErr)})
}

// Invalidate records a teardown triggered by an auth failure.
func (SessionTracer) Invalidate(reason string) {
	logging.Trace("session.invalidate", map[string]interface{}{"reason": reason})
}

// Stale records a result that belongs to an ended session.
func (SessionTracer) Stale(id string, epoch, current uint64) {
	logging.Trace("session.stale", map[string]interface{}{"id": id, "epoch": epoch, "current": current})
}

func (SessionTracer) PersistFailed(op string, err error) {
	logging.Trace("session.persist.error", map[string]interface{}{"op": op, "error": errString(err)})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
