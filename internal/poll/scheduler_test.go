package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// manualClock records scheduled ticks instead of sleeping.
type manualClock struct {
	pending []scheduled
}

type scheduled struct {
	d  time.Duration
	fn func(time.Time) tea.Msg
}

func (c *manualClock) after(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		c.pending = append(c.pending, scheduled{d: d, fn: fn})
		return nil
	}
}

// fire delivers the most recently registered timer.
func (c *manualClock) fire(t *testing.T) TickMsg {
	t.Helper()
	if len(c.pending) == 0 {
		t.Fatalf("expected a pending timer")
	}
	next := c.pending[len(c.pending)-1]
	c.pending = c.pending[:len(c.pending)-1]
	msg, ok := next.fn(time.Unix(0, 0)).(TickMsg)
	if !ok {
		t.Fatalf("expected TickMsg from timer")
	}
	return msg
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func newTestScheduler(clock *manualClock, opts ...Option) *Scheduler {
	return NewScheduler(append([]Option{WithAfter(clock.after)}, opts...)...)
}

func TestStartSupersedesPreviousLoop(t *testing.T) {
	clock := &manualClock{}
	s := newTestScheduler(clock)

	run(s.Start(KindMessages, 1))
	first := clock.fire(t)
	run(s.Start(KindMessages, 2))
	second := clock.fire(t)

	if s.Accept(first) {
		t.Fatalf("expected superseded tick to be rejected")
	}
	if !s.Accept(second) {
		t.Fatalf("expected live tick to be accepted")
	}
	h, ok := s.Active(KindMessages)
	if !ok || h.Target != 2 {
		t.Fatalf("expected live message loop on 2, got %+v ok=%v", h, ok)
	}
}

func TestRestartSameTargetGetsNewGeneration(t *testing.T) {
	clock := &manualClock{}
	s := newTestScheduler(clock)
	run(s.Start(KindMessages, 7))
	old := clock.fire(t)
	run(s.Start(KindMessages, 7))
	if s.Accept(old) {
		t.Fatalf("expected tick from earlier run on the same channel to be rejected")
	}
}

func TestStopInvalidatesTicksAndResults(t *testing.T) {
	clock := &manualClock{}
	s := newTestScheduler(clock)
	run(s.Start(KindUnread, 0))
	tick := clock.fire(t)

	s.Stop(KindUnread)
	if s.Accept(tick) {
		t.Fatalf("expected stopped tick to be rejected")
	}
	if s.AcceptResult(Result{Handle: tick.Handle}) {
		t.Fatalf("expected stopped result to be rejected")
	}
	if cmd := s.HandleTick(tick); cmd != nil {
		t.Fatalf("expected no command for stopped tick")
	}
	if cmd := s.Next(tick.Handle); cmd != nil {
		t.Fatalf("expected Next on dead handle to return nil")
	}
	if _, ok := s.Active(KindUnread); ok {
		t.Fatalf("expected no active unread loop")
	}
}

func TestKindsAreIndependent(t *testing.T) {
	clock := &manualClock{}
	s := newTestScheduler(clock)
	run(s.Start(KindUnread, 0))
	unread := clock.fire(t)
	run(s.Start(KindMessages, 3))
	s.Stop(KindMessages)

	if !s.Accept(unread) {
		t.Fatalf("expected unread loop to survive message loop changes")
	}
	s.StopAll()
	if s.Accept(unread) {
		t.Fatalf("expected StopAll to stop unread loop")
	}
}

func TestHandleTickFetchesAndRearms(t *testing.T) {
	clock := &manualClock{}
	var fetched []int64
	s := newTestScheduler(clock,
		WithInterval(KindMessages, 250*time.Millisecond),
		WithFetcher(KindMessages, func(_ context.Context, target int64) (interface{}, error) {
			fetched = append(fetched, target)
			return "payload", nil
		}),
	)
	run(s.Start(KindMessages, 9))
	if clock.pending[0].d != 250*time.Millisecond {
		t.Fatalf("expected configured interval, got %s", clock.pending[0].d)
	}
	tick := clock.fire(t)

	msgs := run(s.HandleTick(tick))
	if len(fetched) != 1 || fetched[0] != 9 {
		t.Fatalf("expected one fetch for target 9, got %v", fetched)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one result message, got %d", len(msgs))
	}
	res, ok := msgs[0].(Result)
	if !ok || res.Data != "payload" || res.Handle != tick.Handle {
		t.Fatalf("unexpected result %+v", msgs[0])
	}
	if len(clock.pending) != 1 {
		t.Fatalf("expected loop to be re-armed, got %d timers", len(clock.pending))
	}
	if !s.AcceptResult(res) {
		t.Fatalf("expected live result to be accepted")
	}
}

func TestFetchErrorStillRearms(t *testing.T) {
	clock := &manualClock{}
	s := newTestScheduler(clock, WithFetcher(KindUnread, func(context.Context, int64) (interface{}, error) {
		return nil, errors.New("timeout")
	}))
	run(s.Start(KindUnread, 0))
	msgs := run(s.HandleTick(clock.fire(t)))
	res := msgs[0].(Result)
	if res.Err == nil {
		t.Fatalf("expected fetch error in result")
	}
	if len(clock.pending) != 1 {
		t.Fatalf("expected loop to continue after error")
	}
}

func TestDefaults(t *testing.T) {
	s := NewScheduler()
	if s.Interval(KindMessages) != DefaultMessageInterval || s.Interval(KindUnread) != DefaultUnreadInterval {
		t.Fatalf("unexpected default intervals")
	}
	if KindMessages.String() != "messages" || KindUnread.String() != "unread" {
		t.Fatalf("unexpected kind names")
	}
	if s.Valid(Handle{Kind: Kind(9)}) {
		t.Fatalf("expected unknown kind to be invalid")
	}
}

func TestTickWhileFetchOutstandingOnlyRearms(t *testing.T) {
	clock := &manualClock{}
	fetches := 0
	s := newTestScheduler(clock, WithFetcher(KindMessages, func(context.Context, int64) (interface{}, error) {
		fetches++
		return fetches, nil
	}))
	run(s.Start(KindMessages, 3))

	// hold the first fetch instead of running it
	first := s.HandleTick(clock.fire(t))
	if !s.InFlight(KindMessages) {
		t.Fatalf("expected a fetch in flight")
	}
	batch, ok := first().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("expected fetch and re-arm, got %T", first())
	}
	run(batch[1])

	msgs := run(s.HandleTick(clock.fire(t)))
	if len(msgs) != 0 || fetches != 0 {
		t.Fatalf("expected the second tick to skip its fetch, got %d msgs, %d fetches", len(msgs), fetches)
	}
	if len(clock.pending) != 1 {
		t.Fatalf("expected the loop to stay armed, got %d timers", len(clock.pending))
	}

	res := batch[0]().(Result)
	if !s.AcceptResult(res) || s.InFlight(KindMessages) {
		t.Fatalf("expected the result to clear the in-flight fetch")
	}
	msgs = run(s.HandleTick(clock.fire(t)))
	if len(msgs) != 1 || fetches != 2 {
		t.Fatalf("expected the next tick to fetch again, got %d msgs, %d fetches", len(msgs), fetches)
	}
}

func TestStopClearsInFlight(t *testing.T) {
	clock := &manualClock{}
	s := newTestScheduler(clock, WithFetcher(KindUnread, func(context.Context, int64) (interface{}, error) {
		return nil, nil
	}))
	run(s.Start(KindUnread, 0))
	s.HandleTick(clock.fire(t))
	s.Stop(KindUnread)
	if s.InFlight(KindUnread) {
		t.Fatalf("expected stop to clear the in-flight fetch")
	}
}
