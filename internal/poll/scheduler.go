// Package poll drives the periodic refresh loops. Loops are timer commands
// on the Bubble Tea event loop; a loop is cancelled by invalidating its
// handle so late ticks and late responses are recognised and dropped.
package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/atomicstack/pollchat/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

// Kind identifies a loop. At most one loop per kind is live.
type Kind int

const (
	KindMessages Kind = iota
	KindUnread
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindMessages:
		return "messages"
	case KindUnread:
		return "unread"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	DefaultMessageInterval = 500 * time.Millisecond
	DefaultUnreadInterval  = time.Second
)

// Handle names one run of a loop. Target is the channel id for message
// polling and zero for unread polling. Gen is unique per Start.
type Handle struct {
	Kind   Kind
	Target int64
	Gen    uint64
}

// TickMsg is delivered when a loop's interval elapses.
type TickMsg struct {
	Handle Handle
	At     time.Time
}

// Result carries the outcome of one poll fetch.
type Result struct {
	Handle Handle
	Data   interface{}
	Err    error
}

// Fetcher performs one refresh for target.
type Fetcher func(ctx context.Context, target int64) (interface{}, error)

// AfterFunc schedules fn after d. The default is tea.Tick; tests substitute
// a manual clock.
type AfterFunc func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

type Option func(*Scheduler)

func WithInterval(kind Kind, d time.Duration) Option {
	return func(s *Scheduler) {
		if kind >= 0 && kind < kindCount && d > 0 {
			s.intervals[kind] = d
		}
	}
}

func WithAfter(after AfterFunc) Option {
	return func(s *Scheduler) {
		if after != nil {
			s.after = after
		}
	}
}

func WithFetcher(kind Kind, f Fetcher) Option {
	return func(s *Scheduler) {
		if kind >= 0 && kind < kindCount {
			s.fetchers[kind] = f
		}
	}
}

// WithContext sets the context handed to fetchers.
func WithContext(ctx context.Context) Option {
	return func(s *Scheduler) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// Scheduler owns the live handle of each loop kind. It is not safe for
// concurrent use; call it from Update only.
type Scheduler struct {
	intervals [kindCount]time.Duration
	fetchers  [kindCount]Fetcher
	live      [kindCount]*Handle
	inflight  [kindCount]uint64
	after     AfterFunc
	ctx       context.Context
	gen       uint64
}

func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		intervals: [kindCount]time.Duration{
			KindMessages: DefaultMessageInterval,
			KindUnread:   DefaultUnreadInterval,
		},
		after: tea.Tick,
		ctx:   context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start supersedes any live loop of kind and returns the command that
// delivers the new loop's first tick.
func (s *Scheduler) Start(kind Kind, target int64) tea.Cmd {
	s.Stop(kind)
	s.gen++
	h := Handle{Kind: kind, Target: target, Gen: s.gen}
	s.live[kind] = &h
	events.Poll.Start(kind.String(), target, h.Gen)
	return s.schedule(h)
}

// Stop invalidates the live loop of kind, if any.
func (s *Scheduler) Stop(kind Kind) {
	h := s.live[kind]
	if h == nil {
		return
	}
	s.live[kind] = nil
	s.inflight[kind] = 0
	events.Poll.Stop(kind.String(), h.Target, h.Gen)
}

func (s *Scheduler) StopAll() {
	for k := Kind(0); k < kindCount; k++ {
		s.Stop(k)
	}
}

// Active returns the live handle of kind.
func (s *Scheduler) Active(kind Kind) (Handle, bool) {
	h := s.live[kind]
	if h == nil {
		return Handle{}, false
	}
	return *h, true
}

// Valid reports whether h is still the live handle of its kind.
func (s *Scheduler) Valid(h Handle) bool {
	if h.Kind < 0 || h.Kind >= kindCount {
		return false
	}
	live := s.live[h.Kind]
	return live != nil && *live == h
}

// Accept reports whether tick belongs to a live loop. Ticks of stopped or
// superseded loops are no-ops.
func (s *Scheduler) Accept(tick TickMsg) bool {
	if s.Valid(tick.Handle) {
		return true
	}
	events.Poll.Drop(tick.Handle.Kind.String(), tick.Handle.Target, tick.Handle.Gen, "tick")
	return false
}

// Next re-arms h for another interval. It returns nil once h is dead.
func (s *Scheduler) Next(h Handle) tea.Cmd {
	if !s.Valid(h) {
		return nil
	}
	return s.schedule(h)
}

// HandleTick fetches for an accepted tick and re-arms the loop. The next
// tick is scheduled without waiting for the fetch. A loop has at most one
// fetch outstanding; ticks that arrive before its result only re-arm.
func (s *Scheduler) HandleTick(tick TickMsg) tea.Cmd {
	if !s.Accept(tick) {
		return nil
	}
	h := tick.Handle
	if s.inflight[h.Kind] == h.Gen {
		events.Poll.Drop(h.Kind.String(), h.Target, h.Gen, "inflight")
		return s.schedule(h)
	}
	fetch := s.fetch(h)
	if fetch != nil {
		s.inflight[h.Kind] = h.Gen
	}
	return tea.Batch(fetch, s.schedule(h))
}

// InFlight reports whether the live loop of kind awaits a fetch result.
func (s *Scheduler) InFlight(kind Kind) bool {
	if kind < 0 || kind >= kindCount {
		return false
	}
	return s.inflight[kind] != 0
}

// AcceptResult reports whether res came from a live loop, tracing the drop
// otherwise. Accepting a result frees its loop for the next fetch.
func (s *Scheduler) AcceptResult(res Result) bool {
	if s.Valid(res.Handle) {
		if s.inflight[res.Handle.Kind] == res.Handle.Gen {
			s.inflight[res.Handle.Kind] = 0
		}
		return true
	}
	events.Poll.Drop(res.Handle.Kind.String(), res.Handle.Target, res.Handle.Gen, "result")
	return false
}

func (s *Scheduler) Interval(kind Kind) time.Duration {
	if kind < 0 || kind >= kindCount {
		return 0
	}
	return s.intervals[kind]
}

func (s *Scheduler) schedule(h Handle) tea.Cmd {
	return s.after(s.intervals[h.Kind], func(t time.Time) tea.Msg {
		return TickMsg{Handle: h, At: t}
	})
}

func (s *Scheduler) fetch(h Handle) tea.Cmd {
	f := s.fetchers[h.Kind]
	if f == nil {
		return nil
	}
	ctx := s.ctx
	return func() tea.Msg {
		data, err := f(ctx, h.Target)
		return Result{Handle: h, Data: data, Err: err}
	}
}
