package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/atomicstack/pollchat/internal/api"
	"github.com/atomicstack/pollchat/internal/poll"
	"github.com/atomicstack/pollchat/internal/session"
	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
)

// fakeBackend is an in-memory Backend. Errors set in fail are returned by
// the named method until cleared.
type fakeBackend struct {
	mu       sync.Mutex
	channels []api.Channel
	messages map[int64][]api.Message
	threads  map[int64]api.Thread
	unread   map[int64]int
	fail     map[string]error
	calls    []string
	posted   []api.NewMessage
	reacted  []string
	nextID   int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages: make(map[int64][]api.Message),
		threads:  make(map[int64]api.Thread),
		unread:   make(map[int64]int),
		fail:     make(map[string]error),
		nextID:   1000,
	}
}

func (b *fakeBackend) record(call string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	name := call
	for i, r := range call {
		if r == ' ' {
			name = call[:i]
			break
		}
	}
	return b.fail[name]
}

func (b *fakeBackend) setFail(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.fail, method)
		return
	}
	b.fail[method] = err
}

func (b *fakeBackend) callCount(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (b *fakeBackend) addChannel(id int64, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, api.Channel{ID: id, Name: name})
}

func (b *fakeBackend) addMessage(channelID, id int64, author, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[channelID] = append(b.messages[channelID], api.Message{
		ID:         id,
		ChannelID:  channelID,
		AuthorName: author,
		Content:    content,
		Timestamp:  api.Timestamp{Time: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	})
}

func (b *fakeBackend) setThread(th api.Thread) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.threads[th.Parent.ID] = th
}

func (b *fakeBackend) setUnread(counts map[int64]int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unread = counts
}

func (b *fakeBackend) Channels(ctx context.Context) ([]api.Channel, error) {
	if err := b.record("Channels"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Channel(nil), b.channels...), nil
}

func (b *fakeBackend) CreateChannel(ctx context.Context, name string) error {
	if err := b.record("CreateChannel " + name); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.channels = append(b.channels, api.Channel{ID: b.nextID, Name: name})
	return nil
}

func (b *fakeBackend) Messages(ctx context.Context, channelID int64) ([]api.Message, error) {
	if err := b.record(fmt.Sprintf("Messages %d", channelID)); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Message(nil), b.messages[channelID]...), nil
}

func (b *fakeBackend) PostMessage(ctx context.Context, msg api.NewMessage) (int64, error) {
	if err := b.record(fmt.Sprintf("PostMessage %d", msg.ChannelID)); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.posted = append(b.posted, msg)
	m := api.Message{ID: b.nextID, ChannelID: msg.ChannelID, AuthorName: "me", Content: msg.Content, RepliesTo: msg.RepliesTo}
	if msg.RepliesTo != nil {
		th := b.threads[*msg.RepliesTo]
		th.Replies = append(th.Replies, m)
		b.threads[*msg.RepliesTo] = th
	} else {
		b.messages[msg.ChannelID] = append(b.messages[msg.ChannelID], m)
	}
	return b.nextID, nil
}

func (b *fakeBackend) Thread(ctx context.Context, parentID int64) (api.Thread, error) {
	if err := b.record(fmt.Sprintf("Thread %d", parentID)); err != nil {
		return api.Thread{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	th, ok := b.threads[parentID]
	if !ok {
		return api.Thread{}, &api.ValidationError{Reason: "Parent message not found", Status: 404}
	}
	return th, nil
}

func (b *fakeBackend) React(ctx context.Context, messageID int64, emoji string) error {
	if err := b.record(fmt.Sprintf("React %d", messageID)); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reacted = append(b.reacted, fmt.Sprintf("%d:%s", messageID, emoji))
	return nil
}

func (b *fakeBackend) Unread(ctx context.Context) (map[int64]int, error) {
	if err := b.record("Unread"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[int64]int, len(b.unread))
	for k, v := range b.unread {
		out[k] = v
	}
	return out, nil
}

func (b *fakeBackend) UpdateUsername(ctx context.Context, username string) error {
	return b.record("UpdateUsername " + username)
}

func (b *fakeBackend) UpdatePassword(ctx context.Context, password string) error {
	return b.record("UpdatePassword")
}

// fakeAuth rejects the password "wrong" and the username "taken".
type fakeAuth struct {
	mu        sync.Mutex
	logoutErr error
	logouts   []string
}

func (a *fakeAuth) Login(ctx context.Context, username, password string) (api.LoginResult, error) {
	if password == "wrong" {
		return api.LoginResult{}, &api.AuthError{Reason: "Invalid credentials"}
	}
	return api.LoginResult{Token: "tok-" + username, UserID: 1}, nil
}

func (a *fakeAuth) Register(ctx context.Context, username, password string) error {
	if username == "taken" {
		return &api.ValidationError{Reason: "Username already exists", Status: 400}
	}
	return nil
}

func (a *fakeAuth) Logout(ctx context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logouts = append(a.logouts, token)
	return a.logoutErr
}

type memTokens struct {
	mu    sync.Mutex
	token string
}

func (s *memTokens) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memTokens) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *memTokens) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// manualClock replaces the poll timer. Scheduled ticks are held until the
// test fires them.
type manualClock struct {
	pending []func(time.Time) tea.Msg
}

func (c *manualClock) After(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	c.pending = append(c.pending, fn)
	return nil
}

// Fire delivers every tick scheduled so far. Ticks scheduled while firing
// wait for the next call.
func (c *manualClock) Fire(h *Harness) {
	due := c.pending
	c.pending = nil
	now := time.Now()
	for _, fn := range due {
		h.Send(fn(now))
	}
}

// ticks returns the handles of the scheduled ticks, grouped by kind.
func (c *manualClock) ticks() map[poll.Kind][]poll.Handle {
	out := make(map[poll.Kind][]poll.Handle)
	for _, fn := range c.pending {
		if tick, ok := fn(time.Time{}).(poll.TickMsg); ok {
			out[tick.Handle.Kind] = append(out[tick.Handle.Kind], tick.Handle)
		}
	}
	return out
}

type fixture struct {
	backend *fakeBackend
	auth    *fakeAuth
	tokens  *memTokens
	store   *session.Store
	clock   *manualClock
	harness *Harness
}

type fixtureOption func(*Options)

func withPath(path string) fixtureOption {
	return func(o *Options) { o.Path = path }
}

func withSize(w, h int) fixtureOption {
	return func(o *Options) {
		o.Width = w
		o.Height = h
	}
}

// newFixture builds a model over fakes. token, when set, is the persisted
// session restored by Init.
func newFixture(t *testing.T, token string, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		backend: newFakeBackend(),
		auth:    &fakeAuth{},
		tokens:  &memTokens{token: token},
		clock:   &manualClock{},
	}
	f.store = session.NewStore(f.auth, f.tokens)
	o := Options{
		Backend:    f.backend,
		Session:    f.store,
		Width:      100,
		Height:     24,
		After:      f.clock.After,
		CursorMode: cursor.CursorStatic,
	}
	for _, opt := range opts {
		opt(&o)
	}
	f.harness = NewHarness(NewModel(o))
	return f
}

// seed fills the backend with the channels and messages most tests use.
func (f *fixture) seed() {
	f.backend.addChannel(7, "general")
	f.backend.addChannel(8, "random")
	f.backend.addMessage(7, 41, "bob", "hello general")
	f.backend.addMessage(7, 42, "carol", "anyone around?")
	f.backend.addMessage(8, 51, "dave", "random chatter")
	f.backend.messages[7][1].ReplyCount = 1
	f.backend.setThread(api.Thread{
		Parent:  api.Message{ID: 42, ChannelID: 7, AuthorName: "carol", Content: "anyone around?", ReplyCount: 1},
		Replies: []api.Message{{ID: 43, ChannelID: 7, AuthorName: "bob", Content: "yes"}},
	})
}

func (f *fixture) model() *Model { return f.harness.Model() }

// assertSingleMessagePoll checks that at most one message loop is live and,
// when want is non-zero, that it targets want.
func (f *fixture) assertSingleMessagePoll(t *testing.T, want int64) {
	t.Helper()
	h, ok := f.model().Poller().Active(poll.KindMessages)
	if want == 0 {
		if ok {
			t.Fatalf("expected no message poll, got %+v", h)
		}
		return
	}
	if !ok || h.Target != want {
		t.Fatalf("expected message poll on %d, got %+v (live=%v)", want, h, ok)
	}
	// every still-scheduled message tick either belongs to h or is dead
	for _, pending := range f.clock.ticks()[poll.KindMessages] {
		if pending != h && f.model().Poller().Valid(pending) {
			t.Fatalf("second live message loop %+v alongside %+v", pending, h)
		}
	}
}

func typeText(h *Harness, text string) {
	for _, r := range text {
		if r == ' ' {
			h.Send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runeKey(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

var errBoom = errors.New("boom")
