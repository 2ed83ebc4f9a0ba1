package ui

import (
	"context"
	"reflect"
	"time"

	"github.com/atomicstack/pollchat/internal/data/dispatcher"
	"github.com/atomicstack/pollchat/internal/history"
	"github.com/atomicstack/pollchat/internal/logging/events"
	"github.com/atomicstack/pollchat/internal/poll"
	"github.com/atomicstack/pollchat/internal/session"
	"github.com/atomicstack/pollchat/internal/state"
	"github.com/atomicstack/pollchat/internal/theme"
	"github.com/atomicstack/pollchat/internal/ui/command"
	"github.com/atomicstack/pollchat/internal/ui/form"
	uistate "github.com/atomicstack/pollchat/internal/ui/state"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type level = uistate.Level

const (
	channelLevelID = "channels"
	messageLevelID = "messages"
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

type focusPane int

const (
	focusChannels focusPane = iota
	focusMessages
	focusCompose
)

func (f focusPane) String() string {
	switch f {
	case focusMessages:
		return "messages"
	case focusCompose:
		return "compose"
	default:
		return "channels"
	}
}

// Options configures NewModel.
type Options struct {
	Backend Backend
	Session *session.Store
	// Path is the start location, such as /channel/7 or /thread/42.
	Path        string
	Width       int
	Height      int
	ShowFooter  bool
	MessagePoll time.Duration
	UnreadPoll  time.Duration
	// After replaces the poll timer source.
	After poll.AfterFunc
	// CursorMode applies to every text input. Tests use cursor.CursorStatic
	// so no blink timers are scheduled.
	CursorMode cursor.Mode
	Context    context.Context
}

// pendingNav is the navigation waiting on its fetch. Only the latest intent
// may complete.
type pendingNav struct {
	seq    uint64
	kind   string
	target int64
	push   bool
}

// Model implements the Bubble Tea model for the chat client. It is the only
// writer of the view state; the poll scheduler owns the poll handles.
type Model struct {
	view       state.View
	history    *history.Stack
	poller     *poll.Scheduler
	session    *session.Store
	backend    Backend
	bus        *command.Bus
	dispatcher *dispatcher.Dispatcher

	channels   state.ChannelStore
	transcript state.TranscriptStore
	thread     state.ThreadStore

	pending      *pendingNav
	navSeq       uint64
	epoch        uint64 // bumped by teardown; results from older sessions are dropped
	initialEntry history.Entry

	channelLevel *level
	messageLevel *level
	focus        focusPane
	compose      textinput.Model
	auth         *form.Form
	prompt       *form.Form
	cursorMode   cursor.Mode

	loading      bool
	pendingLabel string
	errMsg       string
	infoMsg      string
	infoExpire   time.Time
	width        int
	height       int
	fixedWidth   bool
	fixedHeight  bool
	showFooter   bool

	filterCursor      cursor.Model
	filterCursorDirty bool

	handlers map[reflect.Type]msgHandler
}

// NewModel builds the controller in the logged-out state. Init restores a
// persisted session, if any.
func NewModel(opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	channels := state.NewChannelStore()
	transcript := state.NewTranscriptStore()
	m := &Model{
		view:         state.LoggedOut(state.SubviewLogin),
		history:      history.NewStack(),
		session:      opts.Session,
		backend:      opts.Backend,
		bus:          command.New(ctx),
		dispatcher:   dispatcher.New(channels, transcript),
		channels:     channels,
		transcript:   transcript,
		thread:       state.NewThreadStore(),
		initialEntry: history.ParsePath(opts.Path),
		channelLevel: newLevel(channelLevelID, "Channels", nil),
		messageLevel: newLevel(messageLevelID, "Messages", nil),
		showFooter:   opts.ShowFooter,
		cursorMode:   opts.CursorMode,
	}
	m.poller = poll.NewScheduler(
		poll.WithInterval(poll.KindMessages, opts.MessagePoll),
		poll.WithInterval(poll.KindUnread, opts.UnreadPoll),
		poll.WithAfter(opts.After),
		poll.WithContext(ctx),
		poll.WithFetcher(poll.KindMessages, m.fetchMessages),
		poll.WithFetcher(poll.KindUnread, m.fetchUnread),
	)
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	m.auth = m.newForm(form.NewLogin())
	m.compose = textinput.New()
	m.compose.Prompt = "> "
	m.compose.CharLimit = 2000
	m.compose.Cursor.SetMode(opts.CursorMode)

	c := cursor.New()
	if styles.Cursor != nil {
		c.Style = styles.Cursor.Copy()
	}
	if styles.Filter != nil {
		c.TextStyle = styles.Filter.Copy()
	}
	c.SetChar(" ")
	c.SetMode(opts.CursorMode)
	m.filterCursor = c
	m.registerHandlers()
	events.App.InitialPath(opts.Path, m.initialEntry.Path())
	return m
}

func newLevel(id, title string, items []uistate.Item) *level {
	return uistate.NewLevel(id, title, items)
}

// Init restores a persisted session. A stored token counts as logged in;
// the first call the backend rejects logs the user out again.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.filterCursor.Focus()}
	if m.session != nil {
		if _, ok := m.session.Restore(); ok {
			cmds = append(cmds, m.enterLoggedIn())
		}
	}
	return tea.Batch(cmds...)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if cmd := m.updateFilterCursorModel(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if _, ok := msg.(cursor.BlinkMsg); ok {
		cmds = append(cmds, m.forwardBlink(msg)...)
		return m, m.finishUpdate(cmds)
	}
	if handled, cmd := m.handleActiveForm(msg); handled {
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, m.finishUpdate(cmds)
	}
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):           m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}):    m.handleWindowSizeMsg,
		reflect.TypeOf(loginResultMsg{}):       m.handleLoginResultMsg,
		reflect.TypeOf(registerResultMsg{}):    m.handleRegisterResultMsg,
		reflect.TypeOf(logoutDoneMsg{}):        m.handleLogoutDoneMsg,
		reflect.TypeOf(channelsLoadedMsg{}):    m.handleChannelsLoadedMsg,
		reflect.TypeOf(channelOpenedMsg{}):     m.handleChannelOpenedMsg,
		reflect.TypeOf(threadOpenedMsg{}):      m.handleThreadOpenedMsg,
		reflect.TypeOf(transcriptRefreshMsg{}): m.handleTranscriptRefreshMsg,
		reflect.TypeOf(threadRefreshMsg{}):     m.handleThreadRefreshMsg,
		reflect.TypeOf(actionResultMsg{}):      m.handleActionResultMsg,
		reflect.TypeOf(poll.TickMsg{}):         m.handlePollTickMsg,
		reflect.TypeOf(poll.Result{}):          m.handlePollResultMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if m.filterCursorDirty {
		m.filterCursorDirty = false
		m.filterCursor.Blink = false
		if cmd := m.filterCursor.BlinkCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) newForm(f *form.Form) *form.Form {
	f.SetCursorMode(m.cursorMode)
	return f
}

// View state accessors, used by the renderer and tests.

func (m *Model) ViewState() state.View { return m.view }

func (m *Model) History() *history.Stack { return m.history }

func (m *Model) Poller() *poll.Scheduler { return m.poller }

func (m *Model) setView(v state.View) {
	if v == m.view {
		return
	}
	m.view = v
	events.Nav.Apply(m.navSeq, v.String())
	// badges hide on the open channel
	m.syncChannelLevel()
}
