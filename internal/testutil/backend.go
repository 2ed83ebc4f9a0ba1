// Package testutil provides an in-memory chat backend for tests that need a
// real HTTP round trip.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

const timestampLayout = "2006-01-02 15:04:05"

type user struct {
	id       int64
	name     string
	password string
}

type channel struct {
	id   int64
	name string
}

type message struct {
	id        int64
	channelID int64
	userID    int64
	content   string
	repliesTo int64
	at        time.Time
}

type reaction struct {
	messageID int64
	userID    int64
	emoji     string
}

// Fault overrides the response of one route.
type Fault struct {
	Status int
	Error  string
}

// Backend is a fake of the chat server. Routes, payloads and error strings
// follow the real backend closely enough for client tests.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	nextID    int64
	users     map[int64]*user
	sessions  map[string]int64
	channels  []*channel
	messages  []*message
	reactions []reaction
	lastRead  map[[2]int64]int64
	faults    map[string]Fault
	requests  []Request
	clock     time.Time
}

// Request records what the fake saw.
type Request struct {
	Method    string
	Path      string
	Query     string
	Token     string
	RequestID string
}

// NewBackend starts the fake server and stops it when t finishes.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		users:    make(map[int64]*user),
		sessions: make(map[string]int64),
		lastRead: make(map[[2]int64]int64),
		faults:   make(map[string]Fault),
		clock:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL clients should use.
func (b *Backend) URL() string { return b.Server.URL }

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.record)
	r.Use(b.fault)

	r.Post("/api/auth/register", b.register)
	r.Post("/api/auth/login", b.login)
	r.Post("/api/auth/logout", b.logout)

	r.Group(func(r chi.Router) {
		r.Use(b.requireAuth)
		r.Post("/api/users/update_username", b.updateUsername)
		r.Post("/api/users/update_password", b.updatePassword)
		r.Get("/api/channels", b.listChannels)
		r.Post("/api/channels", b.createChannel)
		r.Get("/api/unread", b.unread)
		r.Get("/api/messages", b.listMessages)
		r.Post("/api/messages", b.postMessage)
		r.Get("/api/messages/thread", b.thread)
		r.Post("/api/reactions", b.react)
	})
	return r
}

// AddUser registers an account directly and returns its id.
func (b *Backend) AddUser(name, password string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(name, password)
}

// AddChannel creates a channel and returns its id.
func (b *Backend) AddChannel(name string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addChannelLocked(name)
}

// AddMessage posts as userID. A non-zero parent makes it a reply.
func (b *Backend) AddMessage(channelID, userID int64, content string, parent int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addMessageLocked(channelID, userID, content, parent)
}

// IssueToken creates a session for userID without a login round trip.
func (b *Backend) IssueToken(userID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := uuid.NewString()
	b.sessions[token] = userID
	return token
}

// Revoke drops a token as if it expired server-side.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	delete(b.sessions, token)
	b.mu.Unlock()
}

// SessionCount reports live server-side sessions.
func (b *Backend) SessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// SetFault makes every request to "METHOD /path" fail. A zero Fault clears it.
func (b *Backend) SetFault(route string, f Fault) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f.Status == 0 {
		delete(b.faults, route)
		return
	}
	b.faults[route] = f
}

// Requests returns a copy of every request seen so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Token:     bearer(r),
			RequestID: r.Header.Get("X-Request-Id"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) fault(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		f, ok := b.faults[r.Method+" "+r.URL.Path]
		b.mu.Unlock()
		if ok {
			if f.Error == "" {
				w.WriteHeader(f.Status)
				return
			}
			writeError(w, f.Status, f.Error)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.userFor(r); !ok {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) userFor(r *http.Request) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.sessions[bearer(r)]
	return id, ok
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if !decode(w, r, &body) {
		return
	}
	name := strings.TrimSpace(body["username"])
	if name == "" || body["password"] == "" {
		writeError(w, http.StatusBadRequest, "Username and password cannot be empty")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.userByNameLocked(name) != nil {
		writeError(w, http.StatusBadRequest, "Username already taken")
		return
	}
	b.addUserLocked(name, body["password"])
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if !decode(w, r, &body) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.userByNameLocked(body["username"])
	if u == nil || u.password != body["password"] {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	token := uuid.NewString()
	b.sessions[token] = u.id
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "token": token})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delete(b.sessions, bearer(r))
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) updateUsername(w http.ResponseWriter, r *http.Request) {
	uid, _ := b.userFor(r)
	var body map[string]string
	if !decode(w, r, &body) {
		return
	}
	name := strings.TrimSpace(body["new_username"])
	if name == "" {
		writeError(w, http.StatusBadRequest, "Username cannot be empty")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.userByNameLocked(name) != nil {
		writeError(w, http.StatusBadRequest, "Username already taken")
		return
	}
	b.users[uid].name = name
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) updatePassword(w http.ResponseWriter, r *http.Request) {
	uid, _ := b.userFor(r)
	var body map[string]string
	if !decode(w, r, &body) {
		return
	}
	if body["new_password"] == "" {
		writeError(w, http.StatusBadRequest, "Password cannot be empty")
		return
	}
	b.mu.Lock()
	b.users[uid].password = body["new_password"]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) listChannels(w http.ResponseWriter, r *http.Request) {
	uid, _ := b.userFor(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	unread := b.unreadLocked(uid)
	out := make([]map[string]interface{}, 0, len(b.channels))
	for _, ch := range b.channels {
		out = append(out, map[string]interface{}{"id": ch.id, "name": ch.name, "unread_count": unread[ch.id]})
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createChannel(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if !decode(w, r, &body) {
		return
	}
	name := strings.TrimSpace(body["name"])
	if name == "" {
		writeError(w, http.StatusBadRequest, "Channel name cannot be empty")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.channels {
		if ch.name == name {
			writeError(w, http.StatusBadRequest, "Channel name already exists")
			return
		}
	}
	b.addChannelLocked(name)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) unread(w http.ResponseWriter, r *http.Request) {
	uid, _ := b.userFor(r)
	b.mu.Lock()
	counts := b.unreadLocked(uid)
	b.mu.Unlock()
	out := make(map[string]int, len(counts))
	for id, n := range counts {
		out[strconv.FormatInt(id, 10)] = n
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) listMessages(w http.ResponseWriter, r *http.Request) {
	uid, _ := b.userFor(r)
	raw := r.URL.Query().Get("channel_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "channel_id is required")
		return
	}
	chID, _ := strconv.ParseInt(raw, 10, 64)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channelLocked(chID) == nil {
		writeError(w, http.StatusNotFound, "Channel not found")
		return
	}
	out := []map[string]interface{}{}
	var last int64
	for _, m := range b.messages {
		if m.channelID != chID || m.repliesTo != 0 {
			continue
		}
		entry := b.messageJSONLocked(m)
		entry["reply_count"] = b.replyCountLocked(m.id)
		out = append(out, entry)
		last = m.id
	}
	if last != 0 {
		b.lastRead[[2]int64{uid, chID}] = last
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) postMessage(w http.ResponseWriter, r *http.Request) {
	uid, _ := b.userFor(r)
	var body struct {
		ChannelID *int64  `json:"channel_id"`
		Content   *string `json:"content"`
		RepliesTo *int64  `json:"replies_to"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.ChannelID == nil || body.Content == nil {
		writeError(w, http.StatusBadRequest, "channel_id and content are required")
		return
	}
	content := strings.TrimSpace(*body.Content)
	if content == "" {
		writeError(w, http.StatusBadRequest, "Message content cannot be empty")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channelLocked(*body.ChannelID) == nil {
		writeError(w, http.StatusNotFound, "Channel not found")
		return
	}
	var parent int64
	if body.RepliesTo != nil && *body.RepliesTo != 0 {
		if b.messageLocked(*body.RepliesTo) == nil {
			writeError(w, http.StatusNotFound, "Parent message not found")
			return
		}
		parent = *body.RepliesTo
	}
	id := b.addMessageLocked(*body.ChannelID, uid, content, parent)
	b.lastRead[[2]int64{uid, *body.ChannelID}] = id
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message_id": id})
}

func (b *Backend) thread(w http.ResponseWriter, r *http.Request) {
	uid, _ := b.userFor(r)
	raw := r.URL.Query().Get("parent_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "parent_id is required")
		return
	}
	pid, _ := strconv.ParseInt(raw, 10, 64)
	b.mu.Lock()
	defer b.mu.Unlock()
	parent := b.messageLocked(pid)
	if parent == nil {
		writeError(w, http.StatusNotFound, "Parent message not found")
		return
	}
	replies := []map[string]interface{}{}
	last := parent.id
	for _, m := range b.messages {
		if m.repliesTo != pid {
			continue
		}
		replies = append(replies, b.messageJSONLocked(m))
		last = m.id
	}
	b.lastRead[[2]int64{uid, parent.channelID}] = last
	p := b.messageJSONLocked(parent)
	p["channel_id"] = parent.channelID
	writeJSON(w, http.StatusOK, map[string]interface{}{"parent": p, "replies": replies})
}

func (b *Backend) react(w http.ResponseWriter, r *http.Request) {
	uid, _ := b.userFor(r)
	var body struct {
		MessageID *int64  `json:"message_id"`
		Emoji     *string `json:"emoji"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.MessageID == nil || body.Emoji == nil {
		writeError(w, http.StatusBadRequest, "message_id and emoji are required")
		return
	}
	emoji := strings.TrimSpace(*body.Emoji)
	if emoji == "" {
		writeError(w, http.StatusBadRequest, "Emoji cannot be empty")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.messageLocked(*body.MessageID)
	if m == nil {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	b.reactions = append(b.reactions, reaction{messageID: m.id, userID: uid, emoji: emoji})
	b.lastRead[[2]int64{uid, m.channelID}] = m.id
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) addUserLocked(name, password string) int64 {
	b.nextID++
	b.users[b.nextID] = &user{id: b.nextID, name: name, password: password}
	return b.nextID
}

func (b *Backend) addChannelLocked(name string) int64 {
	b.nextID++
	b.channels = append(b.channels, &channel{id: b.nextID, name: name})
	return b.nextID
}

func (b *Backend) addMessageLocked(channelID, userID int64, content string, parent int64) int64 {
	b.nextID++
	b.clock = b.clock.Add(time.Second)
	b.messages = append(b.messages, &message{
		id:        b.nextID,
		channelID: channelID,
		userID:    userID,
		content:   content,
		repliesTo: parent,
		at:        b.clock,
	})
	return b.nextID
}

func (b *Backend) userByNameLocked(name string) *user {
	for _, u := range b.users {
		if u.name == name {
			return u
		}
	}
	return nil
}

func (b *Backend) channelLocked(id int64) *channel {
	for _, ch := range b.channels {
		if ch.id == id {
			return ch
		}
	}
	return nil
}

func (b *Backend) messageLocked(id int64) *message {
	for _, m := range b.messages {
		if m.id == id {
			return m
		}
	}
	return nil
}

func (b *Backend) replyCountLocked(id int64) int {
	n := 0
	for _, m := range b.messages {
		if m.repliesTo == id {
			n++
		}
	}
	return n
}

func (b *Backend) messageJSONLocked(m *message) map[string]interface{} {
	reactions := map[string][]string{}
	for _, rx := range b.reactions {
		if rx.messageID != m.id {
			continue
		}
		name := ""
		if u := b.users[rx.userID]; u != nil {
			name = u.name
		}
		reactions[rx.emoji] = append(reactions[rx.emoji], name)
	}
	author := ""
	if u := b.users[m.userID]; u != nil {
		author = u.name
	}
	return map[string]interface{}{
		"id":        m.id,
		"content":   m.content,
		"user_id":   m.userID,
		"username":  author,
		"timestamp": m.at.Format(timestampLayout),
		"reactions": reactions,
	}
}

// unreadLocked counts messages past the user's last read marker, per channel.
func (b *Backend) unreadLocked(uid int64) map[int64]int {
	out := make(map[int64]int, len(b.channels))
	for _, ch := range b.channels {
		id := ch.id
		marker := b.lastRead[[2]int64{uid, id}]
		n := 0
		for _, m := range b.messages {
			if m.channelID == id && m.id > marker {
				n++
			}
		}
		out[id] = n
	}
	return out
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
