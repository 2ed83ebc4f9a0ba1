package api

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Channel is a snapshot of one channel as reported by GET /api/channels.
type Channel struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	UnreadCount int    `json:"unread_count"`
}

// Message is one channel message or thread reply. ReplyCount and Reactions
// are server-computed; the client never derives them.
type Message struct {
	ID         int64               `json:"id"`
	ChannelID  int64               `json:"channel_id,omitempty"`
	UserID     int64               `json:"user_id,omitempty"`
	AuthorName string              `json:"username"`
	Content    string              `json:"content"`
	Timestamp  Timestamp           `json:"timestamp"`
	ReplyCount int                 `json:"reply_count"`
	RepliesTo  *int64              `json:"replies_to,omitempty"`
	Reactions  map[string][]string `json:"reactions"`
}

// ReactionEmojis returns the emoji keys of m.Reactions in a stable order.
func (m Message) ReactionEmojis() []string {
	if len(m.Reactions) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m.Reactions))
	for emoji, users := range m.Reactions {
		if len(users) == 0 {
			continue
		}
		keys = append(keys, emoji)
	}
	sort.Strings(keys)
	return keys
}

// Thread is the payload of GET /api/messages/thread.
type Thread struct {
	Parent  Message   `json:"parent"`
	Replies []Message `json:"replies"`
}

// NewMessage is the body of POST /api/messages. RepliesTo is set for thread
// replies.
type NewMessage struct {
	ChannelID int64  `json:"channel_id"`
	Content   string `json:"content"`
	RepliesTo *int64 `json:"replies_to,omitempty"`
}

// LoginResult carries the token issued by POST /api/auth/login.
type LoginResult struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id,omitempty"`
}

// Timestamp accepts epoch milliseconds or the textual timestamps the backend
// stores ("2006-01-02 15:04:05" in UTC, or RFC 3339).
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
}

// Millis returns the timestamp as epoch milliseconds.
func (t Timestamp) Millis() int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp %s: %w", data, err)
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unrecognised format", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.Millis(), 10)), nil
}
