package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/pollchat/internal/session"
	"github.com/atomicstack/pollchat/internal/state"
	"github.com/atomicstack/pollchat/internal/testutil"
)

func testConfig(url string) Config {
	return Config{
		ServerURL:   url,
		TokenStore:  "file",
		MessagePoll: time.Second,
		UnreadPoll:  time.Second,
		Timeout:     time.Second,
		Width:       80,
		Height:      20,
	}
}

func TestNewModelStartsLoggedOut(t *testing.T) {
	backend := testutil.NewBackend(t)
	tokens := session.FileStore{Path: filepath.Join(t.TempDir(), "session.json")}

	model := NewModel(context.Background(), testConfig(backend.URL()), tokens)
	model.Init()

	if got := model.ViewState(); got != state.LoggedOut(state.SubviewLogin) {
		t.Fatalf("expected login screen, got %s", got)
	}
	if !strings.Contains(model.View(), "Login") {
		t.Fatalf("expected login form, view =\n%s", model.View())
	}
}

func TestNewModelRestoresPersistedToken(t *testing.T) {
	backend := testutil.NewBackend(t)
	tokens := session.FileStore{Path: filepath.Join(t.TempDir(), "session.json")}
	if err := tokens.Save("persisted"); err != nil {
		t.Fatalf("save token: %v", err)
	}

	cfg := testConfig(backend.URL())
	cfg.Path = "/channel/3"
	model := NewModel(context.Background(), cfg, tokens)
	model.Init()

	if got := model.ViewState(); got != state.ChannelList() {
		t.Fatalf("expected restored session to show the channel list, got %s", got)
	}
}
