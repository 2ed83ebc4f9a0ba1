package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultServer, cfg.App.ServerURL)
	assert.Equal(t, "keyring", cfg.App.TokenStore)
	assert.Equal(t, DefaultMessagePoll, cfg.App.MessagePoll)
	assert.Equal(t, DefaultUnreadPoll, cfg.App.UnreadPoll)
	assert.Equal(t, DefaultTimeout, cfg.App.Timeout)
	assert.Empty(t, cfg.App.Path)
	assert.False(t, cfg.Logging.Trace)
	assert.NoError(t, Validate(cfg))
}

func TestLoadArgsEnvironment(t *testing.T) {
	cfg, err := LoadArgs(nil, []string{
		"POLLCHAT_SERVER=http://chat.example:8080",
		"POLLCHAT_PATH=/channel/7",
		"POLLCHAT_MESSAGE_POLL=250ms",
		"POLLCHAT_TRACE=true",
		"POLLCHAT_TOKEN_STORE=file",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://chat.example:8080", cfg.App.ServerURL)
	assert.Equal(t, "/channel/7", cfg.App.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.App.MessagePoll)
	assert.Equal(t, "file", cfg.App.TokenStore)
	assert.True(t, cfg.Logging.Trace)
}

func TestLoadArgsFlagBeatsEnvironment(t *testing.T) {
	cfg, err := LoadArgs(
		[]string{"--server", "http://flag.example", "--unread-poll", "2s"},
		[]string{"POLLCHAT_SERVER=http://env.example", "POLLCHAT_UNREAD_POLL=5s"},
	)
	require.NoError(t, err)

	assert.Equal(t, "http://flag.example", cfg.App.ServerURL)
	assert.Equal(t, 2*time.Second, cfg.App.UnreadPoll)
	assert.Equal(t, []string{"--server", "http://flag.example", "--unread-poll", "2s"}, cfg.Args)
}

func TestLoadArgsConfigFilePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pollchat.yaml")
	body := "server: http://file.example\n" +
		"message-poll: 750ms\n" +
		"unread-poll: 3s\n" +
		"footer: true\n" +
		"path: /thread/42\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadArgs(
		[]string{"--config", path, "--path", "/channel/1"},
		[]string{"POLLCHAT_UNREAD_POLL=4s"},
	)
	require.NoError(t, err)

	assert.Equal(t, "http://file.example", cfg.App.ServerURL, "file fills unset flag")
	assert.Equal(t, 750*time.Millisecond, cfg.App.MessagePoll)
	assert.Equal(t, 4*time.Second, cfg.App.UnreadPoll, "environment beats file")
	assert.Equal(t, "/channel/1", cfg.App.Path, "flag beats file")
	assert.True(t, cfg.App.ShowFooter)
	assert.Equal(t, path, cfg.File)
}

func TestLoadArgsMissingConfigFile(t *testing.T) {
	_, err := LoadArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, nil)
	assert.Error(t, err)
}

func TestLoadArgsRejectsNegativeSize(t *testing.T) {
	_, err := LoadArgs([]string{"--width", "-1"}, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := LoadArgs(nil, nil)
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty server", func(c *Config) { c.App.ServerURL = "" }},
		{"relative server", func(c *Config) { c.App.ServerURL = "localhost" }},
		{"unknown token store", func(c *Config) { c.App.TokenStore = "vault" }},
		{"zero message poll", func(c *Config) { c.App.MessagePoll = 0 }},
		{"negative unread poll", func(c *Config) { c.App.UnreadPoll = -time.Second }},
		{"zero timeout", func(c *Config) { c.App.Timeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
