package ui

import (
	"context"

	"github.com/atomicstack/pollchat/internal/api"
)

// Backend is the slice of the API client the controller drives. Auth calls
// go through the session store instead.
type Backend interface {
	Channels(ctx context.Context) ([]api.Channel, error)
	CreateChannel(ctx context.Context, name string) error
	Messages(ctx context.Context, channelID int64) ([]api.Message, error)
	PostMessage(ctx context.Context, msg api.NewMessage) (int64, error)
	Thread(ctx context.Context, parentID int64) (api.Thread, error)
	React(ctx context.Context, messageID int64, emoji string) error
	Unread(ctx context.Context) (map[int64]int, error)
	UpdateUsername(ctx context.Context, username string) error
	UpdatePassword(ctx context.Context, password string) error
}

var _ Backend = (*api.Client)(nil)
