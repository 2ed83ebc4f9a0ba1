package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/atomicstack/pollchat/internal/api"
	"github.com/atomicstack/pollchat/internal/session"
	"github.com/atomicstack/pollchat/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) error {
	tokens, err := session.OpenTokenStore(cfg.TokenStore, cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := NewModel(ctx, cfg, tokens)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// NewModel wires the API client, the session store and the UI model.
func NewModel(ctx context.Context, cfg Config, tokens session.TokenStore) *ui.Model {
	client := api.New(cfg.ServerURL, api.WithTimeout(cfg.Timeout))
	store := session.NewStore(client, tokens)
	client.SetTokenSource(store)
	return ui.NewModel(ui.Options{
		Backend:     client,
		Session:     store,
		Path:        cfg.Path,
		Width:       cfg.Width,
		Height:      cfg.Height,
		ShowFooter:  cfg.ShowFooter,
		MessagePoll: cfg.MessagePoll,
		UnreadPoll:  cfg.UnreadPoll,
		Context:     ctx,
	})
}
