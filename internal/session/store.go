// Package session owns the authenticated session: the token, the identity it
// belongs to and its persistence across restarts.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/atomicstack/pollchat/internal/api"
	"github.com/atomicstack/pollchat/internal/logging/events"
	"github.com/gookit/validate"
)

// Authenticator is the slice of the backend the session needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (api.LoginResult, error)
	Register(ctx context.Context, username, password string) error
	Logout(ctx context.Context, token string) error
}

// Session exists only while logged in.
type Session struct {
	Token    string
	UserID   int64
	Username string
}

type credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

const missingCredentials = "Please enter username and password"

// Store is safe for concurrent use; network calls run off the UI goroutine.
type Store struct {
	auth   Authenticator
	tokens TokenStore

	mu      sync.RWMutex
	current *Session
}

func NewStore(auth Authenticator, tokens TokenStore) *Store {
	return &Store{auth: auth, tokens: tokens}
}

// Current returns a copy of the live session.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

func (s *Store) LoggedIn() bool {
	_, ok := s.Current()
	return ok
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	sess, _ := s.Current()
	return sess.Token
}

// Restore treats any persisted token as a valid session. Expired tokens are
// found later, when a call fails with an *api.AuthError.
func (s *Store) Restore() (Session, bool) {
	token, err := s.tokens.Load()
	if err != nil {
		events.Session.PersistFailed("load", err)
	}
	token = strings.TrimSpace(token)
	events.Session.Restore(token != "")
	if token == "" {
		return Session{}, false
	}
	sess := Session{Token: token}
	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	return sess, true
}

// Login authenticates and persists the token. On failure nothing changes.
func (s *Store) Login(ctx context.Context, username, password string) (Session, error) {
	creds, err := checkCredentials(username, password)
	if err != nil {
		return Session{}, err
	}
	res, err := s.auth.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		events.Session.LoginFailed(creds.Username, err)
		return Session{}, err
	}
	sess := Session{Token: res.Token, UserID: res.UserID, Username: creds.Username}
	if err := s.tokens.Save(sess.Token); err != nil {
		// the session still works for this run
		events.Session.PersistFailed("save", err)
	}
	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	events.Session.Login(creds.Username)
	return sess, nil
}

// Register creates an account. It does not log in.
func (s *Store) Register(ctx context.Context, username, password string) error {
	creds, err := checkCredentials(username, password)
	if err != nil {
		return err
	}
	if err := s.auth.Register(ctx, creds.Username, creds.Password); err != nil {
		return err
	}
	events.Session.Register(creds.Username)
	return nil
}

// Logout tears down the local session before attempting the remote call, so
// a failing backend never keeps the user logged in. The returned error
// describes the remote call only.
func (s *Store) Logout(ctx context.Context) error {
	token := s.teardown()
	if token == "" {
		events.Session.Logout(nil)
		return nil
	}
	err := s.auth.Logout(ctx, token)
	events.Session.Logout(err)
	if err != nil {
		return fmt.Errorf("remote logout: %w", err)
	}
	return nil
}

// Invalidate drops the session after the backend rejected its token.
func (s *Store) Invalidate(reason string) {
	s.teardown()
	events.Session.Invalidate(reason)
}

func (s *Store) teardown() string {
	s.mu.Lock()
	var token string
	if s.current != nil {
		token = s.current.Token
	}
	s.current = nil
	s.mu.Unlock()
	if err := s.tokens.Delete(); err != nil {
		events.Session.PersistFailed("delete", err)
	}
	return token
}

// SetUsername records a rename confirmed by the backend.
func (s *Store) SetUsername(name string) {
	s.mu.Lock()
	if s.current != nil {
		s.current.Username = name
	}
	s.mu.Unlock()
}

func checkCredentials(username, password string) (credentials, error) {
	creds := credentials{Username: strings.TrimSpace(username), Password: password}
	if strings.TrimSpace(creds.Password) == "" {
		creds.Password = ""
	}
	v := validate.Struct(&creds)
	if !v.Validate() {
		return creds, &api.ValidationError{Reason: missingCredentials}
	}
	return creds, nil
}
