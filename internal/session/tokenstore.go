package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/zalando/go-keyring"
)

// StorageKey is the well-known key the session token is persisted under.
const StorageKey = "pollchat_auth_token"

const keyringService = "pollchat"

// TokenStore persists the single session token across restarts. Load
// returns "" with a nil error when nothing is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Delete() error
}

// KeyringStore keeps the token in the OS credential store.
type KeyringStore struct {
	Service string
	Key     string
}

func NewKeyringStore() KeyringStore {
	return KeyringStore{Service: keyringService, Key: StorageKey}
}

func (s KeyringStore) Load() (string, error) {
	token, err := keyring.Get(s.Service, s.Key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return token, nil
}

func (s KeyringStore) Save(token string) error {
	if err := keyring.Set(s.Service, s.Key, token); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func (s KeyringStore) Delete() error {
	err := keyring.Delete(s.Service, s.Key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

// FileStore keeps the token in a JSON file readable only by the owner.
type FileStore struct {
	Path string
}

type tokenFile map[string]string

func (s FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	var entries tokenFile
	if err := json.Unmarshal(data, &entries); err != nil {
		return "", fmt.Errorf("decode token file %s: %w", s.Path, err)
	}
	return entries[StorageKey], nil
}

func (s FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.Marshal(tokenFile{StorageKey: token})
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (s FileStore) Delete() error {
	err := os.Remove(s.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// DefaultFilePath places the token file under the user's config directory.
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "pollchat", "session.json")
}

// OpenTokenStore maps the --token-store setting to a backend.
func OpenTokenStore(kind, path string) (TokenStore, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "keyring":
		return NewKeyringStore(), nil
	case "file":
		if strings.TrimSpace(path) == "" {
			path = DefaultFilePath()
		}
		return FileStore{Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown token store %q", kind)
	}
}
