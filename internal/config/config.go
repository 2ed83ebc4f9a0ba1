package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atomicstack/pollchat/internal/app"
	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

// Config captures runtime configuration for the application.
type Config struct {
	App     app.Config
	Logging Logging
	File    string
	Flags   map[string]string
	Args    []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

const (
	envServer      = "POLLCHAT_SERVER"
	envPath        = "POLLCHAT_PATH"
	envTokenStore  = "POLLCHAT_TOKEN_STORE"
	envTokenFile   = "POLLCHAT_TOKEN_FILE"
	envMessagePoll = "POLLCHAT_MESSAGE_POLL"
	envUnreadPoll  = "POLLCHAT_UNREAD_POLL"
	envTimeout     = "POLLCHAT_TIMEOUT"
	envWidth       = "POLLCHAT_WIDTH"
	envHeight      = "POLLCHAT_HEIGHT"
	envShowFooter  = "POLLCHAT_FOOTER"
	envTrace       = "POLLCHAT_TRACE"
	envLogFile     = "POLLCHAT_LOG_FILE"
	envConfigFile  = "POLLCHAT_CONFIG"
)

const (
	DefaultServer      = "http://localhost:5000"
	DefaultMessagePoll = 500 * time.Millisecond
	DefaultUnreadPoll  = time.Second
	DefaultTimeout     = 10 * time.Second
)

// flagEnv pairs each flag that may also come from the config file with the
// environment variable that overrides it.
var flagEnv = map[string]string{
	"server":       envServer,
	"path":         envPath,
	"token-store":  envTokenStore,
	"token-file":   envTokenFile,
	"message-poll": envMessagePoll,
	"unread-poll":  envUnreadPoll,
	"timeout":      envTimeout,
	"width":        envWidth,
	"height":       envHeight,
	"footer":       envShowFooter,
	"trace":        envTrace,
	"log-file":     envLogFile,
}

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment. Precedence is
// flag, then environment, then config file, then built-in default.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	fs := flag.NewFlagSet("pollchat", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	server := fs.String("server", envOrDefault(env, envServer, DefaultServer), "base URL of the chat backend")
	path := fs.String("path", envOrDefault(env, envPath, ""), "initial location, e.g. /channel/7 or /thread/42")
	tokenStore := fs.String("token-store", envOrDefault(env, envTokenStore, "keyring"), "where the session token is kept (keyring or file)")
	tokenFile := fs.String("token-file", envOrDefault(env, envTokenFile, ""), "token file used by --token-store=file")
	messagePoll := fs.Duration("message-poll", envOrDuration(env, envMessagePoll, DefaultMessagePoll), "interval between channel message refreshes")
	unreadPoll := fs.Duration("unread-poll", envOrDuration(env, envUnreadPoll, DefaultUnreadPoll), "interval between unread count refreshes")
	timeout := fs.Duration("timeout", envOrDuration(env, envTimeout, DefaultTimeout), "per-request timeout")
	width := fs.Int("width", envOrInt(env, envWidth, 0), "desired viewport width in cells (0 uses terminal width)")
	height := fs.Int("height", envOrInt(env, envHeight, 0), "desired viewport height in rows (0 uses terminal height)")
	footer := fs.Bool("footer", envOrBool(env, envShowFooter, false), "enable footer hint row (disabled by default)")
	trace := fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file")
	configFile := fs.String("config", envOrDefault(env, envConfigFile, ""), "optional YAML config file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(*configFile) != "" {
		if err := applyFile(fs, *configFile, env); err != nil {
			return Config{}, err
		}
	}

	if *width < 0 {
		return Config{}, fmt.Errorf("width must be >= 0 (got %d)", *width)
	}
	if *height < 0 {
		return Config{}, fmt.Errorf("height must be >= 0 (got %d)", *height)
	}

	cfg := Config{
		App: app.Config{
			ServerURL:   strings.TrimSpace(*server),
			Path:        strings.TrimSpace(*path),
			TokenStore:  strings.ToLower(strings.TrimSpace(*tokenStore)),
			TokenFile:   *tokenFile,
			MessagePoll: *messagePoll,
			UnreadPoll:  *unreadPoll,
			Timeout:     *timeout,
			Width:       *width,
			Height:      *height,
			ShowFooter:  *footer,
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		File: *configFile,
		Flags: map[string]string{
			"server":      *server,
			"path":        *path,
			"tokenStore":  *tokenStore,
			"tokenFile":   *tokenFile,
			"messagePoll": messagePoll.String(),
			"unreadPoll":  unreadPoll.String(),
			"timeout":     timeout.String(),
			"width":       strconv.Itoa(*width),
			"height":      strconv.Itoa(*height),
			"footer":      strconv.FormatBool(*footer),
			"trace":       strconv.FormatBool(*trace),
			"logFile":     *logFile,
			"config":      *configFile,
		},
		Args: append([]string(nil), args...),
	}

	return cfg, nil
}

// applyFile fills flags that neither the command line nor the environment
// set from the YAML file at path.
func applyFile(fs *flag.FlagSet, path string, env map[string]string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	for name, envKey := range flagEnv {
		if explicit[name] || !v.IsSet(name) {
			continue
		}
		if val, ok := env[envKey]; ok && strings.TrimSpace(val) != "" {
			continue
		}
		if err := fs.Set(name, v.GetString(name)); err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, name, err)
		}
	}
	return nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate ensures required minimum configuration is present.
func Validate(cfg Config) error {
	v := validate.Map(map[string]interface{}{
		"server":     cfg.App.ServerURL,
		"tokenStore": cfg.App.TokenStore,
	})
	v.StringRule("server", "required|fullUrl")
	v.StringRule("tokenStore", "required|in:keyring,file")
	if !v.Validate() {
		return errors.New(v.Errors.One())
	}
	for name, d := range map[string]time.Duration{
		"message-poll": cfg.App.MessagePoll,
		"unread-poll":  cfg.App.UnreadPoll,
		"timeout":      cfg.App.Timeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0 (got %s)", name, d)
		}
	}
	return nil
}
