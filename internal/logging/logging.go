package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const defaultLogFile = "pollchat.log"

var (
	mu           sync.Mutex
	traceEnabled bool
	logPath      = defaultLogFile
	logFile      *os.File
	logger       = zerolog.Nop()
	override     io.Writer
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	zerolog.InterfaceMarshalFunc = json.Marshal
}

// Error writes errors to the shared log file.
func Error(err error) {
	if err == nil {
		return
	}
	l, ok := current()
	if !ok {
		return
	}
	l.Error().Err(err).Send()
}

// SetTraceEnabled toggles emission of structured trace entries.
func SetTraceEnabled(enabled bool) {
	mu.Lock()
	traceEnabled = enabled
	mu.Unlock()
}

// TraceEnabled reports whether Trace currently emits entries.
func TraceEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return traceEnabled
}

// Trace appends a structured JSON entry to the shared log when tracing is enabled.
func Trace(event string, payload interface{}) {
	if !TraceEnabled() {
		return
	}
	l, ok := current()
	if !ok {
		return
	}
	ev := l.Trace().Str("event", event)
	if payload != nil {
		ev = ev.Interface("payload", payload)
	}
	ev.Send()
}

// Configure sets the log destination. Empty values fall back to the default
// path. Directories are created automatically when missing.
func Configure(path string) {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	if strings.TrimSpace(path) == "" {
		logPath = defaultLogFile
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "unable to create log directory: %v\n", err)
		logPath = defaultLogFile
		return
	}
	logPath = path
}

// SetOutput redirects every entry to w, bypassing the log file. A nil writer
// restores file output. Tests use this to capture traces.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	override = w
}

// Close releases the log file, if open.
func Close() {
	mu.Lock()
	closeLocked()
	mu.Unlock()
}

func closeLocked() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logger = zerolog.Nop()
}

// current lazily opens the log file so nothing is created until the first
// entry is written.
func current() (zerolog.Logger, bool) {
	mu.Lock()
	defer mu.Unlock()
	if override != nil {
		return zerolog.New(override).Level(zerolog.TraceLevel).With().Timestamp().Logger(), true
	}
	if logFile == nil {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging failed: %v\n", err)
			return zerolog.Nop(), false
		}
		logFile = f
		logger = zerolog.New(f).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	}
	return logger, true
}
