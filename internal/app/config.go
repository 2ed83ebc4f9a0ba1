package app

import "time"

// Config describes user-provided application options.
type Config struct {
	ServerURL   string
	Path        string
	TokenStore  string
	TokenFile   string
	MessagePoll time.Duration
	UnreadPoll  time.Duration
	Timeout     time.Duration
	Width       int
	Height      int
	ShowFooter  bool
}
