package bot

import "time"

// Config represents the configuration for the bot
type Config struct {
	Token string
	// ChatID is the only chat the bot answers; it is also where
	// notifications go.
	ChatID int64
	// Long-poll timeout for getUpdates
	PollTimeout time.Duration
	// Number of due cards listed by /due
	DueLimit int
	// Per-command deadline, covers /sync pushes
	CommandTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() Config {
	return Config{
		PollTimeout:    60 * time.Second,
		DueLimit:       5,
		CommandTimeout: 15 * time.Second,
	}
}
