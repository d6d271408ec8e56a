package tasks

import "time"

// Config tunes the background download queue. Zero fields take the value
// from DefaultConfig.
type Config struct {
	Workers         int           // concurrent downloads
	ReleaseAfter    time.Duration // claimed tasks older than this are handed out again
	CleanupInterval time.Duration // how often expired task rows are purged
	DrainTimeout    time.Duration // how long Close waits for running downloads
}

// DefaultConfig returns the queue settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
		DrainTimeout:    30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = def.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = def.DrainTimeout
	}
	return c
}
