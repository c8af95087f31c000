// SPDX-License-Identifier: MIT

// Package config loads the service configuration with precedence
// ENV > file > defaults, and owns the registry of bot settings and
// their first-creation defaults.
package config

import (
	"time"
)

// Config is the resolved service configuration of the botvar daemon.
// It is distinct from the runtime settings document managed by the
// store: Config is fixed for the process lifetime, settings mutate.
type Config struct {
	ListenAddr string
	DataDir    string
	LogLevel   string
	LogService string
	Version    string

	// WatchDocument enables the fsnotify watcher on the settings
	// document so external edits are folded back into the cache.
	WatchDocument bool

	// Restart controls the tiered restart mechanism.
	RestartPort           int
	RestartPrimaryDelay   time.Duration
	RestartFallbackDelay  time.Duration
	RestartEmergencyDelay time.Duration

	// Rate limit for the control API, requests per minute per IP.
	RateLimitPerMinute int

	// Heroku credentials. Both must be present for remote sync; when
	// either is missing the store runs local-only.
	HerokuAPIKey  string
	HerokuAppName string
	RemoteTimeout time.Duration
}

// RemoteConfigured reports whether both Heroku credentials are present.
func (c Config) RemoteConfigured() bool {
	return c.HerokuAPIKey != "" && c.HerokuAppName != ""
}
