// SPDX-License-Identifier: MIT

// Package restart implements the tiered restart mechanism: a local
// control-endpoint request, then a platform dyno recycle, then process
// termination as the last resort.
package restart

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/soleks/botvar/internal/log"
)

// DynoRestarter is the optional tier-2 collaborator. Implemented by
// heroku.Client.
type DynoRestarter interface {
	RestartDynos(ctx context.Context) error
}

// Delays configures the pause before each tier fires.
type Delays struct {
	Primary   time.Duration
	Fallback  time.Duration
	Emergency time.Duration
}

// Restarter attempts a restart through up to three tiers. Each tier
// runs only after the previous one failed or is unavailable, and none
// of them blocks the caller.
type Restarter struct {
	port   int
	remote DynoRestarter
	delays Delays
	http   *http.Client
	logger zerolog.Logger

	// exit terminates the process; swapped out in tests.
	exit func(code int)
}

// Option configures a Restarter.
type Option func(*Restarter)

// WithRemote enables the tier-2 dyno recycle.
func WithRemote(r DynoRestarter) Option {
	return func(t *Restarter) { t.remote = r }
}

// WithExitFunc overrides process termination (for tests).
func WithExitFunc(exit func(code int)) Option {
	return func(t *Restarter) { t.exit = exit }
}

// WithHTTPClient overrides the tier-1 HTTP client (for tests).
func WithHTTPClient(c *http.Client) Option {
	return func(t *Restarter) { t.http = c }
}

// New creates a restarter targeting the control endpoint on port.
func New(port int, delays Delays, opts ...Option) *Restarter {
	t := &Restarter{
		port:   port,
		delays: delays,
		http:   &http.Client{Timeout: 5 * time.Second},
		logger: log.WithComponent("restart"),
		exit:   os.Exit,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Trigger schedules the restart attempt and returns immediately. The
// tiers run on their own goroutine; ctx cancellation abandons tiers
// that have not fired yet.
func (t *Restarter) Trigger(ctx context.Context) {
	t.logger.Info().Str(log.FieldEvent, "restart.triggered").Msg("restart requested")
	go t.run(ctx)
}

func (t *Restarter) run(ctx context.Context) {
	if !sleep(ctx, t.delays.Primary) {
		return
	}
	err := t.primary(ctx)
	if err == nil {
		t.logger.Info().Str(log.FieldEvent, "restart.primary_ok").Msg("control endpoint accepted restart")
		return
	}
	t.logger.Warn().Err(err).
		Str(log.FieldEvent, "restart.primary_failed").
		Msg("control endpoint unreachable, falling back")

	if !sleep(ctx, t.delays.Fallback) {
		return
	}
	if t.remote == nil {
		t.logger.Warn().
			Str(log.FieldEvent, "restart.fallback_unavailable").
			Msg("no platform access, escalating")
	} else {
		err := t.remote.RestartDynos(ctx)
		if err == nil {
			t.logger.Info().Str(log.FieldEvent, "restart.fallback_ok").Msg("dyno recycle requested")
			return
		}
		t.logger.Warn().Err(err).
			Str(log.FieldEvent, "restart.fallback_failed").
			Msg("dyno recycle failed, escalating")
	}

	if !sleep(ctx, t.delays.Emergency) {
		return
	}
	t.logger.Error().
		Str(log.FieldEvent, "restart.emergency").
		Msg("terminating process, trusting supervisor to relaunch")
	t.exit(1)
}

// primary issues the tier-1 request against the local control endpoint.
func (t *Restarter) primary(ctx context.Context) error {
	url := fmt.Sprintf("http://127.0.0.1:%d/restart", t.port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("control endpoint returned %d", res.StatusCode)
	}
	return nil
}

// sleep waits for d unless ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
