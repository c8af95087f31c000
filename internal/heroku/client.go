// SPDX-License-Identifier: MIT

// Package heroku is a minimal Heroku Platform API client covering the
// three operations the settings store consumes: listing config vars,
// patching a single var, and recycling the app's dynos.
package heroku

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.heroku.com"
	acceptHeader   = "application/vnd.heroku+json; version=3"
)

// Client talks to the Heroku Platform API for one app.
type Client struct {
	base    string
	app     string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (for tests).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = base }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a client for the given app. The Platform API allows 4500
// requests per hour; the default limiter stays comfortably below that.
func New(app, token string, opts ...Option) *Client {
	c := &Client{
		base:    defaultBaseURL,
		app:     app,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// App returns the app name the client is bound to.
func (c *Client) App() string {
	return c.app
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()
		return nil, newAPIError(res)
	}
	return res, nil
}

// Probe checks connectivity and credentials by fetching the config
// vars. Used at startup to decide between remote and local-only mode.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.ConfigVars(ctx)
	return err
}

// ConfigVars fetches all config vars for the app. Heroku reports unset
// vars as JSON null values; those are folded to empty strings.
func (c *Client) ConfigVars(ctx context.Context) (map[string]string, error) {
	res, err := c.do(ctx, http.MethodGet, "/apps/"+c.app+"/config-vars", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var raw map[string]*string
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode config vars: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v != nil {
			out[k] = *v
		} else {
			out[k] = ""
		}
	}
	return out, nil
}

// SetVar patches a single config var.
func (c *Client) SetVar(ctx context.Context, key, value string) error {
	res, err := c.do(ctx, http.MethodPatch, "/apps/"+c.app+"/config-vars", map[string]string{key: value})
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// RestartDynos deletes all of the app's dynos, which the platform
// answers by starting fresh ones. Used as the tier-2 restart path.
func (c *Client) RestartDynos(ctx context.Context) error {
	res, err := c.do(ctx, http.MethodDelete, "/apps/"+c.app+"/dynos", nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}
