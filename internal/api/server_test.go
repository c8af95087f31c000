// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soleks/botvar/internal/store"
)

func newTestServer(t *testing.T, opts ...Option) (http.Handler, chan struct{}) {
	t.Helper()
	st := store.New(t.TempDir(), map[string]string{"AUTO_READ": "yes", "MODE": "public"})
	st.Init()

	shutdown := make(chan struct{}, 1)
	srv := New(st, func() {
		select {
		case shutdown <- struct{}{}:
		default:
		}
	}, opts...)
	return srv.Router(), shutdown
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["sessionId"])
	assert.Equal(t, false, body["remote"])
}

func TestPutThenGetSetting(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPut, "/api/v1/settings/CHATBOT", `{"value":"yes"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/settings/CHATBOT", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "yes", body["value"])
}

func TestGetUnknownSetting(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/settings/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutSettingRejectsBadBody(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPut, "/api/v1/settings/CHATBOT", `{"wrong":"shape"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPut, "/api/v1/settings/CHATBOT", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPutSettingAcceptsEmptyValue(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPut, "/api/v1/settings/WELCOME", `{"value":""}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/settings/WELCOME", "")
	assert.Equal(t, http.StatusOK, rec.Code, "Lookup-backed read sees present-but-empty")
}

func TestListSettings(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "yes", body["AUTO_READ"])
	assert.Equal(t, "public", body["MODE"])
}

func TestReload(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/reload", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSyncWithoutRemote(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/sync", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRestartEndpointSignalsShutdown(t *testing.T) {
	h, shutdown := newTestServer(t)

	rec := doRequest(t, h, http.MethodGet, "/restart", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	// shutdown runs on its own goroutine so the 202 hits the wire first.
	assert.Eventually(t, func() bool {
		return len(shutdown) > 0
	}, time.Second, 10*time.Millisecond, "restart endpoint never signalled shutdown")
}

type fakeRestarter struct {
	triggered chan struct{}
}

func (f *fakeRestarter) Trigger(context.Context) {
	select {
	case f.triggered <- struct{}{}:
	default:
	}
}

func TestTieredRestartEndpoint(t *testing.T) {
	fr := &fakeRestarter{triggered: make(chan struct{}, 1)}
	h, _ := newTestServer(t, WithRestarter(fr))

	rec := doRequest(t, h, http.MethodPost, "/api/v1/restart", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, fr.triggered, 1)
}

func TestTieredRestartUnconfigured(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/restart", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "client-supplied")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	assert.Equal(t, "client-supplied", rec2.Header().Get(HeaderRequestID))
}

func TestRateLimit(t *testing.T) {
	h, _ := newTestServer(t, WithRateLimit(2))

	assert.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, h, http.MethodGet, "/healthz", "").Code)
}
