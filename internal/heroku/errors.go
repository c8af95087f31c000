// SPDX-License-Identifier: MIT

package heroku

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx response from the Platform API.
type APIError struct {
	StatusCode int
	ID         string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("heroku api: %d %s: %s", e.StatusCode, e.ID, e.Message)
	}
	return fmt.Sprintf("heroku api: unexpected status %d", e.StatusCode)
}

// IsAuthError reports whether the error, anywhere in its chain, is an
// authentication or authorization failure, which marks the remote as
// unavailable rather than retryable.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

func newAPIError(res *http.Response) *APIError {
	apiErr := &APIError{StatusCode: res.StatusCode}
	body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err != nil {
		return apiErr
	}
	var payload struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.ID = payload.ID
		apiErr.Message = payload.Message
	}
	return apiErr
}
