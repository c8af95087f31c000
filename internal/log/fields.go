// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Settings fields
	FieldKey    = "key"
	FieldSource = "source"

	// Path / URL fields
	FieldPath = "path"
	FieldApp  = "app"
)
