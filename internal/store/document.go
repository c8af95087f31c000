// SPDX-License-Identifier: MIT

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DocumentVersion is written into the metadata of every new document.
const DocumentVersion = "1.0.0"

// timestampLayout is fixed-width so timestamps (and the backup
// filenames derived from them) sort lexically in chronological order.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Metadata describes the persisted document.
type Metadata struct {
	Version     string `json:"version"`
	Created     string `json:"created"`
	SessionID   string `json:"sessionId"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// Document is the persisted settings snapshot: metadata plus the full
// key/value mapping. The in-memory cache is the source of truth for
// reads; the document is its durable snapshot.
type Document struct {
	Metadata Metadata          `json:"metadata"`
	Settings map[string]string `json:"settings"`
}

// newDocument builds a fresh document around the given settings.
func newDocument(settings map[string]string, sessionID string, now time.Time) *Document {
	return &Document{
		Metadata: Metadata{
			Version:   DocumentVersion,
			Created:   now.UTC().Format(timestampLayout),
			SessionID: sessionID,
		},
		Settings: settings,
	}
}

// readDocument loads and decodes the document at path.
func readDocument(path string) (*Document, error) {
	// #nosec G304 -- the document path is derived from the operator-provided data dir
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Settings == nil {
		doc.Settings = map[string]string{}
	}
	return &doc, nil
}
