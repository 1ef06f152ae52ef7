package mzfilter

import (
	"context"
	"path/filepath"
)

// Message identifies a message file by its origin subfolder and filename.
// Maildir filenames encode delivery metadata and are never altered.
type Message struct {
	// Subfolder is the directory the message was found in (new or cur).
	Subfolder Subfolder

	// Filename is the message file name, unique within the maildir.
	Filename string
}

// Path returns the message path relative to its maildir root.
func (m Message) Path() string {
	return filepath.Join(string(m.Subfolder), m.Filename)
}

// HeaderFields holds one decoded value per supported field.
type HeaderFields map[Field]string

// Get returns the value of a field, or "" if the message lacks it.
func (h HeaderFields) Get(f Field) string {
	if h == nil {
		return ""
	}
	return h[f]
}

// Candidate pairs a discovered message with its header fields.
// Err is set when the message could not be read; such messages are
// reported as failed and never moved.
type Candidate struct {
	Message Message
	Fields  HeaderFields
	Err     error
}

// MessageSource discovers messages to be filed.
// Used by the filer to obtain candidates from a maildir scan.
type MessageSource interface {
	// Candidates returns the discovered messages in processing order.
	Candidates(ctx context.Context) ([]Candidate, error)
}
