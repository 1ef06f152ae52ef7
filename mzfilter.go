// Package mzfilter defines the rule model and outcomes for sorting Maildir
// messages into subfolders.
//
// A Ruleset is evaluated in declaration order against the header fields of
// each message; the first matching Rule names the destination folder. The
// filer package performs the evaluation and the relocation, the maildir
// package owns the on-disk layout, and the rules package loads rulesets
// from JSON or YAML files.
package mzfilter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/infodancer/mzfilter/errors"
)

// Field identifies a message header a rule can match against.
type Field string

const (
	FieldSubject Field = "subject"
	FieldFrom    Field = "from"
	FieldTo      Field = "to"
	FieldCc      Field = "cc"
	FieldReplyTo Field = "reply-to"
	FieldSender  Field = "sender"
)

var fieldHeaders = map[Field]string{
	FieldSubject: "Subject",
	FieldFrom:    "From",
	FieldTo:      "To",
	FieldCc:      "Cc",
	FieldReplyTo: "Reply-To",
	FieldSender:  "Sender",
}

// Fields returns the supported fields in canonical order.
func Fields() []Field {
	return []Field{FieldSubject, FieldFrom, FieldTo, FieldCc, FieldReplyTo, FieldSender}
}

// ParseField converts a field name to a Field.
// Matching is case-insensitive; an empty name is the default field, subject.
func ParseField(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return FieldSubject, nil
	}
	f := Field(name)
	if _, ok := fieldHeaders[f]; !ok {
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownField, name)
	}
	return f, nil
}

// Header returns the message header key the field is read from.
func (f Field) Header() string {
	return fieldHeaders[f]
}

// Valid reports whether f is one of the supported fields.
func (f Field) Valid() bool {
	_, ok := fieldHeaders[f]
	return ok
}

// MatchType selects how a rule pattern is compared with a field value.
type MatchType string

const (
	MatchContains   MatchType = "contains"
	MatchExact      MatchType = "exact"
	MatchStartsWith MatchType = "starts_with"
	MatchEndsWith   MatchType = "ends_with"
	MatchRegex      MatchType = "regex"
)

// ParseMatchType converts a match type name to a MatchType.
func ParseMatchType(name string) (MatchType, error) {
	mt := MatchType(strings.ToLower(strings.TrimSpace(name)))
	if !mt.Valid() {
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownMatchType, name)
	}
	return mt, nil
}

// Valid reports whether mt is one of the supported match types.
func (mt MatchType) Valid() bool {
	switch mt {
	case MatchContains, MatchExact, MatchStartsWith, MatchEndsWith, MatchRegex:
		return true
	}
	return false
}

// Subfolder is the maildir subdirectory a message is read from.
type Subfolder string

const (
	SubfolderNew Subfolder = "new"
	SubfolderCur Subfolder = "cur"
)

// ParseSubfolder converts "new" or "cur" to a Subfolder.
func ParseSubfolder(name string) (Subfolder, error) {
	switch s := Subfolder(strings.ToLower(strings.TrimSpace(name))); s {
	case SubfolderNew, SubfolderCur:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", errors.ErrInvalidSubfolder, name)
}

// NormalizeFolder returns the on-disk name of a target folder,
// adding the leading dot if it is absent.
// Example: "Work" and ".Work" both become ".Work".
func NormalizeFolder(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, ".") {
		return name
	}
	return "." + name
}

// ValidateFolder checks that a target folder resolves to a direct child of
// the root maildir.
func ValidateFolder(name string) error {
	n := NormalizeFolder(name)
	switch {
	case n == ".", n == "..", strings.TrimLeft(n, ".") == "":
		return fmt.Errorf("%w: %q", errors.ErrInvalidFolder, name)
	case strings.ContainsRune(n, '/'), strings.ContainsRune(n, filepath.Separator):
		return fmt.Errorf("%w: %q contains a path separator", errors.ErrInvalidFolder, name)
	case strings.ContainsRune(n, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", errors.ErrInvalidFolder, name)
	}
	return nil
}
