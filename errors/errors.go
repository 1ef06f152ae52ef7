// Package errors provides centralized error definitions for mzfilter.
package errors

import (
	"errors"
	"fmt"
)

// Maildir errors.
var (
	// ErrMaildirNotFound indicates the maildir directory does not exist.
	ErrMaildirNotFound = errors.New("maildir not found")

	// ErrInvalidPath indicates an invalid maildir path.
	ErrInvalidPath = errors.New("invalid maildir path")

	// ErrInvalidFolder indicates a target folder name that cannot be used as a maildir subfolder.
	ErrInvalidFolder = errors.New("invalid folder name")

	// ErrInvalidSubfolder indicates a source subfolder other than new or cur.
	ErrInvalidSubfolder = errors.New("invalid subfolder")
)

// Relocation errors.
var (
	// ErrDestinationExists indicates a file with the same name is already present in the destination.
	ErrDestinationExists = errors.New("destination already exists")

	// ErrVerifyFailed indicates a cross-device copy did not match its source.
	ErrVerifyFailed = errors.New("copy verification failed")

	// ErrMessageNotFound indicates the message file is no longer at its source path.
	ErrMessageNotFound = errors.New("message not found")
)

// Rule errors.
var (
	// ErrInvalidRule indicates a rule is missing a required attribute.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrUnknownField indicates a rule names a header field that is not supported.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnknownMatchType indicates a rule names a match type that is not supported.
	ErrUnknownMatchType = errors.New("unknown match type")

	// ErrNoRules indicates the rules file contains no rules.
	ErrNoRules = errors.New("no rules")
)

// Rules format errors.
var (
	// ErrFormatNotRegistered indicates the requested rules format is not registered.
	ErrFormatNotRegistered = errors.New("rules format not registered")

	// ErrRulesConfigInvalid indicates the rules configuration is invalid.
	ErrRulesConfigInvalid = errors.New("invalid rules configuration")
)

// PatternError reports a rule pattern that could not be compiled.
// The rule is skipped for the message being evaluated; the run continues.
type PatternError struct {
	Rule    string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("rule %q: invalid pattern %q: %v", e.Rule, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// FolderCreationError reports a destination maildir that could not be created.
type FolderCreationError struct {
	Folder string
	Err    error
}

func (e *FolderCreationError) Error() string {
	return fmt.Sprintf("create folder %s: %v", e.Folder, e.Err)
}

func (e *FolderCreationError) Unwrap() error { return e.Err }

// RelocationError reports a message that could not be moved into its destination.
type RelocationError struct {
	Filename string
	Folder   string
	Err      error
}

func (e *RelocationError) Error() string {
	return fmt.Sprintf("move %s to %s: %v", e.Filename, e.Folder, e.Err)
}

func (e *RelocationError) Unwrap() error { return e.Err }

// MaildirStructureError reports a root maildir without the cur/new/tmp shape.
// It is fatal for the whole run.
type MaildirStructureError struct {
	Path    string
	Missing []string
	Err     error
}

func (e *MaildirStructureError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("maildir %s: missing %v", e.Path, e.Missing)
	}
	return fmt.Sprintf("maildir %s: %v", e.Path, e.Err)
}

func (e *MaildirStructureError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMaildirNotFound
}
