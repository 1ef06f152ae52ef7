package mzfilter

// OutcomeKind classifies what happened to a message.
type OutcomeKind int

const (
	// NoMatch means no rule applied; the message stays where it is.
	NoMatch OutcomeKind = iota
	// Moved means the message was relocated to Folder.
	Moved
	// WouldMove means a dry run would have relocated the message to Folder.
	WouldMove
	// Failed means the message could not be filed; Err holds the reason.
	Failed
)

// String returns a string representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case NoMatch:
		return "no_match"
	case Moved:
		return "moved"
	case WouldMove:
		return "would_move"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of filing one message.
type Outcome struct {
	Message Message
	Kind    OutcomeKind

	// Folder is the normalized destination for Moved, WouldMove and for
	// failures that happened after a rule matched.
	Folder string

	// Rule is the label of the matching rule, if any.
	Rule string

	// Err is the failure reason for Failed outcomes.
	Err error

	// Warnings collects rules skipped while evaluating this message.
	Warnings []error
}

// Reason returns the failure reason, or "" for non-failed outcomes.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Summary counts outcomes by kind.
type Summary struct {
	Moved     int
	WouldMove int
	NoMatch   int
	Failed    int
	Warnings  int
}

// Add records an outcome.
func (s *Summary) Add(o Outcome) {
	switch o.Kind {
	case Moved:
		s.Moved++
	case WouldMove:
		s.WouldMove++
	case NoMatch:
		s.NoMatch++
	case Failed:
		s.Failed++
	}
	s.Warnings += len(o.Warnings)
}

// Total returns the number of messages processed.
func (s Summary) Total() int {
	return s.Moved + s.WouldMove + s.NoMatch + s.Failed
}

// Count returns the count for a single kind.
func (s Summary) Count(k OutcomeKind) int {
	switch k {
	case Moved:
		return s.Moved
	case WouldMove:
		return s.WouldMove
	case NoMatch:
		return s.NoMatch
	case Failed:
		return s.Failed
	}
	return 0
}
