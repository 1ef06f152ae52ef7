package maildir

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/infodancer/mzfilter"
)

// Scanner discovers messages in the new/ and cur/ subfolders of a root
// maildir and reads their header fields.
type Scanner struct {
	root       *Maildir
	subfolders []mzfilter.Subfolder
	log        *slog.Logger
}

// NewScanner creates a Scanner for root. With no subfolders given it scans
// new then cur.
func NewScanner(root *Maildir, subfolders ...mzfilter.Subfolder) *Scanner {
	if len(subfolders) == 0 {
		subfolders = []mzfilter.Subfolder{mzfilter.SubfolderNew, mzfilter.SubfolderCur}
	}
	return &Scanner{root: root, subfolders: subfolders, log: slog.Default()}
}

// WithLogger sets the logger for folder progress lines and returns s.
// A nil logger keeps the current one.
func (s *Scanner) WithLogger(logger *slog.Logger) *Scanner {
	if logger != nil {
		s.log = logger
	}
	return s
}

// Candidates implements mzfilter.MessageSource.
// Messages are returned subfolder by subfolder in the configured order,
// sorted by filename within each subfolder. A message whose headers cannot
// be read is returned with Err set.
func (s *Scanner) Candidates(ctx context.Context) ([]mzfilter.Candidate, error) {
	var candidates []mzfilter.Candidate
	for _, sub := range s.subfolders {
		names, err := s.root.List(sub)
		if err != nil {
			s.log.Warn("cannot list folder", slog.String("folder", string(sub)), slog.Any("error", err))
			continue
		}
		s.log.Info("scanning folder", slog.String("folder", string(sub)), slog.Int("messages", len(names)))

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return candidates, err
			}
			msg := mzfilter.Message{Subfolder: sub, Filename: name}
			fields, err := s.readFields(msg)
			candidates = append(candidates, mzfilter.Candidate{Message: msg, Fields: fields, Err: err})
		}
	}
	return candidates, nil
}

func (s *Scanner) readFields(msg mzfilter.Message) (mzfilter.HeaderFields, error) {
	f, err := s.root.Open(msg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fields, err := ReadHeaderFields(f)
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	return fields, nil
}

// Compile-time interface verification.
var _ mzfilter.MessageSource = (*Scanner)(nil)
