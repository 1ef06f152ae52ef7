// Package filer evaluates rulesets against messages and moves matching
// messages into their destination folders.
package filer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/infodancer/mzfilter"
	"github.com/infodancer/mzfilter/maildir"
	"github.com/infodancer/mzfilter/match"
)

// Options controls a filing run.
type Options struct {
	// DryRun reports WouldMove outcomes without touching the filesystem.
	DryRun bool

	// Workers is the number of messages evaluated concurrently.
	// Values below 2 process messages one at a time in order.
	Workers int

	// Logger receives per-message log lines. Defaults to slog.Default().
	Logger *slog.Logger
}

// Engine files messages from a root maildir into its subfolders.
type Engine struct {
	root    *maildir.Maildir
	rules   mzfilter.Ruleset
	opts    Options
	matcher *match.Matcher
	log     *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates an Engine for root. The root maildir is validated here, so a
// malformed root fails before any message is touched.
func New(root *maildir.Maildir, rules mzfilter.Ruleset, opts Options) (*Engine, error) {
	if err := root.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		root:    root,
		rules:   slices.Clone(rules),
		opts:    opts,
		matcher: match.New(0),
		log:     logger,
		locks:   make(map[string]*sync.Mutex),
	}
	for _, err := range e.Check() {
		e.log.Warn("rule will be skipped", slog.Any("error", err))
	}
	return e, nil
}

// Check compiles every regex rule and returns one error per rule that
// cannot be used. Such rules never match.
func (e *Engine) Check() []error {
	var errs []error
	for _, r := range e.rules {
		if err := e.matcher.Compile(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Select returns the first rule matching fields, or nil if none does.
// Rules whose patterns cannot be evaluated are skipped and returned as
// warnings.
func (e *Engine) Select(fields mzfilter.HeaderFields) (*mzfilter.Rule, []error) {
	var warnings []error
	for i := range e.rules {
		rule := &e.rules[i]
		ok, err := e.matcher.MatchRule(*rule, fields)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		if ok {
			return rule, warnings
		}
	}
	return nil, warnings
}

// File evaluates one message and, on a match, moves it (or reports the
// move in dry-run mode). Errors never escape: they become Failed outcomes.
func (e *Engine) File(msg mzfilter.Message, fields mzfilter.HeaderFields) mzfilter.Outcome {
	out := mzfilter.Outcome{Message: msg}

	rule, warnings := e.Select(fields)
	out.Warnings = warnings
	for _, w := range warnings {
		e.log.Warn("skipping rule", slog.String("message", msg.Filename), slog.Any("error", w))
	}

	if rule == nil {
		out.Kind = mzfilter.NoMatch
		e.log.Debug("no matching rule", slog.String("message", msg.Filename))
		return out
	}

	out.Rule = rule.Label()
	out.Folder = rule.Destination()

	if e.opts.DryRun {
		out.Kind = mzfilter.WouldMove
		if !e.root.Folder(out.Folder).Exists() {
			e.log.Debug("[DRY RUN] would create folder", slog.String("folder", out.Folder))
		}
		e.log.Info("[DRY RUN] would move",
			slog.String("message", msg.Filename),
			slog.String("folder", out.Folder),
			slog.String("rule", out.Rule))
		return out
	}

	if err := e.relocate(msg, out.Folder); err != nil {
		out.Kind = mzfilter.Failed
		out.Err = err
		e.log.Error("move failed",
			slog.String("message", msg.Filename),
			slog.String("folder", out.Folder),
			slog.Any("error", err))
		return out
	}

	out.Kind = mzfilter.Moved
	e.log.Info("moved",
		slog.String("message", msg.Filename),
		slog.String("folder", out.Folder),
		slog.String("rule", out.Rule))
	return out
}

// relocate moves msg into folder, holding the folder's lock so that
// creation and moves for one destination never interleave.
func (e *Engine) relocate(msg mzfilter.Message, folder string) error {
	lock := e.folderLock(folder)
	lock.Lock()
	defer lock.Unlock()

	dest, err := e.root.EnsureFolder(folder)
	if err != nil {
		return err
	}
	return e.root.Move(msg, dest)
}

func (e *Engine) folderLock(folder string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	l, ok := e.locks[folder]
	if !ok {
		l = &sync.Mutex{}
		e.locks[folder] = l
	}
	return l
}

// fileCandidate files a discovered message, turning read errors into
// Failed outcomes.
func (e *Engine) fileCandidate(c mzfilter.Candidate) mzfilter.Outcome {
	if c.Err != nil {
		e.log.Error("cannot read message", slog.String("message", c.Message.Filename), slog.Any("error", c.Err))
		return mzfilter.Outcome{Message: c.Message, Kind: mzfilter.Failed, Err: c.Err}
	}
	return e.File(c.Message, c.Fields)
}

// Run files every candidate from src and returns the outcomes in
// discovery order with their summary.
//
// Cancelling ctx stops the run before the next message; a move already in
// progress completes. The returned error is non-nil only when src fails or
// ctx is cancelled; per-message failures are reported as outcomes.
func (e *Engine) Run(ctx context.Context, src mzfilter.MessageSource) ([]mzfilter.Outcome, mzfilter.Summary, error) {
	candidates, err := src.Candidates(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, mzfilter.Summary{}, err
		}
		return nil, mzfilter.Summary{}, fmt.Errorf("discover messages: %w", err)
	}

	var outcomes []mzfilter.Outcome
	if e.opts.Workers > 1 {
		outcomes, err = e.runParallel(ctx, candidates)
	} else {
		outcomes, err = e.runSequential(ctx, candidates)
	}

	var summary mzfilter.Summary
	for _, o := range outcomes {
		summary.Add(o)
	}
	return outcomes, summary, err
}

func (e *Engine) runSequential(ctx context.Context, candidates []mzfilter.Candidate) ([]mzfilter.Outcome, error) {
	outcomes := make([]mzfilter.Outcome, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, e.fileCandidate(c))
	}
	return outcomes, nil
}

func (e *Engine) runParallel(ctx context.Context, candidates []mzfilter.Candidate) ([]mzfilter.Outcome, error) {
	results := make([]mzfilter.Outcome, len(candidates))
	done := make([]bool, len(candidates))

	g := new(errgroup.Group)
	g.SetLimit(e.opts.Workers)
	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = e.fileCandidate(c)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	outcomes := make([]mzfilter.Outcome, 0, len(candidates))
	for i := range results {
		if done[i] {
			outcomes = append(outcomes, results[i])
		}
	}
	return outcomes, ctx.Err()
}

// Summarize logs the final counts of a run.
func Summarize(logger *slog.Logger, s mzfilter.Summary, dryRun bool) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("filtering complete",
		slog.Bool("dry_run", dryRun),
		slog.Int("processed", s.Total()),
		slog.Int(mzfilter.Moved.String(), s.Moved),
		slog.Int(mzfilter.WouldMove.String(), s.WouldMove),
		slog.Int(mzfilter.NoMatch.String(), s.NoMatch),
		slog.Int(mzfilter.Failed.String(), s.Failed),
		slog.Int("warnings", s.Warnings))
}
