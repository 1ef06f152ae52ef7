package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/infodancer/mzfilter"
	"github.com/infodancer/mzfilter/config"
	"github.com/infodancer/mzfilter/errors"
	"github.com/infodancer/mzfilter/filer"
	"github.com/infodancer/mzfilter/logging"
	"github.com/infodancer/mzfilter/maildir"
	"github.com/infodancer/mzfilter/metrics"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath  string
	rules       string
	rulesFormat string
	folders     []string
	dryRun      bool
	verbose     bool
	workers     int
	logFormat   string
	metricsFile string
}

// NewRootCmd builds the mzfilter command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "mzfilter [MAILDIR]",
		Short: "Sort Maildir messages into folders by header rules",
		Long: `mzfilter reads the messages in a maildir's new and cur folders and moves
each one into the subfolder named by the first rule that matches its
headers. Messages that match no rule stay where they are.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, opts, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: ./mzfilter.toml, $XDG_CONFIG_HOME/mzfilter/config.toml, /etc/mzfilter.toml)")
	flags.StringVar(&opts.rules, "rules", config.DefaultRulesFile, "rules file")
	flags.StringVar(&opts.rulesFormat, "rules-format", "", "rules file format (default: from the file extension)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&opts.logFormat, "log-format", "", "log output format: text or json")

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report what would be moved without moving anything")
	cmd.Flags().StringSliceVar(&opts.folders, "folders", []string{"new", "cur"}, "maildir folders to process, in order")
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "messages processed concurrently")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")

	cmd.AddCommand(newCheckCmd(opts), newSieveCmd(opts), newVersionCmd())
	return cmd
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, opts *rootOptions, args []string) (config.Config, config.Source, error) {
	cfg, src, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, config.Source{}, err
	}

	changed := func(name string) bool {
		f := cmd.Flag(name)
		return f != nil && f.Changed
	}
	if len(args) > 0 {
		cfg.Maildir = args[0]
	}
	if changed("rules") {
		cfg.Rules = opts.rules
	}
	if changed("rules-format") {
		cfg.RulesFormat = opts.rulesFormat
	}
	if changed("folders") {
		cfg.Folders = opts.folders
	}
	if changed("dry-run") {
		cfg.DryRun = opts.dryRun
	}
	if changed("workers") {
		cfg.Workers = opts.workers
	}
	if changed("metrics-file") {
		cfg.Metrics.Textfile = opts.metricsFile
	}
	if changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, src, nil
}

// setupLogging installs the configured logger and reports config keys
// that were ignored.
func setupLogging(cmd *cobra.Command, cfg config.Config, src config.Source) (*slog.Logger, error) {
	logger, err := logging.Setup(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if len(src.Unknown) > 0 {
		logger.Warn("unknown configuration keys ignored",
			slog.String("file", src.Path),
			slog.String("keys", strings.Join(src.Unknown, ", ")))
	}
	return logger, nil
}

func loadRules(cfg config.Config, logger *slog.Logger) (mzfilter.Ruleset, error) {
	rs, err := mzfilter.LoadRules(mzfilter.RulesConfig{Format: cfg.RulesFormat, Path: cfg.Rules})
	if err != nil {
		return nil, fmt.Errorf("loading rules from %s: %w", cfg.Rules, err)
	}
	if len(rs) == 0 {
		logger.Warn("rules file has no rules; every message will be left in place",
			slog.String("rules", cfg.Rules),
			slog.Any("error", errors.ErrNoRules))
	}
	logger.Info("loaded rules", slog.String("rules", cfg.Rules), slog.Int("count", len(rs)))
	return rs, nil
}

func runFilter(cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, src, err := loadConfig(cmd, opts, args)
	if err != nil {
		return err
	}
	logger, err := setupLogging(cmd, cfg, src)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		return err
	}
	subs, err := cfg.Subfolders()
	if err != nil {
		return err
	}

	root := maildir.New(cfg.Maildir)
	if err := root.Validate(); err != nil {
		logger.Error("invalid maildir", slog.String("maildir", cfg.Maildir), slog.Any("error", err))
		return err
	}
	rs, err := loadRules(cfg, logger)
	if err != nil {
		logger.Error("cannot load rules", slog.Any("error", err))
		return err
	}

	engine, err := filer.New(root, rs, filer.Options{
		DryRun:  cfg.DryRun,
		Workers: cfg.Workers,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("cannot start filter", slog.Any("error", err))
		return err
	}
	if cfg.DryRun {
		logger.Info("dry run: no messages will be moved")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	outcomes, summary, err := engine.Run(ctx, maildir.NewScanner(root, subs...).WithLogger(logger))
	took := time.Since(started)
	switch {
	case err == nil:
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		logger.Warn("run interrupted; remaining messages left in place", slog.Int("processed", summary.Total()))
	default:
		logger.Error("filtering failed", slog.Any("error", err))
		return err
	}

	filer.Summarize(logger, summary, cfg.DryRun)

	if cfg.Metrics.Textfile != "" {
		rec := metrics.New()
		rec.Observe(outcomes, summary, started, took, cfg.DryRun)
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("cannot write metrics", slog.String("path", cfg.Metrics.Textfile), slog.Any("error", err))
		}
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "processed=%d moved=%d would_move=%d no_match=%d failed=%d\n",
		summary.Total(), summary.Moved, summary.WouldMove, summary.NoMatch, summary.Failed)
	return err
}
