package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/infodancer/mzfilter"
	"github.com/infodancer/mzfilter/config"
	"github.com/infodancer/mzfilter/errors"
	"github.com/infodancer/mzfilter/rules"
)

// decodeRules reads the rules file without validating it, so check can
// report every problem at once.
func decodeRules(cfg config.Config) (mzfilter.Ruleset, error) {
	format := cfg.RulesFormat
	if format == "" {
		var ok bool
		if format, ok = mzfilter.FormatFor(cfg.Rules); !ok {
			return nil, fmt.Errorf("%s: %w", cfg.Rules, errors.ErrFormatNotRegistered)
		}
	}
	f, err := os.Open(cfg.Rules)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	rs, err := mzfilter.Decode(format, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Rules, err)
	}
	return rs, nil
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the rules file",
		Long: `check decodes the rules file, validates every rule and compiles every
regex pattern, then lists each problem found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, src, err := loadConfig(cmd, opts, nil)
			if err != nil {
				return err
			}
			if _, err := setupLogging(cmd, cfg, src); err != nil {
				return err
			}
			rs, err := decodeRules(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rs) == 0 {
				_, _ = fmt.Fprintf(out, "%s: warning: %v\n", cfg.Rules, errors.ErrNoRules)
				return nil
			}
			problems := rules.Check(rs)
			for _, p := range problems {
				_, _ = fmt.Fprintf(out, "%s: %v\n", cfg.Rules, p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d of %d rules invalid", len(problems), len(rs))
			}
			_, err = fmt.Fprintf(out, "%s: %d rules OK\n", cfg.Rules, len(rs))
			return err
		},
	}
}

func newSieveCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sieve",
		Short: "Export the rules as a Sieve script",
		Long: `sieve converts the rules file into an equivalent Sieve script, so the
same filtering can run at delivery time on a Sieve-capable server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, src, err := loadConfig(cmd, opts, nil)
			if err != nil {
				return err
			}
			if _, err := setupLogging(cmd, cfg, src); err != nil {
				return err
			}
			rs, err := mzfilter.LoadRules(mzfilter.RulesConfig{Format: cfg.RulesFormat, Path: cfg.Rules})
			if err != nil {
				return fmt.Errorf("loading rules from %s: %w", cfg.Rules, err)
			}
			script, err := rules.ExportSieve(rs)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), script)
				return err
			}
			return os.WriteFile(output, []byte(script), 0644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the script to this file instead of stdout")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "mzfilter %s\n", version)
			return err
		},
	}
}
