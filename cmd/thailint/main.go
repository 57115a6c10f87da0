package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/be-wise-be-kind/thai-lint-sub003"
	"github.com/charmbracelet/fang"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	rootPath    string
	ruleFilter  []string
	format      string
	colorMode   string
	groupByRule bool
	noRecursive bool
	watch       bool
	verbose     bool
)

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .thailint.yml in the project root)")
	rootCmd.PersistentFlags().StringVar(&rootPath, "path", ".", "project root to lint")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")

	rootCmd.Flags().StringSliceVar(&ruleFilter, "rules", nil, "run only these rule ids (comma-separated)")
	rootCmd.Flags().StringVar(&format, "format", "text", "output format: text, json or sarif")
	rootCmd.Flags().StringVar(&colorMode, "color", "auto", "when to use colors: auto, always or never")
	rootCmd.Flags().BoolVar(&groupByRule, "group-by-rule", false, "group text output by rule instead of file")
	rootCmd.Flags().BoolVar(&noRecursive, "no-recursive", false, "do not descend into subdirectories")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "watch for file changes and re-lint continuously")

	rootCmd.AddCommand(rulesCmd)

	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))

		info, found := thailint.GetErrorInfo(err)
		if found {
			logger.Error("Command failed", "error_type", info.Type, "error", err.Error())

			if info.Details != "" {
				logger.Error("Additional details", "details", info.Details)
			}

			if info.File != "" {
				logger.Error("File information", "file", info.File)
			}
		} else if !errors.Is(err, thailint.ErrLint) {
			logger.Error("Command failed", "error", err)
		}

		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "thailint [paths...]",
	Short: "A linter for AI-generated code",
	Long: `Thailint detects anti-patterns common in generated Python, TypeScript,
JavaScript and Rust code: magic numbers, stray print statements, deep
nesting, mutable default arguments, broad exception handlers and
duplicated blocks.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		fs := afero.NewOsFs()

		if watch {
			wm, err := thailint.NewWatchMode(thailint.WatchConfig{
				Root:        rootPath,
				ConfigPath:  cfgFile,
				Logger:      logger,
				FS:          fs,
				GroupByRule: groupByRule,
				ColorMode:   thailint.ColorMode(colorMode),
			})
			if err != nil {
				return err
			}
			defer wm.Stop()
			return wm.Start(cmd.Context())
		}

		cfg, err := thailint.LoadConfig(fs, rootPath, cfgFile)
		if err != nil {
			logger.Error("Failed to load configuration", "error", err)
			return err
		}

		linter, err := thailint.NewLinter(cfg, logger, fs, rootPath)
		if err != nil {
			logger.Error("Failed to initialize the linter", "error", err)
			return err
		}

		targets := args
		if len(targets) == 0 {
			targets = []string{rootPath}
		}

		violations, err := linter.LintWith(cmd.Context(), thailint.LintOptions{
			Rules:     ruleFilter,
			Recursive: !noRecursive,
		}, targets...)
		if err != nil {
			logger.Error("Linting failed", "error", err)
			return err
		}

		for _, failure := range linter.Failures() {
			logger.Warn("File skipped", "file", failure.File, "reason", failure.Reason)
		}

		if err := printReport(violations, linter.Registry()); err != nil {
			return err
		}

		if !violations.IsEmpty() {
			return fmt.Errorf("%w: found %d violation(s)", thailint.ErrLint, len(violations.Violations))
		}
		return nil
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the available rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()

		cfg, err := thailint.LoadConfig(fs, rootPath, cfgFile)
		if err != nil {
			return err
		}

		linter, err := thailint.NewLinter(cfg, newLogger(), fs, rootPath)
		if err != nil {
			return err
		}

		for _, rule := range linter.Registry().All() {
			langs := make([]string, 0, len(rule.Languages()))
			for _, lang := range rule.Languages() {
				langs = append(langs, lang.String())
			}
			fmt.Printf("%-28s %-22s %s\n", rule.ID(), strings.Join(langs, ","), rule.Description())
		}
		return nil
	},
}

func newLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// printReport renders violations in the selected output format.
func printReport(violations *thailint.LintViolations, registry *thailint.Registry) error {
	var formatter thailint.Formatter

	switch thailint.OutputFormat(format) {
	case thailint.FormatText:
		formatter = &thailint.EnhancedTextFormatter{
			ColorMode:   thailint.ColorMode(colorMode),
			GroupByRule: groupByRule,
			Writer:      os.Stdout,
		}
	default:
		var err error
		formatter, err = thailint.NewFormatter(thailint.OutputFormat(format))
		if err != nil {
			return err
		}
	}

	out, err := formatter.Format(violations, registry)
	if err != nil {
		return err
	}

	fmt.Print(string(out))
	if len(out) > 0 && out[len(out)-1] != '\n' {
		fmt.Println()
	}
	return nil
}
