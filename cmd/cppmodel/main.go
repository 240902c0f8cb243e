package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/cppmodel"
)

var (
	flagConfig  string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "cppmodel",
	Short:         "Semantic model of C++ sources",
	Long:          "cppmodel indexes C++ sources with tree-sitter and answers scope-aware questions: what a type name resolves to, which overloads form a family, which specialisations a template has.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "project file (default: .cppmodel.yaml in the indexed directory)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(typeCmd, contentCmd, overloadsCmd, specialisationsCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(showCmd, detailCmd, dependentsCmd, scopeCmd)
}

var (
	flagDB      string
	flagStrict  bool
	flagSerial  bool
	flagNoHooks bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a directory and optionally write a snapshot",
	Long:  "Parses every C++ source under path, builds the semantic model, runs the configured hook scripts and, with --db or a configured database, writes a SQLite snapshot.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagDB, "db", "", "snapshot database path (overrides the config)")
	indexCmd.Flags().BoolVar(&flagNoHooks, "no-hooks", false, "skip the configured hook scripts")
	for _, c := range []*cobra.Command{indexCmd, typeCmd, contentCmd, overloadsCmd, specialisationsCmd, scriptCmd} {
		c.Flags().BoolVar(&flagStrict, "strict", false, "fail on the first ambiguity instead of skipping the file")
		c.Flags().BoolVar(&flagSerial, "serial", false, "parse files one at a time")
	}
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	engine, cfg, targetDir, err := buildEngine(ctx, cmd.ErrOrStderr(), args)
	if err != nil {
		return outputError(cmd, "index", err)
	}
	if !flagNoHooks {
		if err := engine.RunHooks(ctx); err != nil {
			return outputError(cmd, "index", err)
		}
	}

	dbPath := resolveDBPath(findRepoRoot(targetDir), cfg.DatabasePath())
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return outputError(cmd, "index", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
		}
		if err := engine.Export(ctx, dbPath); err != nil {
			return outputError(cmd, "index", err)
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Indexed %s in %s\n", targetDir, time.Since(start).Round(time.Millisecond))
	return outputResult(cmd, CLIResult{
		Command: "index",
		Results: CLIIndexSummary{Root: targetDir, Database: dbPath, Stats: engine.Stats()},
	})
}

// buildEngine loads the configuration for the target directory and indexes
// it.
func buildEngine(ctx context.Context, stderr io.Writer, args []string) (*cppmodel.Engine, *cppmodel.Config, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return nil, nil, "", err
	}

	var cfg *cppmodel.Config
	if flagConfig != "" {
		cfg, err = cppmodel.LoadConfig(flagConfig)
	} else {
		cfg, err = cppmodel.DiscoverConfig(targetDir)
	}
	if err != nil {
		return nil, nil, "", err
	}

	engine := cppmodel.New(
		cppmodel.WithLogger(newLogger(stderr)),
		cppmodel.WithConfig(cfg),
		cppmodel.WithStrict(flagStrict || cfg.Strict),
		cppmodel.WithParallel(!flagSerial),
		cppmodel.WithScriptsDir(targetDir),
	)
	if err := engine.IndexDirectory(ctx, targetDir); err != nil {
		return nil, nil, "", fmt.Errorf("indexing: %w", err)
	}
	return engine, cfg, targetDir, nil
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the snapshot path from --db, else the configured
// one; "" means no snapshot. A relative --db is taken from the repo root.
func resolveDBPath(repoRoot, configured string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return configured
}
