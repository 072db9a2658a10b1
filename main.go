// repoir extracts a structured Repo IR from local repositories and scores how
// well implementation plans are grounded in them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/repoir/internal/config"
	"github.com/phobologic/repoir/internal/logging"
	"github.com/phobologic/repoir/internal/pipeline"
	"github.com/phobologic/repoir/internal/summarize"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// app holds the persistent flags and the settings resolved from them.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "repoir",
		Short:         "Extract Repo IRs and score plan grounding",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("repoir {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath+" when present)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading REPOIR_* and API key variables")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newExtractCmd(a),
		newBatchCmd(a),
		newGroundCmd(a),
		newSchemaCmd(),
		newInitCmd(),
	)
	return root
}

// load resolves the config and logger. Commands that need neither skip it.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFile, a.configPath != "")
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	if cfg.Log.Format != "" {
		lc.Format = cfg.Log.Format
	}
	a.cfg = cfg
	a.log = logging.New(lc, cmd.ErrOrStderr())
	return nil
}

func (a *app) pipelineOptions() pipeline.Options {
	c := a.cfg
	opts := pipeline.Options{
		TreeDepth:        c.Walk.MaxDepth,
		TreeEntries:      c.Walk.MaxEntries,
		MaxFiles:         c.Walk.MaxFiles,
		MaxFileSize:      c.Walk.MaxFileSize,
		RespectGitignore: c.Walk.RespectGitignore,
		Timeout:          c.Pipeline.Timeout,
		Logger:           a.log,
	}
	if !c.Pipeline.SkipSummary {
		opts.Summarizer = summarize.New(summarize.Options{
			Provider:  summarize.Provider(c.Summary.Provider),
			Model:     c.Summary.Model,
			MaxTokens: c.Summary.MaxTokens,
			Timeout:   c.Summary.Timeout,
			MaxTries:  c.Summary.MaxTries,
			Logger:    a.log,
		})
	}
	return opts
}

// checkDir resolves path and requires it to be a directory.
func checkDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("repo path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", abs)
	}
	return abs, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkFormat(format string) error {
	switch format {
	case "json", "toon":
		return nil
	}
	return fmt.Errorf("unsupported format %q (want json or toon)", format)
}
