package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/pipeline"
	"github.com/phobologic/repoir/internal/ranking"
	"github.com/phobologic/repoir/internal/store"
	"github.com/phobologic/repoir/internal/toon"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		meta        pipeline.Metadata
		skipSummary bool
		provider    string
		timeout     time.Duration
		format      string
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "extract <repo>",
		Short: "Extract the Repo IR of a local repository",
		Long: `Run the directory, dependency, route, model and infrastructure extractors
against a local checkout and print the resulting Repo IR. Extractor failures
are recorded in extraction_warnings instead of aborting the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			flags := cmd.Flags()
			if skipSummary {
				a.cfg.Pipeline.SkipSummary = true
			}
			if flags.Changed("provider") {
				a.cfg.Summary.Provider = provider
			}
			if flags.Changed("timeout") {
				a.cfg.Pipeline.Timeout = timeout
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			root, err := checkDir(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ir, err := pipeline.Extract(ctx, root, meta, a.pipelineOptions())
			if err != nil {
				return err
			}

			if save {
				if err := a.save(ctx, ir); err != nil {
					return err
				}
			}
			return writeIR(cmd.OutOrStdout(), ir, format)
		},
	}

	f := cmd.Flags()
	f.StringVar(&meta.URL, "url", "", "source URL of the repository")
	f.IntVar(&meta.Stars, "stars", 0, "star count")
	f.IntVar(&meta.Contributors, "contributors", 0, "contributor count")
	f.BoolVar(&skipSummary, "skip-summary", false, "do not call the LLM summarizer")
	f.StringVar(&provider, "provider", "", "summary provider: anthropic, openai, gemini, none")
	f.DurationVar(&timeout, "timeout", 0, "extraction deadline; partial results are kept")
	f.StringVar(&format, "format", "json", "output format: json or toon")
	f.BoolVar(&save, "save", false, "also persist the Repo IR to the configured store")
	return cmd
}

func (a *app) save(ctx context.Context, ir *model.RepoIR) error {
	st, closeStore, err := store.Open(ctx, a.cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer closeStore()
	if err := store.Save(ctx, st, ir); err != nil {
		return fmt.Errorf("saving %s: %w", ir.RepoMetadata.Name, err)
	}
	a.log.Info("saved repo IR", "repo", ir.RepoMetadata.Name, "backend", a.cfg.Store.Backend)
	return nil
}

func writeIR(w io.Writer, ir *model.RepoIR, format string) error {
	if format == "toon" {
		_, err := fmt.Fprintln(w, toon.Encode(ir, ranking.DefaultBudget))
		return err
	}
	return writeJSON(w, ir)
}
