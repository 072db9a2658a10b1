package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phobologic/repoir/internal/pipeline"
	"github.com/phobologic/repoir/internal/store"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		reposDir string
		limit    int
		workers  int
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "batch <repo_list.json>",
		Short: "Extract and store Repo IRs for every repository in a repo list",
		Long: `Read a JSON repo list ([{name, url, clone_url, star_count, num_contributors}])
and extract each checkout found at <repos-dir>/<name>. Repositories already in
the store are skipped unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("repos-dir") {
				a.cfg.Batch.ReposDir = reposDir
			}
			if flags.Changed("workers") {
				a.cfg.Batch.Workers = workers
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			entries, err := pipeline.LoadRepoList(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, closeStore, err := store.Open(ctx, a.cfg.StoreOptions())
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer closeStore()

			summary, err := pipeline.Batch(ctx, entries, pipeline.BatchOptions{
				ReposDir: a.cfg.Batch.ReposDir,
				Limit:    limit,
				Workers:  a.cfg.Batch.Workers,
				Force:    force,
				Store:    st,
				Extract:  a.pipelineOptions(),
				Logger:   a.log,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Batch extraction complete (run %s):\n", summary.RunID)
			fmt.Fprintf(out, "  Success: %d\n", summary.Success)
			fmt.Fprintf(out, "  Failed: %d\n", summary.Failed)
			fmt.Fprintf(out, "  Skipped: %d\n", summary.Skipped)
			fmt.Fprintf(out, "  Total: %d\n", summary.Total)
			for _, e := range summary.Errors {
				fmt.Fprintf(out, "  - %s: %s\n", e.Name, e.Error)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&reposDir, "repos-dir", "data/repos", "directory holding one checkout per repository")
	f.IntVar(&limit, "limit", 0, "maximum repositories to process (0 = all)")
	f.IntVar(&workers, "workers", 0, "concurrent extractions (default from config)")
	f.BoolVar(&force, "force", false, "re-extract repositories already in the store")
	return cmd
}
