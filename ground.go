package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/repoir/internal/grounding"
	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/toon"
)

// pairRef is one line of a batch grounding file. Relative paths are resolved
// against the directory of that file.
type pairRef struct {
	Plan string `json:"plan"`
	Repo string `json:"repo"`
}

func newGroundCmd(a *app) *cobra.Command {
	var (
		batchPath string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "ground <plan.json> <repo>",
		Short: "Score how many of a plan's file references exist in a repository",
		Long: `Compute the repo grounding score of an implementation plan: the fraction of
its referenced paths that exist in the repository, trying the path as written,
then without a leading src/, then with src/ prepended.

With --batch, read [{"plan": ..., "repo": ...}] pairs and print aggregate
statistics alongside every per-plan report.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if batchPath != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if batchPath != "" {
				pairs, err := loadPairs(batchPath)
				if err != nil {
					return err
				}
				report := grounding.ScoreBatch(pairs)
				a.log.Info("grounding batch scored", "plans", report.NumPlans, "mean_rgs", report.MeanRGS)
				if format == "toon" {
					_, err := fmt.Fprintln(out, toon.EncodeBatch(report))
					return err
				}
				return writeJSON(out, report)
			}

			plan, err := model.LoadPlan(args[0])
			if err != nil {
				return err
			}
			repo, err := checkDir(args[1])
			if err != nil {
				return err
			}
			report := grounding.Score(plan, repo)
			a.log.Debug("plan scored", "repo", repo, "score", report.Score, "invalid", len(report.InvalidPaths))
			if format == "toon" {
				_, err := fmt.Fprintln(out, toon.EncodeReport(report))
				return err
			}
			return writeJSON(out, report)
		},
	}

	f := cmd.Flags()
	f.StringVar(&batchPath, "batch", "", "JSON file of {plan, repo} pairs to score together")
	f.StringVar(&format, "format", "json", "output format: json or toon")
	return cmd
}

func loadPairs(path string) ([]grounding.Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pairs: %w", err)
	}
	var refs []pairRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("decoding pairs %s: %w", path, err)
	}

	base := filepath.Dir(path)
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	var errs []error
	pairs := make([]grounding.Pair, 0, len(refs))
	for i, ref := range refs {
		if ref.Plan == "" || ref.Repo == "" {
			errs = append(errs, fmt.Errorf("pair %d: plan and repo are required", i))
			continue
		}
		plan, err := model.LoadPlan(resolve(ref.Plan))
		if err != nil {
			errs = append(errs, fmt.Errorf("pair %d: %w", i, err))
			continue
		}
		pairs = append(pairs, grounding.Pair{Plan: plan, Repo: resolve(ref.Repo)})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return pairs, nil
}
