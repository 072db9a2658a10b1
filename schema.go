package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/phobologic/repoir/internal/grounding"
	"github.com/phobologic/repoir/internal/model"
)

var schemaTargets = map[string]struct {
	title string
	value any
}{
	"repo-ir":         {"Repo IR", &model.RepoIR{}},
	"plan":            {"Implementation Plan", &model.ImplementationPlan{}},
	"grounding":       {"Grounding Report", &grounding.Report{}},
	"grounding-batch": {"Grounding Batch Report", &grounding.BatchReport{}},
}

func schemaNames() []string {
	names := make([]string, 0, len(schemaTargets))
	for n := range schemaTargets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema <" + strings.Join(schemaNames(), "|") + ">",
		Short:     "Print the JSON Schema of a repoir document",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: schemaNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, ok := schemaTargets[args[0]]
			if !ok {
				return fmt.Errorf("unknown schema %q", args[0])
			}
			reflector := &jsonschema.Reflector{
				AllowAdditionalProperties:  false,
				RequiredFromJSONSchemaTags: true,
			}
			schema := reflector.Reflect(target.value)
			schema.Title = target.title
			schema.Version = "https://json-schema.org/draft/2020-12/schema"
			return writeJSON(cmd.OutOrStdout(), schema)
		},
	}
}
