// Package orm detects persisted-entity declarations across Django,
// SQLAlchemy and Prisma conventions.
package orm

import (
	"context"

	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/scan"
)

// Convention is one model declaration style.
type Convention interface {
	scan.Variant
	Name() string
	Extract(f *scan.File) []model.DataModel
}

// Conventions is the variant registry, in per-file evaluation order.
var Conventions = []Convention{djangoORM{}, sqlAlchemy{}, prisma{}}

// Result is the model detector's contribution to the Repo IR.
type Result struct {
	Models   []model.DataModel
	Warnings []string
}

// Extract runs every convention over its candidate files.
func Extract(ctx context.Context, root string, opts scan.Options) (Result, error) {
	var all []model.DataModel
	warnings, err := scan.Run(ctx, root, Conventions, opts, func(c Convention, f *scan.File) {
		all = append(all, c.Extract(f)...)
	})
	if err != nil {
		return Result{Models: []model.DataModel{}, Warnings: warnings}, err
	}
	return Result{Models: Dedup(all), Warnings: warnings}, nil
}

// Dedup keeps the first model for each (name, declaring file).
func Dedup(all []model.DataModel) []model.DataModel {
	type key struct{ name, file string }
	seen := make(map[key]struct{}, len(all))
	out := make([]model.DataModel, 0, len(all))
	for _, m := range all {
		k := key{m.Name, m.FilePath}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}

func newModel(name, file, orm string) model.DataModel {
	return model.DataModel{
		Name:          name,
		FilePath:      file,
		Fields:        []model.Field{},
		ORM:           orm,
		Relationships: []string{},
	}
}
