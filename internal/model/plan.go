package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
)

// ArchitectureDecision is one design decision along a named dimension.
type ArchitectureDecision struct {
	Dimension              string   `json:"dimension" validate:"required"`
	Recommendation         string   `json:"recommendation"`
	Rationale              string   `json:"rationale"`
	AlternativesConsidered []string `json:"alternatives_considered"`
	FilesAffected          []string `json:"files_affected"`
}

// Ticket is an implementation task referencing concrete files.
type Ticket struct {
	ID              string   `json:"id" validate:"required"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	FilesToModify   []string `json:"files_to_modify"`
	FilesToCreate   []string `json:"files_to_create"`
	EstimatedEffort string   `json:"estimated_effort,omitempty" validate:"omitempty,oneof=small medium large" jsonschema:"enum=small,enum=medium,enum=large"`
	Dependencies    []string `json:"dependencies"`
}

// TechnologyChoice is a recommended technology for a category.
type TechnologyChoice struct {
	Category  string `json:"category"`
	Choice    string `json:"choice"`
	Rationale string `json:"rationale"`
}

// ImplementationPlan is produced externally and consumed by the grounding scorer.
type ImplementationPlan struct {
	SpecID                string                 `json:"spec_id"`
	RepoID                string                 `json:"repo_id"`
	ScaleTier             ScaleTier              `json:"scale_tier,omitempty" validate:"omitempty,oneof=hobby startup growth enterprise"`
	ArchitectureDecisions []ArchitectureDecision `json:"architecture_decisions" validate:"dive"`
	Tickets               []Ticket               `json:"tickets" validate:"dive"`
	TechnologyChoices     []TechnologyChoice     `json:"technology_choices"`
}

// ReferencedPaths returns the sorted, deduplicated set of every file path the
// plan references through decisions and tickets.
func (p *ImplementationPlan) ReferencedPaths() []string {
	seen := make(map[string]struct{})
	for _, d := range p.ArchitectureDecisions {
		for _, f := range d.FilesAffected {
			seen[f] = struct{}{}
		}
	}
	for _, t := range p.Tickets {
		for _, f := range t.FilesToModify {
			seen[f] = struct{}{}
		}
		for _, f := range t.FilesToCreate {
			seen[f] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for f := range seen {
		paths = append(paths, f)
	}
	sort.Strings(paths)
	return paths
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks enum fields and required identifiers.
func (p *ImplementationPlan) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}
	return nil
}

// LoadPlan reads and validates a JSON plan document.
func LoadPlan(path string) (*ImplementationPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	var p ImplementationPlan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}
