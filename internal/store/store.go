// Package store persists Repo IR artifacts, one per repository, keyed by
// repository name.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/repoir/internal/model"
)

// ErrNotFound is returned when no artifact exists for a name.
var ErrNotFound = errors.New("artifact not found")

// Store holds serialized Repo IR documents.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

// Save serializes ir as indented JSON under its repository name.
func Save(ctx context.Context, s Store, ir *model.RepoIR) error {
	data, err := json.MarshalIndent(ir, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding repo ir: %w", err)
	}
	return s.Put(ctx, ir.RepoMetadata.Name, data)
}

// Load reads back the Repo IR stored under name.
func Load(ctx context.Context, s Store, name string) (*model.RepoIR, error) {
	data, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	var ir model.RepoIR
	if err := json.Unmarshal(data, &ir); err != nil {
		return nil, fmt.Errorf("decoding repo ir %s: %w", name, err)
	}
	return &ir, nil
}

// Exists reports whether an artifact is stored under name.
func Exists(ctx context.Context, s Store, name string) (bool, error) {
	_, err := s.Get(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	}
	return false, err
}

// checkName rejects names that cannot be used as a single path segment.
func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", errors.New("artifact name is required")
	case name == "." || name == "..", strings.ContainsAny(name, `/\`):
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return name, nil
}
