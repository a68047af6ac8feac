package store

import (
	"context"
)

func (s *Store) referencedFiles(ctx context.Context) (map[string]struct{}, error) {
	referenced := make(map[string]struct{})

	rows, err := s.db.QueryContext(ctx, "SELECT icon, '' FROM categories UNION ALL SELECT icon, banner FROM channels")
	if err != nil {
		return nil, err
	}
	names, err := scanFiles(rows)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		referenced[name] = struct{}{}
	}
	return referenced, nil
}

// PruneOrphans finds stored files no row refers to and deletes them unless dryRun is set.
// Uploads of saves still in flight look orphaned, so it is meant to run while nothing writes.
func (s *Store) PruneOrphans(ctx context.Context, dryRun bool) ([]string, error) {
	var stored []string
	err := s.files.Walk(func(name string) error {
		stored = append(stored, name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	referenced, err := s.referencedFiles(ctx)
	if err != nil {
		return nil, err
	}

	orphans := []string{}
	for _, name := range stored {
		if _, ok := referenced[name]; !ok {
			orphans = append(orphans, name)
		}
	}

	if dryRun {
		return orphans, nil
	}

	s.sugar.Infof("Pruning %d orphaned files", len(orphans))
	return orphans, s.deleteFiles(orphans...)
}
