// Package store persists categories, servers and channels and keeps the
// files they reference in step with the rows: a replaced or deleted file
// column always removes the file it pointed to.
package store

import (
	"chatapp-servers/internal/storage"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db    *sql.DB
	files storage.Storage
	sugar *zap.SugaredLogger
}

func New(db *sql.DB, files storage.Storage, sugar *zap.SugaredLogger) *Store {
	return &Store{db: db, files: files, sugar: sugar}
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.sugar.Error(rbErr)
		}
		return err
	}

	return tx.Commit()
}

// deleteFiles runs after a commit, so a failure here leaves the rows as they are
// and is only reported.
func (s *Store) deleteFiles(names ...string) error {
	var err error
	for _, name := range names {
		if name == "" {
			continue
		}

		delErr := s.files.Delete(name)
		if delErr != nil {
			s.sugar.Errorf("Failed to delete file [%s]: %v", name, delErr)
			err = multierr.Append(err, fmt.Errorf("deleting file %s: %w", name, delErr))
			continue
		}
		s.sugar.Debugf("Deleted file [%s]", name)
	}
	return err
}

func scanFiles(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var names []string
	for rows.Next() {
		var icon, banner string
		err := rows.Scan(&icon, &banner)
		if err != nil {
			return nil, err
		}
		if icon != "" {
			names = append(names, icon)
		}
		if banner != "" {
			names = append(names, banner)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}
