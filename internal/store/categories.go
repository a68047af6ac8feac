package store

import (
	"chatapp-servers/internal/models"
	"chatapp-servers/internal/snowflake"
	"chatapp-servers/internal/storage"
	"context"
	"database/sql"
	"fmt"
)

func getCategory(ctx context.Context, q querier, id int64) (models.Category, error) {
	var c models.Category
	err := q.QueryRowContext(ctx, "SELECT id, name, description, icon FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Description, &c.Icon)
	if err != nil {
		return c, notFound(err, "category", id)
	}
	return c, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (models.Category, error) {
	return getCategory(ctx, s.db, id)
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, description, icon FROM categories ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// SaveCategory inserts c when its ID is zero and updates it otherwise.
// A non-nil icon is validated and stored first and replaces c.Icon.
// When the saved icon differs from the persisted one the old file is deleted.
func (s *Store) SaveCategory(ctx context.Context, c *models.Category, icon *storage.Upload) error {
	if err := runChecks(icon, iconChecks); err != nil {
		return err
	}

	previous := *c
	creating := c.ID == 0
	if creating {
		id, err := snowflake.Generate()
		if err != nil {
			return err
		}
		c.ID = id
	}

	pending := pendingUploads{store: s}
	if icon != nil {
		name, err := pending.save(icon, storage.CategoryIconPath(c.ID, icon.Filename))
		if err != nil {
			*c = previous
			return err
		}
		c.Icon = name
	}

	var stale string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if creating {
			_, err := tx.ExecContext(ctx, "INSERT INTO categories (id, name, description, icon) VALUES (?, ?, ?, ?)",
				c.ID, c.Name, c.Description, c.Icon)
			return err
		}

		existing, err := getCategory(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		stale = staleFile(existing.Icon, c.Icon)

		_, err = tx.ExecContext(ctx, "UPDATE categories SET name = ?, description = ?, icon = ? WHERE id = ?",
			c.Name, c.Description, c.Icon, c.ID)
		return err
	})
	if err != nil {
		pending.discard()
		*c = previous
		return fmt.Errorf("saving category: %w", err)
	}

	return s.deleteFiles(stale)
}

// DeleteCategory deletes the category with the servers and channels that cascade
// from it, then their files. It returns the IDs of the deleted servers, also
// when removing files failed after the commit.
func (s *Store) DeleteCategory(ctx context.Context, id int64) ([]int64, error) {
	var files []string
	var serverIDs []int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		category, err := getCategory(ctx, tx, id)
		if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, "SELECT id FROM servers WHERE category_id = ?", id)
		if err != nil {
			return err
		}
		serverIDs, err = scanIDs(rows)
		if err != nil {
			return err
		}

		rows, err = tx.QueryContext(ctx, `
			SELECT channels.icon, channels.banner
			FROM channels
			JOIN servers ON channels.server_id = servers.id
			WHERE servers.category_id = ?`, id)
		if err != nil {
			return err
		}
		files, err = scanFiles(rows)
		if err != nil {
			return err
		}
		files = append(files, category.Icon)

		_, err = tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return serverIDs, s.deleteFiles(files...)
}
