package store

import (
	"chatapp-servers/internal/models"
	"chatapp-servers/internal/snowflake"
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == 0 {
		id, err := snowflake.Generate()
		if err != nil {
			return err
		}
		u.ID = id
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var taken bool
		err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = ? OR username = ?)", u.Email, u.UserName).Scan(&taken)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("user %s: %w", u.UserName, ErrAlreadyExists)
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO users (id, email, username, display_name, password) VALUES (?, ?, ?, ?, ?)",
			u.ID, u.Email, u.UserName, u.DisplayName, u.Password)
		return err
	})
}

func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, "SELECT id, email, username, display_name, password FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Email, &u.UserName, &u.DisplayName, &u.Password)
	if err != nil {
		return u, notFound(err, "user", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, "SELECT id, email, username, display_name, password FROM users WHERE email = ?", email).
		Scan(&u.ID, &u.Email, &u.UserName, &u.DisplayName, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return u, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
	} else if err != nil {
		return u, err
	}
	return u, nil
}

func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", id).Scan(&exists)
	return exists, err
}

// DeleteUser deletes the user with every server and channel they own and
// removes the files of all channels that go with them. It returns the IDs of
// the deleted servers, also when removing files failed after the commit.
func (s *Store) DeleteUser(ctx context.Context, id int64) ([]int64, error) {
	var files []string
	var serverIDs []int64

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureExists(ctx, tx, "users", id); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, "SELECT id FROM servers WHERE owner_id = ?", id)
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
			LEFT JOIN servers ON channels.server_id = servers.id
			WHERE channels.owner_id = ? OR servers.owner_id = ?`, id, id)
		if err != nil {
			return err
		}
		files, err = scanFiles(rows)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return serverIDs, s.deleteFiles(files...)
}
