package store

import (
	"chatapp-servers/internal/models"
	"chatapp-servers/internal/snowflake"
	"context"
	"database/sql"
	"fmt"
)

const serverColumns = "servers.id, servers.owner_id, servers.category_id, servers.name, servers.description"

func scanServers(rows *sql.Rows) ([]models.Server, error) {
	defer rows.Close()

	servers := []models.Server{}
	for rows.Next() {
		var srv models.Server
		err := rows.Scan(&srv.ID, &srv.OwnerID, &srv.CategoryID, &srv.Name, &srv.Description)
		if err != nil {
			return nil, err
		}
		servers = append(servers, srv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return servers, nil
}

func getServer(ctx context.Context, q querier, id int64) (models.Server, error) {
	var srv models.Server
	err := q.QueryRowContext(ctx, "SELECT "+serverColumns+" FROM servers WHERE id = ?", id).
		Scan(&srv.ID, &srv.OwnerID, &srv.CategoryID, &srv.Name, &srv.Description)
	if err != nil {
		return srv, notFound(err, "server", id)
	}
	return srv, nil
}

func (s *Store) GetServer(ctx context.Context, id int64) (models.Server, error) {
	return getServer(ctx, s.db, id)
}

func (s *Store) ListServersByMember(ctx context.Context, userID int64) ([]models.Server, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+serverColumns+" FROM servers JOIN server_members ON servers.id = server_members.server_id WHERE server_members.user_id = ? ORDER BY servers.id", userID)
	if err != nil {
		return nil, err
	}
	return scanServers(rows)
}

func (s *Store) ListServersByCategory(ctx context.Context, categoryID int64) ([]models.Server, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+serverColumns+" FROM servers WHERE category_id = ? ORDER BY id", categoryID)
	if err != nil {
		return nil, err
	}
	return scanServers(rows)
}

func ensureExists(ctx context.Context, q querier, table string, id int64) error {
	var exists bool
	err := q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	return nil
}

// SaveServer inserts srv when its ID is zero, making the owner its first member,
// and updates it otherwise.
func (s *Store) SaveServer(ctx context.Context, srv *models.Server) error {
	creating := srv.ID == 0
	if creating {
		id, err := snowflake.Generate()
		if err != nil {
			return err
		}
		srv.ID = id
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureExists(ctx, tx, "categories", srv.CategoryID); err != nil {
			return err
		}
		if err := ensureExists(ctx, tx, "users", srv.OwnerID); err != nil {
			return err
		}

		if creating {
			_, err := tx.ExecContext(ctx, "INSERT INTO servers (id, owner_id, category_id, name, description) VALUES (?, ?, ?, ?, ?)",
				srv.ID, srv.OwnerID, srv.CategoryID, srv.Name, srv.Description)
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, "INSERT INTO server_members (server_id, user_id) VALUES (?, ?)", srv.ID, srv.OwnerID)
			return err
		}

		if err := ensureExists(ctx, tx, "servers", srv.ID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, "UPDATE servers SET owner_id = ?, category_id = ?, name = ?, description = ? WHERE id = ?",
			srv.OwnerID, srv.CategoryID, srv.Name, srv.Description, srv.ID)
		return err
	})
	if err != nil {
		if creating {
			srv.ID = 0
		}
		return fmt.Errorf("saving server: %w", err)
	}
	return nil
}

func (s *Store) IsServerOwner(ctx context.Context, serverID int64, userID int64) (bool, error) {
	var ownsServer bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM servers WHERE id = ? AND owner_id = ?)", serverID, userID).Scan(&ownsServer)
	if err != nil {
		return false, err
	}
	return ownsServer, nil
}

// DeleteServer deletes a server owned by ownerID together with its channels and their files.
// deleted reports whether the rows are gone, which stays true when only the file cleanup failed.
func (s *Store) DeleteServer(ctx context.Context, serverID int64, ownerID int64) (deleted bool, err error) {
	var files []string

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		srv, err := getServer(ctx, tx, serverID)
		if err != nil {
			return err
		}
		if srv.OwnerID != ownerID {
			return fmt.Errorf("user %d deleting server %d: %w", ownerID, serverID, ErrForbidden)
		}

		rows, err := tx.QueryContext(ctx, "SELECT icon, banner FROM channels WHERE server_id = ?", serverID)
		if err != nil {
			return err
		}
		files, err = scanFiles(rows)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM servers WHERE id = ?", serverID)
		return err
	})
	if err != nil {
		return false, err
	}

	return true, s.deleteFiles(files...)
}

func (s *Store) IsMember(ctx context.Context, serverID int64, userID int64) (bool, error) {
	var isMember bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM server_members WHERE server_id = ? AND user_id = ?)", serverID, userID).Scan(&isMember)
	if err != nil {
		return false, err
	}
	return isMember, nil
}

// AddMember is a no-op for users who already are members.
func (s *Store) AddMember(ctx context.Context, serverID int64, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureExists(ctx, tx, "servers", serverID); err != nil {
			return err
		}
		if err := ensureExists(ctx, tx, "users", userID); err != nil {
			return err
		}

		var isMember bool
		err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM server_members WHERE server_id = ? AND user_id = ?)", serverID, userID).Scan(&isMember)
		if err != nil || isMember {
			return err
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO server_members (server_id, user_id) VALUES (?, ?)", serverID, userID)
		return err
	})
}

// RemoveMember refuses to remove the owner, who leaves a server by deleting it.
func (s *Store) RemoveMember(ctx context.Context, serverID int64, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		srv, err := getServer(ctx, tx, serverID)
		if err != nil {
			return err
		}
		if srv.OwnerID == userID {
			return fmt.Errorf("owner leaving server %d: %w", serverID, ErrForbidden)
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM server_members WHERE server_id = ? AND user_id = ?", serverID, userID)
		return err
	})
}

func (s *Store) ListMembers(ctx context.Context, serverID int64) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			users.id,
			users.display_name,
			server_members.since
		FROM
			server_members
		JOIN
			users ON server_members.user_id = users.id
		WHERE
			server_members.server_id = ?
		ORDER BY
			server_members.since, users.id
		`, serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var member models.Member
		if err := rows.Scan(&member.UserID, &member.DisplayName, &member.Since); err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}
