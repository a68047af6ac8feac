package store

import (
	"chatapp-servers/internal/models"
	"chatapp-servers/internal/snowflake"
	"chatapp-servers/internal/storage"
	"context"
	"database/sql"
	"fmt"
)

const channelColumns = "id, owner_id, server_id, name, topic, icon, banner"

func getChannel(ctx context.Context, q querier, id int64) (models.Channel, error) {
	var ch models.Channel
	err := q.QueryRowContext(ctx, "SELECT "+channelColumns+" FROM channels WHERE id = ?", id).
		Scan(&ch.ID, &ch.OwnerID, &ch.ServerID, &ch.Name, &ch.Topic, &ch.Icon, &ch.Banner)
	if err != nil {
		return ch, notFound(err, "channel", id)
	}
	return ch, nil
}

func (s *Store) GetChannel(ctx context.Context, id int64) (models.Channel, error) {
	return getChannel(ctx, s.db, id)
}

func (s *Store) ListChannels(ctx context.Context, serverID int64) ([]models.Channel, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+channelColumns+" FROM channels WHERE server_id = ? ORDER BY id", serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := []models.Channel{}
	for rows.Next() {
		var ch models.Channel
		err := rows.Scan(&ch.ID, &ch.OwnerID, &ch.ServerID, &ch.Name, &ch.Topic, &ch.Icon, &ch.Banner)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return channels, nil
}

// SaveChannel inserts ch when its ID is zero and updates it otherwise.
// Non-nil icon and banner uploads are validated, stored and replace the
// matching field. Each field is diffed on its own against the persisted row
// and only the replaced files are deleted.
func (s *Store) SaveChannel(ctx context.Context, ch *models.Channel, icon *storage.Upload, banner *storage.Upload) error {
	if err := runChecks(icon, iconChecks); err != nil {
		return err
	}
	if err := runChecks(banner, bannerChecks); err != nil {
		return err
	}

	previous := *ch
	creating := ch.ID == 0
	if creating {
		id, err := snowflake.Generate()
		if err != nil {
			return err
		}
		ch.ID = id
	}

	pending := pendingUploads{store: s}
	if icon != nil {
		name, err := pending.save(icon, storage.ChannelIconPath(ch.ID, icon.Filename))
		if err != nil {
			*ch = previous
			return err
		}
		ch.Icon = name
	}
	if banner != nil {
		name, err := pending.save(banner, storage.ChannelBannerPath(ch.ID, banner.Filename))
		if err != nil {
			pending.discard()
			*ch = previous
			return err
		}
		ch.Banner = name
	}

	var staleIcon, staleBanner string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureExists(ctx, tx, "servers", ch.ServerID); err != nil {
			return err
		}
		if err := ensureExists(ctx, tx, "users", ch.OwnerID); err != nil {
			return err
		}

		if creating {
			_, err := tx.ExecContext(ctx, "INSERT INTO channels ("+channelColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
				ch.ID, ch.OwnerID, ch.ServerID, ch.Name, ch.Topic, ch.Icon, ch.Banner)
			return err
		}

		existing, err := getChannel(ctx, tx, ch.ID)
		if err != nil {
			return err
		}
		staleIcon = staleFile(existing.Icon, ch.Icon)
		staleBanner = staleFile(existing.Banner, ch.Banner)

		_, err = tx.ExecContext(ctx, "UPDATE channels SET owner_id = ?, server_id = ?, name = ?, topic = ?, icon = ?, banner = ? WHERE id = ?",
			ch.OwnerID, ch.ServerID, ch.Name, ch.Topic, ch.Icon, ch.Banner, ch.ID)
		return err
	})
	if err != nil {
		pending.discard()
		*ch = previous
		return fmt.Errorf("saving channel: %w", err)
	}

	return s.deleteFiles(staleIcon, staleBanner)
}

// DeleteChannel deletes the channel and its icon and banner files.
// The returned channel is zero when no row was deleted.
func (s *Store) DeleteChannel(ctx context.Context, id int64) (models.Channel, error) {
	var ch models.Channel

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		ch, err = getChannel(ctx, tx, id)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM channels WHERE id = ?", id)
		return err
	})
	if err != nil {
		return models.Channel{}, err
	}

	return ch, s.deleteFiles(ch.Icon, ch.Banner)
}
