package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/learnbell/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database is per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceNotifications deletes the cached rows for userID and inserts
// list in a single transaction.
func (s *SQLiteStore) ReplaceNotifications(
	ctx context.Context,
	userID string,
	list []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clearing notifications for %s: %w", userID, err)
	}

	const query = `
		INSERT OR REPLACE INTO notifications (
			user_id, id, title, message, type, link,
			is_read, created_at, updated_at, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, n := range list {
		_, err = stmt.ExecContext(ctx,
			userID, n.ID, n.Title, n.Message, n.Type, n.Link,
			boolToInt(n.IsRead), n.CreatedAt.UTC(), n.UpdatedAt.UTC(), now,
		)
		if err != nil {
			return fmt.Errorf("inserting notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// GetNotifications returns the cached notifications for userID, newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	userID string,
	limit int,
) ([]model.Notification, error) {
	query := `
		SELECT id, title, message, type, link, is_read, created_at, updated_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var list []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}

	return list, rows.Err()
}

// MarkNotificationRead flags a single cached notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1, updated_at = ? WHERE user_id = ? AND id = ?",
		time.Now().UTC(), userID, id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// SaveStats upserts the counters for userID.
func (s *SQLiteStore) SaveStats(ctx context.Context, userID string, stats model.Stats) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO notification_stats (user_id, total, unread, updated_at)
		VALUES (?, ?, ?, ?)`,
		userID, stats.Total, stats.Unread, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving stats for %s: %w", userID, err)
	}
	return nil
}

// GetStats returns the cached counters for userID.
func (s *SQLiteStore) GetStats(ctx context.Context, userID string) (model.Stats, bool, error) {
	var stats model.Stats
	err := s.db.GetContext(ctx, &stats,
		"SELECT total, unread FROM notification_stats WHERE user_id = ?", userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Stats{}, false, nil
	}
	if err != nil {
		return model.Stats{}, false, fmt.Errorf("getting stats for %s: %w", userID, err)
	}
	return stats, true, nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		readInt   int
		createdAt time.Time
		updatedAt time.Time
	)

	err := rows.Scan(
		&n.ID, &n.Title, &n.Message, &n.Type, &n.Link,
		&readInt, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.IsRead = readInt != 0
	n.CreatedAt = createdAt
	n.UpdatedAt = updatedAt

	return n, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
