package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/teal-fm/melody/models"
)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// AppendHistory records a play. Replaying a song moves it to the top of the
// history instead of adding a second row.
func (db *DB) AppendHistory(ctx context.Context, uid string, entry *models.HistoryEntry) error {
	if entry.PlayedAt == 0 {
		entry.PlayedAt = nowMillis()
	}

	_, err := db.ExecContext(ctx, `
	INSERT INTO history (uid, song_id, song_name, artist, duration, played_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(uid, song_id) DO UPDATE SET
		song_name = excluded.song_name,
		artist = excluded.artist,
		duration = excluded.duration,
		played_at = excluded.played_at`,
		uid, entry.SongID, entry.SongName, entry.Artist, entry.Duration, entry.PlayedAt)

	return err
}

// GetRecentHistory returns up to limit plays, most recent first.
func (db *DB) GetRecentHistory(ctx context.Context, uid string, limit int) ([]models.HistoryEntry, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT song_id, song_name, artist, duration, played_at
	FROM history
	WHERE uid = ?
	ORDER BY played_at DESC
	LIMIT ?`, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		var name, artist sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(&e.SongID, &name, &artist, &duration, &e.PlayedAt); err != nil {
			return nil, err
		}
		e.SongName, e.Artist, e.Duration = name.String, artist.String, int(duration.Int64)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (db *DB) AppendSkipped(ctx context.Context, uid string, entry *models.SkippedEntry) error {
	if entry.SkippedAt == 0 {
		entry.SkippedAt = nowMillis()
	}

	_, err := db.ExecContext(ctx, `
	INSERT INTO skipped (uid, song_id, song_name, skipped_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(uid, song_id) DO UPDATE SET
		song_name = excluded.song_name,
		skipped_at = excluded.skipped_at`,
		uid, entry.SongID, entry.SongName, entry.SkippedAt)

	return err
}

// AppendSearch stores a search query under a fresh id.
func (db *DB) AppendSearch(ctx context.Context, uid string, entry *models.SearchEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = nowMillis()
	}

	_, err := db.ExecContext(ctx, `
	INSERT INTO searches (id, uid, query, timestamp)
	VALUES (?, ?, ?, ?)`,
		entry.ID, uid, entry.Query, entry.Timestamp)

	return err
}

// GetRecentSearches returns up to limit searches, most recent first.
func (db *DB) GetRecentSearches(ctx context.Context, uid string, limit int) ([]models.SearchEntry, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT id, query, timestamp
	FROM searches
	WHERE uid = ?
	ORDER BY timestamp DESC
	LIMIT ?`, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.SearchEntry{}
	for rows.Next() {
		var e models.SearchEntry
		if err := rows.Scan(&e.ID, &e.Query, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (db *DB) SetCurrentPlaying(ctx context.Context, uid string, cp *models.CurrentPlaying) error {
	_, err := db.ExecContext(ctx, `
	INSERT INTO current_playing (uid, song_id, song_name, artist, position, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(uid) DO UPDATE SET
		song_id = excluded.song_id,
		song_name = excluded.song_name,
		artist = excluded.artist,
		position = excluded.position,
		updated_at = excluded.updated_at`,
		uid, cp.SongID, cp.SongName, cp.Artist, cp.Position, time.Now().UTC())

	return err
}

// GetCurrentPlaying returns nil when nothing has been reported for the user.
func (db *DB) GetCurrentPlaying(ctx context.Context, uid string) (*models.CurrentPlaying, error) {
	cp := &models.CurrentPlaying{}
	var name, artist sql.NullString
	var position sql.NullInt64

	err := db.QueryRowContext(ctx, `
	SELECT song_id, song_name, artist, position
	FROM current_playing WHERE uid = ?`, uid).Scan(&cp.SongID, &name, &artist, &position)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cp.SongName, cp.Artist, cp.Position = name.String, artist.String, int(position.Int64)
	return cp, nil
}
