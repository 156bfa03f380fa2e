package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/teal-fm/melody/models"
)

func (db *DB) GetPreferences(ctx context.Context, uid string) (*models.Preferences, error) {
	var language sql.NullString
	var artists string

	err := db.QueryRowContext(ctx, `
	SELECT language, artists
	FROM preferences WHERE uid = ?`, uid).Scan(&language, &artists)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	prefs := &models.Preferences{Language: language.String, Artists: []string{}}
	if artists != "" {
		if err := json.Unmarshal([]byte(artists), &prefs.Artists); err != nil {
			return nil, fmt.Errorf("decode preferred artists for %s: %w", uid, err)
		}
	}
	return prefs, nil
}

// SetPreferences replaces the user's preferences; the last write wins.
func (db *DB) SetPreferences(ctx context.Context, uid string, prefs *models.Preferences) error {
	artists := prefs.Artists
	if artists == nil {
		artists = []string{}
	}
	encoded, err := json.Marshal(artists)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
	INSERT INTO preferences (uid, language, artists, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(uid) DO UPDATE SET
		language = excluded.language,
		artists = excluded.artists,
		updated_at = excluded.updated_at`,
		uid, prefs.Language, string(encoded), time.Now().UTC())

	return err
}
