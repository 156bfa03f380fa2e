package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/teal-fm/melody/models"
)

// DB is a wrapper around sql.DB holding per-user data: profiles, preferences
// and listening activity.
type DB struct {
	*sql.DB
}

// New opens (and creates, if needed) the sqlite database at dbPath.
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "/" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// an in-memory database lives and dies with its connection
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Initialize sets up the database tables
func (db *DB) Initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			uid TEXT PRIMARY KEY,
			name TEXT,
			email TEXT,
			photo_url TEXT,
			updated_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			uid TEXT PRIMARY KEY,
			language TEXT,
			artists TEXT NOT NULL DEFAULT '[]', -- JSON array of names
			updated_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS history (
			uid TEXT NOT NULL,
			song_id TEXT NOT NULL,
			song_name TEXT,
			artist TEXT,
			duration INTEGER,
			played_at INTEGER NOT NULL, -- unix millis
			PRIMARY KEY (uid, song_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_played_at ON history(uid, played_at DESC)`,
		`CREATE TABLE IF NOT EXISTS skipped (
			uid TEXT NOT NULL,
			song_id TEXT NOT NULL,
			song_name TEXT,
			skipped_at INTEGER NOT NULL,
			PRIMARY KEY (uid, song_id)
		)`,
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			uid TEXT NOT NULL,
			query TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_timestamp ON searches(uid, timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS current_playing (
			uid TEXT PRIMARY KEY,
			song_id TEXT NOT NULL,
			song_name TEXT,
			artist TEXT,
			position INTEGER,
			updated_at TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetProfile returns the stored profile, or nil when the user has none.
func (db *DB) GetProfile(ctx context.Context, uid string) (*models.Profile, error) {
	p := &models.Profile{UID: uid}
	var name, email, photo sql.NullString
	var updated sql.NullTime

	err := db.QueryRowContext(ctx, `
	SELECT name, email, photo_url, updated_at
	FROM profiles WHERE uid = ?`, uid).Scan(&name, &email, &photo, &updated)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Name, p.Email, p.PhotoURL = name.String, email.String, photo.String
	p.UpdatedAt = updated.Time
	return p, nil
}

// SetProfile creates or replaces the user's profile.
func (db *DB) SetProfile(ctx context.Context, p *models.Profile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
	INSERT INTO profiles (uid, name, email, photo_url, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(uid) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		photo_url = excluded.photo_url,
		updated_at = excluded.updated_at`,
		p.UID, p.Name, p.Email, p.PhotoURL, p.UpdatedAt)

	return err
}
