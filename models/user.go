package models

import "time"

// Profile is the stored user profile
type Profile struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PhotoURL  string    `json:"photoUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Preferences drive the preference tier of recommendations
type Preferences struct {
	Language string   `json:"language"`
	Artists  []string `json:"artists"`
}

// HistoryEntry is one played song. PlayedAt is unix milliseconds.
type HistoryEntry struct {
	SongID   string `json:"songId"`
	SongName string `json:"songName,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Duration int    `json:"duration,omitempty"`
	PlayedAt int64  `json:"playedAt"`
}

type SkippedEntry struct {
	SongID    string `json:"songId"`
	SongName  string `json:"songName,omitempty"`
	SkippedAt int64  `json:"skippedAt"`
}

type SearchEntry struct {
	ID        string `json:"id"`
	Query     string `json:"query"`
	Timestamp int64  `json:"timestamp"`
}

// CurrentPlaying is the song a user is listening to right now
type CurrentPlaying struct {
	SongID   string `json:"songId"`
	SongName string `json:"songName,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Position int    `json:"position"`
}
