package models

// Link is a (quality, url) pair used for artwork and media URLs
type Link struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

// AlbumRef is the album a song belongs to
type AlbumRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// ArtistCredits holds artist names split by credit kind
type ArtistCredits struct {
	Primary  []string `json:"primary"`
	Featured []string `json:"featured"`
}

// All returns primary credits followed by featured credits.
func (a ArtistCredits) All() []string {
	all := make([]string, 0, len(a.Primary)+len(a.Featured))
	all = append(all, a.Primary...)
	return append(all, a.Featured...)
}

// Song is the canonical song record, independent of which upstream call produced it.
//
// DownloadURL is either nil or a non-empty list of links with non-empty URLs.
type Song struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Type            string        `json:"type"`
	Year            string        `json:"year,omitempty"`
	ReleaseDate     string        `json:"releaseDate,omitempty"`
	Duration        *int          `json:"duration,omitempty"` // seconds
	Label           string        `json:"label,omitempty"`
	Language        string        `json:"language,omitempty"`
	ExplicitContent bool          `json:"explicitContent"`
	PlayCount       *int64        `json:"playCount,omitempty"`
	HasLyrics       bool          `json:"hasLyrics"`
	LyricsID        string        `json:"lyricsId,omitempty"`
	URL             string        `json:"url,omitempty"`
	Copyright       string        `json:"copyright,omitempty"`
	Album           AlbumRef      `json:"album"`
	Artists         ArtistCredits `json:"artists"`
	Image           []Link        `json:"image"`
	DownloadURL     []Link        `json:"downloadUrl,omitempty"`
}

// NeedsPlayback reports whether the song is missing its playback links.
func (s *Song) NeedsPlayback() bool {
	if s.Type != "" && s.Type != TypeSong {
		return false
	}
	return len(s.DownloadURL) == 0
}

const (
	TypeSong     = "song"
	TypeAlbum    = "album"
	TypeArtist   = "artist"
	TypePlaylist = "playlist"
)
