package models

// Album is the canonical album record. Songs may be empty until fetched.
type Album struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Image           []Link `json:"image"`
	Language        string `json:"language,omitempty"`
	Year            string `json:"year,omitempty"`
	PlayCount       *int64 `json:"playCount,omitempty"`
	ExplicitContent bool   `json:"explicitContent"`
	Artist          string `json:"artist,omitempty"`
	URL             string `json:"url,omitempty"`
	SongCount       int    `json:"songCount"`
	Songs           []Song `json:"songs"`
}

// Playlist is the canonical playlist record
type Playlist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Image     []Link `json:"image"`
	Language  string `json:"language,omitempty"`
	SongCount int    `json:"songCount"`
	Followers int64  `json:"followers,omitempty"`
	URL       string `json:"url,omitempty"`
	Songs     []Song `json:"songs"`
}

// Artist is the canonical artist record. Top songs and albums are fetched separately.
type Artist struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Role             string `json:"role,omitempty"`
	Type             string `json:"type"`
	Image            []Link `json:"image"`
	URL              string `json:"url,omitempty"`
	FollowerCount    int64  `json:"followerCount,omitempty"`
	DominantLanguage string `json:"dominantLanguage,omitempty"`
	Bio              string `json:"bio,omitempty"`
}

// SearchResult is one page of typed search results
type SearchResult[T any] struct {
	Total   int `json:"total"`
	Start   int `json:"start"`
	Results []T `json:"results"`
}

// SearchHit is a lightweight entry from the global search sections.
type SearchHit struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Image       []Link `json:"image"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
}

// GlobalSearch groups global search hits by section.
type GlobalSearch struct {
	TopQuery  []SearchHit `json:"topQuery"`
	Songs     []SearchHit `json:"songs"`
	Albums    []SearchHit `json:"albums"`
	Artists   []SearchHit `json:"artists"`
	Playlists []SearchHit `json:"playlists"`
}

type Lyrics struct {
	SongID    string `json:"songId"`
	Lyrics    string `json:"lyrics"`
	Snippet   string `json:"snippet,omitempty"`
	Copyright string `json:"copyright,omitempty"`
}

// Recommendation sources
const (
	SourceSongSuggestions = "song_suggestions"
	SourcePreferences     = "preferences"
	SourceTrending        = "trending"
	SourceMixed           = "mixed"
	SourceNone            = "none"
)

// RecommendationResult is the outcome of one recommendation request.
// Success is false only when no strategy produced a song.
type RecommendationResult struct {
	Success bool   `json:"success"`
	Source  string `json:"source"`
	Data    []Song `json:"data"`
}
