package saavn

import (
	"html"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/teal-fm/melody/logging"
	"github.com/teal-fm/melody/models"
)

var imageSizeExpr = regexp2.MustCompile(`\d+x\d+`, regexp2.None)

var imageQualities = []string{"50x50", "150x150", "500x500"}

// FormatSong maps any upstream song representation to the canonical record.
// Missing fields stay zero; a song without a decryptable media url has no DownloadURL.
func FormatSong(item gjson.Result) (song models.Song) {
	defer recoverFormat("song", item, &song.ID)

	// identity first, a panic further down still returns it
	song.ID = str(item, "id", "songid")
	song.Name = text(item, "song", "title", "name")
	song.Type = str(item, "type")
	if song.Type == "" {
		song.Type = models.TypeSong
	}

	song.Year = str(item, "year", "more_info.year")
	song.Label = text(item, "label", "more_info.label")
	song.Language = str(item, "language", "more_info.language")
	song.URL = str(item, "perma_url", "url")
	song.Album = models.AlbumRef{
		ID:   str(item, "albumid", "album_id", "more_info.album_id"),
		Name: text(item, "album", "more_info.album"),
		URL:  str(item, "album_url", "more_info.album_url"),
	}
	song.ReleaseDate = str(item, "release_date", "more_info.release_date")
	song.Copyright = text(item, "copyright_text", "more_info.copyright_text")
	song.ExplicitContent = boolish(pick(item, "explicit_content", "more_info.explicit_content"))
	song.HasLyrics = boolish(pick(item, "has_lyrics", "more_info.has_lyrics"))
	song.LyricsID = str(item, "lyrics_id", "more_info.lyrics_id")
	song.Image = imageLinks(pick(item, "image"))
	if n, ok := number(pick(item, "duration", "more_info.duration")); ok {
		d := int(n)
		song.Duration = &d
	}
	if n, ok := number(pick(item, "play_count", "more_info.play_count")); ok {
		song.PlayCount = &n
	}

	song.Artists = artistCredits(item)

	if encrypted := str(item, "encrypted_media_url", "more_info.encrypted_media_url"); encrypted != "" {
		links, err := mediaLinks(encrypted)
		if err != nil {
			log := logging.New("normalize")
			log.Debug().Err(err).Str("song_id", song.ID).Msg("media url not decrypted")
		} else {
			song.DownloadURL = links
		}
	}

	return song
}

// FormatSongs formats every element of a list result.
func FormatSongs(items []gjson.Result) []models.Song {
	songs := make([]models.Song, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		songs = append(songs, FormatSong(item))
	}
	return songs
}

func FormatAlbum(item gjson.Result) (album models.Album) {
	defer recoverFormat("album", item, &album.ID)

	album.ID = str(item, "id", "albumid")
	album.Name = text(item, "title", "name", "album")
	album.Type = models.TypeAlbum
	album.Songs = []models.Song{}

	album.Image = imageLinks(pick(item, "image"))
	album.Language = str(item, "language", "more_info.language")
	album.Year = str(item, "year", "more_info.year")
	album.ExplicitContent = boolish(pick(item, "explicit_content", "more_info.explicit_content"))
	album.URL = str(item, "perma_url", "url")
	if n, ok := number(pick(item, "play_count", "more_info.play_count")); ok {
		album.PlayCount = &n
	}

	album.Artist = text(item, "primary_artists", "music", "more_info.music")
	if album.Artist == "" {
		album.Artist = strings.Join(artistCredits(item).Primary, ", ")
	}

	if list := pick(item, "list", "songs"); list.IsArray() {
		album.Songs = FormatSongs(list.Array())
	}
	album.SongCount = len(album.Songs)
	if n, ok := number(pick(item, "list_count", "more_info.song_count")); ok && album.SongCount == 0 {
		album.SongCount = int(n)
	}

	return album
}

func FormatPlaylist(item gjson.Result) (playlist models.Playlist) {
	defer recoverFormat("playlist", item, &playlist.ID)

	playlist.ID = str(item, "id", "listid")
	playlist.Name = text(item, "title", "listname", "name")
	playlist.Type = models.TypePlaylist
	playlist.Songs = []models.Song{}

	playlist.Image = imageLinks(pick(item, "image"))
	playlist.Language = str(item, "language", "more_info.language")
	playlist.URL = str(item, "perma_url", "url")

	if list := pick(item, "list", "songs"); list.IsArray() {
		playlist.Songs = FormatSongs(list.Array())
	}
	if n, ok := number(pick(item, "list_count", "count", "more_info.song_count")); ok {
		playlist.SongCount = int(n)
	} else {
		playlist.SongCount = len(playlist.Songs)
	}
	if n, ok := number(pick(item, "follower_count", "fan_count", "more_info.follower_count")); ok {
		playlist.Followers = n
	}

	return playlist
}

func FormatArtist(item gjson.Result) (artist models.Artist) {
	defer recoverFormat("artist", item, &artist.ID)

	artist.ID = str(item, "artistId", "id")
	artist.Name = text(item, "name", "title")
	artist.Type = models.TypeArtist

	artist.Role = str(item, "role")
	artist.Image = imageLinks(pick(item, "image"))
	artist.URL = str(item, "perma_url", "urls.overview", "url")
	artist.DominantLanguage = str(item, "dominantLanguage", "dominant_language")
	if n, ok := number(pick(item, "follower_count", "fan_count")); ok {
		artist.FollowerCount = n
	}

	if bio := pick(item, "bio"); bio.Exists() {
		// bio is either a plain string or a JSON-encoded array of sections
		raw := bio.String()
		if parsed := gjson.Parse(raw); parsed.IsArray() {
			raw = parsed.Get("0.text").String()
		}
		artist.Bio = html.UnescapeString(strings.TrimSpace(raw))
	}

	return artist
}

// FormatSearchHit maps an entry from the global search sections.
func FormatSearchHit(item gjson.Result) (hit models.SearchHit) {
	defer recoverFormat("search hit", item, &hit.ID)

	hit.ID = str(item, "id")
	hit.Title = text(item, "title", "name")
	hit.Type = str(item, "type")

	hit.Image = imageLinks(pick(item, "image"))
	hit.URL = str(item, "perma_url", "url")
	hit.Description = text(item, "description", "subtitle")
	hit.Language = str(item, "language", "more_info.language")
	return hit
}

// recoverFormat turns a panic during field extraction into a log line; the
// record built so far is returned as is.
func recoverFormat(kind string, item gjson.Result, id *string) {
	if r := recover(); r != nil {
		log := logging.New("normalize")
		log.Error().
			Interface("panic", r).
			Str("kind", kind).
			Str("id", *id).
			Str("raw", truncate([]byte(item.Raw), 200)).
			Msg("recovered while formatting")
	}
}

// pick returns the first path holding a non-null, non-empty value.
func pick(item gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		v := item.Get(p)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if v.Type == gjson.String && strings.TrimSpace(v.Str) == "" {
			continue
		}
		return v
	}
	return gjson.Result{}
}

func str(item gjson.Result, paths ...string) string {
	v := pick(item, paths...)
	if v.IsObject() || v.IsArray() {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// text is str with HTML entities decoded; names arrive as "Tum Hi Ho &amp; More".
func text(item gjson.Result, paths ...string) string {
	return html.UnescapeString(str(item, paths...))
}

func number(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Int(), true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

func boolish(v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "1", "true", "yes":
			return true
		}
	}
	return false
}

// imageLinks expands one artwork url into the three standard sizes. An already
// normalized list is passed through.
func imageLinks(v gjson.Result) []models.Link {
	if v.IsArray() {
		links := make([]models.Link, 0, len(v.Array()))
		for _, l := range v.Array() {
			u := l.Get("url").String()
			if u == "" {
				u = l.Get("link").String()
			}
			if u != "" {
				links = append(links, models.Link{Quality: l.Get("quality").String(), URL: u})
			}
		}
		return links
	}

	raw := strings.TrimSpace(v.String())
	if raw == "" {
		return []models.Link{}
	}

	links := make([]models.Link, 0, len(imageQualities))
	for _, q := range imageQualities {
		u, err := imageSizeExpr.Replace(raw, q, -1, 1)
		if err != nil {
			u = raw
		}
		links = append(links, models.Link{Quality: q, URL: u})
	}
	return links
}

// artistCredits prefers the structured artist map and falls back to the flat
// comma-joined strings.
func artistCredits(item gjson.Result) models.ArtistCredits {
	for _, base := range []string{"more_info.artistMap", "artistMap"} {
		m := item.Get(base)
		if !m.IsObject() {
			continue
		}
		credits := models.ArtistCredits{
			Primary:  artistNames(m.Get("primary_artists")),
			Featured: artistNames(m.Get("featured_artists")),
		}
		if len(credits.Primary)+len(credits.Featured) > 0 {
			return credits
		}
	}

	credits := models.ArtistCredits{
		Primary:  splitNames(str(item, "primary_artists", "more_info.primary_artists")),
		Featured: splitNames(str(item, "featured_artists", "more_info.featured_artists")),
	}
	if len(credits.Primary) == 0 {
		credits.Primary = splitNames(str(item, "singers", "more_info.singers"))
	}
	if len(credits.Primary) == 0 {
		// "Artist One, Artist Two - Album Name"
		subtitle, _, _ := strings.Cut(str(item, "subtitle"), " - ")
		credits.Primary = splitNames(subtitle)
	}
	return credits
}

func artistNames(list gjson.Result) []string {
	if !list.IsArray() {
		return []string{}
	}
	return lo.FilterMap(list.Array(), func(a gjson.Result, _ int) (string, bool) {
		name := html.UnescapeString(strings.TrimSpace(a.Get("name").String()))
		return name, name != ""
	})
}

func splitNames(flat string) []string {
	if flat == "" {
		return []string{}
	}
	names := lo.Map(strings.Split(flat, ","), func(s string, _ int) string {
		return html.UnescapeString(strings.TrimSpace(s))
	})
	return lo.Compact(names)
}
