package saavn

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/teal-fm/melody/models"
)

// upstream operations
const (
	opSearchSongs     = "search.getResults"
	opSearchAlbums    = "search.getAlbumResults"
	opSearchArtists   = "search.getArtistResults"
	opSearchPlaylists = "search.getPlaylistResults"
	opAutocomplete    = "autocomplete.get"
	opSongDetails     = "song.getDetails"
	opLyrics          = "lyrics.getLyrics"
	opSuggestions     = "reco.getreco"
	opAlbumDetails    = "content.getAlbumDetails"
	opArtistDetails   = "artist.getArtistPageDetails"
	opArtistSongs     = "artist.getArtistMoreSong"
	opArtistAlbums    = "artist.getArtistMoreAlbum"
	opPlaylistDetails = "playlist.getDetails"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// Search types accepted by Search. An empty type runs the global search.
const (
	SearchSongs     = "songs"
	SearchAlbums    = "albums"
	SearchArtists   = "artists"
	SearchPlaylists = "playlists"
)

type SearchParams struct {
	Query    string
	Type     string
	Language string
	Page     int // 1-based
	Limit    int
}

// SearchResponse holds exactly one populated field, chosen by SearchParams.Type.
type SearchResponse struct {
	Songs     *models.SearchResult[models.Song]     `json:"songs,omitempty"`
	Albums    *models.SearchResult[models.Album]    `json:"albums,omitempty"`
	Artists   *models.SearchResult[models.Artist]   `json:"artists,omitempty"`
	Playlists *models.SearchResult[models.Playlist] `json:"playlists,omitempty"`
	Global    *models.GlobalSearch                  `json:"global,omitempty"`
}

// Catalog is the normalized, enriched view of the upstream catalog.
type Catalog struct {
	client   *Client
	enricher *Enricher
	logger   zerolog.Logger
}

func NewCatalog(client *Client, logger zerolog.Logger) *Catalog {
	c := &Catalog{client: client, logger: logger}
	c.enricher = NewEnricher(c, logger.With().Str("stage", "enrich").Logger())
	return c
}

// Enrich backfills playback links, see Enricher.Enrich.
func (c *Catalog) Enrich(ctx context.Context, songs []models.Song) []models.Song {
	return c.enricher.Enrich(ctx, songs)
}

// fetch calls one operation and classifies the response. Error and empty
// shapes become ErrNotFound.
func (c *Catalog) fetch(ctx context.Context, operation string, params url.Values) (Payload, error) {
	body, err := c.client.Call(ctx, operation, params)
	if err != nil {
		return Payload{}, err
	}

	payload := Classify(body)
	switch {
	case payload.NotFound():
		return payload, fmt.Errorf("%s: %w", operation, ErrNotFound)
	case payload.Shape == ShapeUnknown:
		c.logger.Warn().Str("operation", operation).Str("body", truncate(body, 200)).Msg("unrecognized response shape")
	}
	return payload, nil
}

func (c *Catalog) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	switch p.Type {
	case SearchSongs:
		res, err := c.SearchSongs(ctx, p)
		return &SearchResponse{Songs: res}, err
	case SearchAlbums:
		res, err := c.SearchAlbums(ctx, p)
		return &SearchResponse{Albums: res}, err
	case SearchArtists:
		res, err := c.SearchArtists(ctx, p)
		return &SearchResponse{Artists: res}, err
	case SearchPlaylists:
		res, err := c.SearchPlaylists(ctx, p)
		return &SearchResponse{Playlists: res}, err
	default:
		res, err := c.GlobalSearch(ctx, p.Query, p.Language)
		return &SearchResponse{Global: res}, err
	}
}

func searchValues(p SearchParams) url.Values {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	return url.Values{
		"q": {strings.TrimSpace(p.Query)},
		"p": {strconv.Itoa(page)},
		"n": {strconv.Itoa(limit)},
	}
}

// searchPage runs a typed search and formats every result with format.
func searchPage[T any](ctx context.Context, c *Catalog, operation string, p SearchParams, format func(gjson.Result) T) (*models.SearchResult[T], error) {
	payload, err := c.fetch(ctx, operation, searchValues(p))
	if err != nil {
		return nil, err
	}

	items := payload.Items()
	results := make([]T, 0, len(items))
	for _, item := range items {
		if item.IsObject() {
			results = append(results, format(item))
		}
	}

	total := int(payload.Root.Get("total").Int())
	if total == 0 {
		total = len(results)
	}
	return &models.SearchResult[T]{
		Total:   total,
		Start:   int(payload.Root.Get("start").Int()),
		Results: results,
	}, nil
}

// SearchSongs searches songs. A language keeps only songs reported in that
// language, compared case-insensitively.
func (c *Catalog) SearchSongs(ctx context.Context, p SearchParams) (*models.SearchResult[models.Song], error) {
	res, err := searchPage(ctx, c, opSearchSongs, p, FormatSong)
	if err != nil {
		return nil, err
	}
	if p.Language != "" {
		res.Results = lo.Filter(res.Results, func(s models.Song, _ int) bool {
			return strings.EqualFold(s.Language, p.Language)
		})
	}
	return res, nil
}

func (c *Catalog) SearchAlbums(ctx context.Context, p SearchParams) (*models.SearchResult[models.Album], error) {
	return searchPage(ctx, c, opSearchAlbums, p, FormatAlbum)
}

func (c *Catalog) SearchArtists(ctx context.Context, p SearchParams) (*models.SearchResult[models.Artist], error) {
	return searchPage(ctx, c, opSearchArtists, p, FormatArtist)
}

func (c *Catalog) SearchPlaylists(ctx context.Context, p SearchParams) (*models.SearchResult[models.Playlist], error) {
	return searchPage(ctx, c, opSearchPlaylists, p, FormatPlaylist)
}

// GlobalSearch runs the sectioned autocomplete search. A language filters the
// songs section and the song hits of the top query section.
func (c *Catalog) GlobalSearch(ctx context.Context, query, language string) (*models.GlobalSearch, error) {
	payload, err := c.fetch(ctx, opAutocomplete, url.Values{"query": {strings.TrimSpace(query)}})
	if err != nil {
		return nil, err
	}

	section := func(key string) []models.SearchHit {
		data := payload.Root.Get(key + ".data")
		if !data.IsArray() {
			return []models.SearchHit{}
		}
		return lo.Map(data.Array(), func(item gjson.Result, _ int) models.SearchHit {
			return FormatSearchHit(item)
		})
	}

	res := &models.GlobalSearch{
		TopQuery:  section("topquery"),
		Songs:     section("songs"),
		Albums:    section("albums"),
		Artists:   section("artists"),
		Playlists: section("playlists"),
	}

	if language != "" {
		res.Songs = lo.Filter(res.Songs, func(h models.SearchHit, _ int) bool {
			return strings.EqualFold(h.Language, language)
		})
		res.TopQuery = lo.Filter(res.TopQuery, func(h models.SearchHit, _ int) bool {
			return h.Type != models.TypeSong || strings.EqualFold(h.Language, language)
		})
	}
	return res, nil
}

// GetSong returns the full detail record of one song.
func (c *Catalog) GetSong(ctx context.Context, id string) (models.Song, error) {
	songs, err := c.GetSongs(ctx, []string{id})
	if err != nil {
		return models.Song{}, err
	}
	if len(songs) == 0 {
		return models.Song{}, fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	return songs[0], nil
}

// GetSongs returns detail records for several songs in one call.
func (c *Catalog) GetSongs(ctx context.Context, ids []string) ([]models.Song, error) {
	ids = lo.Compact(lo.Map(ids, func(id string, _ int) string { return strings.TrimSpace(id) }))
	if len(ids) == 0 {
		return nil, fmt.Errorf("no song ids: %w", ErrNotFound)
	}

	payload, err := c.fetch(ctx, opSongDetails, url.Values{"pids": {strings.Join(ids, ",")}})
	if err != nil {
		return nil, err
	}

	songs := FormatSongs(payload.Items())
	if len(songs) == 0 {
		return nil, fmt.Errorf("songs %s: %w", strings.Join(ids, ","), ErrNotFound)
	}
	return songs, nil
}

func (c *Catalog) GetLyrics(ctx context.Context, songID string) (*models.Lyrics, error) {
	payload, err := c.fetch(ctx, opLyrics, url.Values{"lyrics_id": {songID}})
	if err != nil {
		return nil, err
	}

	lyrics := strings.TrimSpace(payload.Root.Get("lyrics").String())
	if lyrics == "" {
		return nil, fmt.Errorf("lyrics %s: %w", songID, ErrNotFound)
	}
	lyrics = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n").Replace(lyrics)

	return &models.Lyrics{
		SongID:    songID,
		Lyrics:    lyrics,
		Snippet:   text(payload.Root, "snippet"),
		Copyright: text(payload.Root, "lyrics_copyright"),
	}, nil
}

// GetSuggestions returns up to limit songs similar to songID. A limit of zero
// or less returns everything the upstream offers.
func (c *Catalog) GetSuggestions(ctx context.Context, songID string, limit int) ([]models.Song, error) {
	payload, err := c.fetch(ctx, opSuggestions, url.Values{"pid": {songID}})
	if err != nil {
		return nil, err
	}

	songs := FormatSongs(payload.Items())
	if limit > 0 && len(songs) > limit {
		songs = songs[:limit]
	}
	return songs, nil
}

func (c *Catalog) GetAlbum(ctx context.Context, id string) (*models.Album, error) {
	payload, err := c.fetch(ctx, opAlbumDetails, url.Values{"albumid": {id}})
	if err != nil {
		return nil, err
	}

	item, ok := payload.First()
	if !ok {
		return nil, fmt.Errorf("album %s: %w", id, ErrNotFound)
	}
	album := FormatAlbum(item)
	album.Songs = c.Enrich(ctx, album.Songs)
	return &album, nil
}

func (c *Catalog) GetArtist(ctx context.Context, id string) (*models.Artist, error) {
	payload, err := c.fetch(ctx, opArtistDetails, url.Values{
		"artistId": {id},
		"n_song":   {"10"},
		"n_album":  {"10"},
	})
	if err != nil {
		return nil, err
	}

	item, ok := payload.First()
	if !ok {
		return nil, fmt.Errorf("artist %s: %w", id, ErrNotFound)
	}
	artist := FormatArtist(item)
	if artist.ID == "" {
		artist.ID = id
	}
	return &artist, nil
}

func artistPageValues(id string, page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{
		"artistId":   {id},
		"page":       {strconv.Itoa(page - 1)},
		"category":   {""},
		"sort_order": {""},
	}
}

// GetArtistSongs returns one page of an artist's songs, enriched.
func (c *Catalog) GetArtistSongs(ctx context.Context, id string, page int) (*models.SearchResult[models.Song], error) {
	payload, err := c.fetch(ctx, opArtistSongs, artistPageValues(id, page))
	if err != nil {
		return nil, err
	}

	section := payload.Root.Get("topSongs")
	songs := FormatSongs(section.Get("songs").Array())
	songs = c.Enrich(ctx, songs)

	return &models.SearchResult[models.Song]{
		Total:   int(section.Get("total").Int()),
		Start:   max(page, 1),
		Results: songs,
	}, nil
}

// GetArtistAlbums returns one page of an artist's albums.
func (c *Catalog) GetArtistAlbums(ctx context.Context, id string, page int) (*models.SearchResult[models.Album], error) {
	payload, err := c.fetch(ctx, opArtistAlbums, artistPageValues(id, page))
	if err != nil {
		return nil, err
	}

	section := payload.Root.Get("topAlbums")
	albums := lo.Map(section.Get("albums").Array(), func(item gjson.Result, _ int) models.Album {
		return FormatAlbum(item)
	})

	return &models.SearchResult[models.Album]{
		Total:   int(section.Get("total").Int()),
		Start:   max(page, 1),
		Results: albums,
	}, nil
}

func (c *Catalog) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	payload, err := c.fetch(ctx, opPlaylistDetails, url.Values{"listid": {id}, "n": {"100"}})
	if err != nil {
		return nil, err
	}

	item, ok := payload.First()
	if !ok {
		return nil, fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}
	playlist := FormatPlaylist(item)
	playlist.Songs = c.Enrich(ctx, playlist.Songs)
	return &playlist, nil
}
