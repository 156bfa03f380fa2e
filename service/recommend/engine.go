// Package recommend builds song recommendations from an ordered chain of
// strategies: the user's recent plays, an explicit seed song, stored
// preferences and finally trending songs.
package recommend

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/teal-fm/melody/metrics"
	"github.com/teal-fm/melody/models"
	"github.com/teal-fm/melody/service/saavn"
)

// Catalog is the part of the catalog the engine reads from.
type Catalog interface {
	GetSuggestions(ctx context.Context, songID string, limit int) ([]models.Song, error)
	SearchSongs(ctx context.Context, p saavn.SearchParams) (*models.SearchResult[models.Song], error)
	Enrich(ctx context.Context, songs []models.Song) []models.Song
}

// UserStore is the part of the user-data store the engine reads from.
type UserStore interface {
	GetPreferences(ctx context.Context, uid string) (*models.Preferences, error)
	GetRecentHistory(ctx context.Context, uid string, limit int) ([]models.HistoryEntry, error)
}

const trendingQuery = "trending"

type Config struct {
	DefaultLimit int
	MaxLimit     int

	HistorySeeds       int // recent plays used as seeds
	SuggestionsPerSeed int
	PreferredArtists   int // preferred artists searched
	SongsPerArtist     int
}

func DefaultConfig() Config {
	return Config{
		DefaultLimit:       20,
		MaxLimit:           50,
		HistorySeeds:       2,
		SuggestionsPerSeed: 5,
		PreferredArtists:   3,
		SongsPerArtist:     5,
	}
}

type Request struct {
	SongID string
	UserID string
	Limit  int
}

type Engine struct {
	cfg     Config
	catalog Catalog
	store   UserStore
	logger  zerolog.Logger
}

func New(cfg Config, catalog Catalog, store UserStore, logger zerolog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	if cfg.HistorySeeds <= 0 {
		cfg.HistorySeeds = def.HistorySeeds
	}
	if cfg.SuggestionsPerSeed <= 0 {
		cfg.SuggestionsPerSeed = def.SuggestionsPerSeed
	}
	if cfg.PreferredArtists <= 0 {
		cfg.PreferredArtists = def.PreferredArtists
	}
	if cfg.SongsPerArtist <= 0 {
		cfg.SongsPerArtist = def.SongsPerArtist
	}
	return &Engine{cfg: cfg, catalog: catalog, store: store, logger: logger}
}

func (e *Engine) limit(requested int) int {
	if requested <= 0 {
		return e.cfg.DefaultLimit
	}
	return min(requested, e.cfg.MaxLimit)
}

// Recommend runs the strategy chain and returns at most req.Limit enriched songs.
//
// Each strategy appends to the same list and the chain stops as soon as the list
// is full. Songs are not deduplicated across strategies. A failing strategy is
// logged and skipped; Recommend itself never fails.
func (e *Engine) Recommend(ctx context.Context, req Request) models.RecommendationResult {
	limit := e.limit(req.Limit)
	log := e.logger.With().Str("song_id", req.SongID).Str("uid", req.UserID).Int("limit", limit).Logger()

	var songs []models.Song
	full := func() bool { return len(songs) >= limit }

	if req.UserID != "" {
		songs = append(songs, e.fromHistory(ctx, log, req.UserID)...)
		if full() {
			return e.finish(ctx, songs, limit, models.SourceSongSuggestions)
		}
	}

	if req.SongID != "" {
		suggestions, err := e.catalog.GetSuggestions(ctx, req.SongID, limit)
		if err != nil {
			log.Warn().Err(err).Msg("song suggestions unavailable")
		}
		songs = append(songs, suggestions...)
		if full() {
			return e.finish(ctx, songs, limit, models.SourceSongSuggestions)
		}
	}

	if req.UserID != "" {
		if e.fromPreferences(ctx, log, req.UserID, limit, &songs) {
			return e.finish(ctx, songs, limit, models.SourcePreferences)
		}
	}

	trending, err := e.catalog.SearchSongs(ctx, saavn.SearchParams{Query: trendingQuery, Limit: limit})
	if err != nil {
		log.Warn().Err(err).Msg("trending songs unavailable")
	} else {
		songs = append(songs, trending.Results...)
	}

	source := models.SourceTrending
	if req.UserID != "" {
		source = models.SourceMixed
	}
	return e.finish(ctx, songs, limit, source)
}

// fromHistory collects suggestions seeded by the user's most recent plays.
func (e *Engine) fromHistory(ctx context.Context, log zerolog.Logger, uid string) []models.Song {
	history, err := e.store.GetRecentHistory(ctx, uid, e.cfg.HistorySeeds)
	if err != nil {
		log.Warn().Err(err).Msg("play history unavailable")
		return nil
	}

	var songs []models.Song
	for _, entry := range lo.Slice(history, 0, e.cfg.HistorySeeds) {
		if entry.SongID == "" {
			continue
		}
		suggestions, err := e.catalog.GetSuggestions(ctx, entry.SongID, e.cfg.SuggestionsPerSeed)
		if err != nil {
			log.Warn().Err(err).Str("seed", entry.SongID).Msg("history suggestions unavailable")
			continue
		}
		songs = append(songs, suggestions...)
	}
	return songs
}

// fromPreferences appends songs by preferred artists, then songs in the
// preferred language for whatever is still missing. It reports whether songs
// reached limit.
func (e *Engine) fromPreferences(ctx context.Context, log zerolog.Logger, uid string, limit int, songs *[]models.Song) bool {
	prefs, err := e.store.GetPreferences(ctx, uid)
	if err != nil {
		log.Warn().Err(err).Msg("preferences unavailable")
		return false
	}
	if prefs == nil {
		return false
	}

	language := strings.TrimSpace(prefs.Language)
	for _, artist := range lo.Slice(prefs.Artists, 0, e.cfg.PreferredArtists) {
		query := strings.TrimSpace(artist)
		if query == "" {
			continue
		}
		res, err := e.catalog.SearchSongs(ctx, saavn.SearchParams{Query: query, Limit: e.cfg.SongsPerArtist})
		if err != nil {
			log.Warn().Err(err).Str("artist", artist).Msg("artist search unavailable")
			continue
		}
		*songs = append(*songs, filterLanguage(res.Results, language)...)
	}
	if len(*songs) >= limit {
		return true
	}

	if language != "" {
		res, err := e.catalog.SearchSongs(ctx, saavn.SearchParams{Query: language, Limit: limit - len(*songs)})
		if err != nil {
			log.Warn().Err(err).Str("language", language).Msg("language search unavailable")
		} else {
			*songs = append(*songs, res.Results...)
		}
	}
	return len(*songs) >= limit
}

// filterLanguage keeps songs in language, case-insensitively. Songs that report
// no language are kept.
func filterLanguage(songs []models.Song, language string) []models.Song {
	if language == "" {
		return songs
	}
	return lo.Filter(songs, func(s models.Song, _ int) bool {
		return s.Language == "" || strings.EqualFold(s.Language, language)
	})
}

func (e *Engine) finish(ctx context.Context, songs []models.Song, limit int, source string) models.RecommendationResult {
	if len(songs) == 0 {
		metrics.Recommendations.WithLabelValues(models.SourceNone).Inc()
		return models.RecommendationResult{Success: false, Source: models.SourceNone, Data: []models.Song{}}
	}

	songs = lo.Slice(songs, 0, limit)
	songs = e.catalog.Enrich(ctx, songs)

	metrics.Recommendations.WithLabelValues(source).Inc()
	return models.RecommendationResult{Success: true, Source: source, Data: songs}
}
