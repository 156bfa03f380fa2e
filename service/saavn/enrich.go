package saavn

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/teal-fm/melody/metrics"
	"github.com/teal-fm/melody/models"
)

// SongFetcher loads the full detail record for one song.
type SongFetcher interface {
	GetSong(ctx context.Context, id string) (models.Song, error)
}

// Enricher backfills playback links on songs that arrived without them.
type Enricher struct {
	fetcher SongFetcher
	logger  zerolog.Logger
}

func NewEnricher(fetcher SongFetcher, logger zerolog.Logger) *Enricher {
	return &Enricher{fetcher: fetcher, logger: logger}
}

type enrichOutcome struct {
	index int
	song  models.Song
	err   error
}

// Enrich fetches details for every song missing its download links, concurrently,
// and merges them into songs in place. The returned slice is songs itself.
//
// Individual failures leave the song untouched; they are logged together and
// never returned. Calling Enrich on already enriched songs makes no upstream calls.
func (e *Enricher) Enrich(ctx context.Context, songs []models.Song) []models.Song {
	candidates := make([]int, 0, len(songs))
	for i := range songs {
		if songs[i].ID != "" && songs[i].NeedsPlayback() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return songs
	}

	e.logger.Debug().Int("candidates", len(candidates)).Int("total", len(songs)).Msg("enriching songs")

	outcomes := make([]enrichOutcome, len(candidates))

	// not errgroup.WithContext: one failed fetch must not cancel its siblings
	var g errgroup.Group
	for slot, idx := range candidates {
		g.Go(func() error {
			detail, err := e.fetcher.GetSong(ctx, songs[idx].ID)
			outcomes[slot] = enrichOutcome{index: idx, song: detail, err: err}
			return nil
		})
	}
	_ = g.Wait()

	partial := &PartialEnrichmentError{Requested: len(candidates), Errs: map[string]error{}}
	for _, o := range outcomes {
		if o.err != nil {
			partial.Errs[songs[o.index].ID] = o.err
			continue
		}
		mergeSong(&songs[o.index], o.song)
	}

	metrics.EnrichedSongs.WithLabelValues("enriched").Add(float64(len(candidates) - len(partial.Errs)))
	if len(partial.Errs) > 0 {
		metrics.EnrichedSongs.WithLabelValues("failed").Add(float64(len(partial.Errs)))
		e.logger.Warn().Err(partial).Msg("some songs were not enriched")
	}

	return songs
}

// mergeSong overwrites dst with detail. Flags are always taken from detail;
// other fields only when detail carries a value.
func mergeSong(dst *models.Song, detail models.Song) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setString(&dst.ID, detail.ID)
	setString(&dst.Name, detail.Name)
	setString(&dst.Type, detail.Type)
	setString(&dst.Year, detail.Year)
	setString(&dst.ReleaseDate, detail.ReleaseDate)
	setString(&dst.Label, detail.Label)
	setString(&dst.Language, detail.Language)
	setString(&dst.LyricsID, detail.LyricsID)
	setString(&dst.URL, detail.URL)
	setString(&dst.Copyright, detail.Copyright)
	setString(&dst.Album.ID, detail.Album.ID)
	setString(&dst.Album.Name, detail.Album.Name)
	setString(&dst.Album.URL, detail.Album.URL)

	if detail.Duration != nil {
		dst.Duration = detail.Duration
	}
	if detail.PlayCount != nil {
		dst.PlayCount = detail.PlayCount
	}
	dst.ExplicitContent = detail.ExplicitContent
	dst.HasLyrics = detail.HasLyrics
	if len(detail.Artists.Primary) > 0 || len(detail.Artists.Featured) > 0 {
		dst.Artists = detail.Artists
	}
	if len(detail.Image) > 0 {
		dst.Image = detail.Image
	}
	if len(detail.DownloadURL) > 0 {
		dst.DownloadURL = detail.DownloadURL
	}
}
