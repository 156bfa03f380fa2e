package saavn

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teal-fm/melody/models"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	details map[string]models.Song
	fail    map[string]bool
}

func (f *fakeFetcher) GetSong(_ context.Context, id string) (models.Song, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	if f.fail[id] {
		return models.Song{}, errors.New("upstream exploded")
	}
	song, ok := f.details[id]
	if !ok {
		return models.Song{}, ErrNotFound
	}
	return song, nil
}

func detailFor(id string) models.Song {
	d := 200
	return models.Song{
		ID:          id,
		Name:        "Detailed " + id,
		Type:        models.TypeSong,
		Duration:    &d,
		HasLyrics:   true,
		Image:       []models.Link{{Quality: "500x500", URL: "https://img/" + id}},
		DownloadURL: []models.Link{{Quality: "320kbps", URL: "https://aac/" + id + "_320.mp4"}},
	}
}

func TestEnrich_NoCandidatesMakesNoCalls(t *testing.T) {
	fetcher := &fakeFetcher{}
	e := NewEnricher(fetcher, zerolog.Nop())

	songs := []models.Song{
		{ID: "a", Type: models.TypeSong, DownloadURL: []models.Link{{Quality: "320kbps", URL: "u"}}},
		{ID: "b", Type: models.TypeAlbum},
		{ID: "", Type: models.TypeSong},
	}

	got := e.Enrich(context.Background(), songs)
	assert.Empty(t, fetcher.calls)
	assert.Equal(t, songs, got)

	assert.Empty(t, e.Enrich(context.Background(), nil))
	assert.Empty(t, fetcher.calls)
}

func TestEnrich_Idempotent(t *testing.T) {
	fetcher := &fakeFetcher{details: map[string]models.Song{"a": detailFor("a"), "b": detailFor("b")}}
	e := NewEnricher(fetcher, zerolog.Nop())

	songs := []models.Song{{ID: "a", Name: "A"}, {ID: "b", Name: "B", Type: models.TypeSong}}
	e.Enrich(context.Background(), songs)
	require.Len(t, fetcher.calls, 2)

	e.Enrich(context.Background(), songs)
	assert.Len(t, fetcher.calls, 2, "second pass must not call upstream")
}

func TestEnrich_FailureIsolation(t *testing.T) {
	fetcher := &fakeFetcher{
		details: map[string]models.Song{"a": detailFor("a"), "c": detailFor("c")},
		fail:    map[string]bool{"b": true},
	}
	e := NewEnricher(fetcher, zerolog.Nop())

	songs := []models.Song{
		{ID: "a", Name: "A", Language: "hindi"},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C"},
	}

	got := e.Enrich(context.Background(), songs)
	require.Len(t, got, 3)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, fetcher.calls)

	assert.Equal(t, "Detailed a", got[0].Name)
	assert.Equal(t, "hindi", got[0].Language, "fields absent from the detail are kept")
	assert.NotEmpty(t, got[0].DownloadURL)

	assert.Equal(t, models.Song{ID: "b", Name: "B"}, got[1])

	assert.Equal(t, "Detailed c", got[2].Name)
	require.NotNil(t, got[2].Duration)
	assert.Equal(t, 200, *got[2].Duration)
}

func TestPartialEnrichmentError(t *testing.T) {
	cause := errors.New("timeout")
	err := &PartialEnrichmentError{Requested: 3, Errs: map[string]error{"b": cause}}

	assert.Equal(t, "saavn: enriched 2 of 3 songs", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestEnrich_FlagsRefreshFromDetail(t *testing.T) {
	detail := detailFor("a")
	detail.HasLyrics = false
	detail.ExplicitContent = false
	fetcher := &fakeFetcher{details: map[string]models.Song{"a": detail, "b": detailFor("b")}}
	e := NewEnricher(fetcher, zerolog.Nop())

	songs := []models.Song{
		{ID: "a", Name: "A", ExplicitContent: true, HasLyrics: true},
		{ID: "b", Name: "B"},
	}
	got := e.Enrich(context.Background(), songs)

	assert.False(t, got[0].ExplicitContent, "stale explicit flag is replaced")
	assert.False(t, got[0].HasLyrics, "stale lyrics flag is replaced")
	assert.True(t, got[1].HasLyrics)
}

type contextFetcher struct{}

func (contextFetcher) GetSong(ctx context.Context, id string) (models.Song, error) {
	if err := ctx.Err(); err != nil {
		return models.Song{}, err
	}
	return detailFor(id), nil
}

func TestEnrich_CancelledCallerLeavesSongsUnchanged(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	songs := []models.Song{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	got := NewEnricher(contextFetcher{}, zerolog.Nop()).Enrich(ctx, songs)

	assert.Equal(t, []models.Song{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}, got)
}
