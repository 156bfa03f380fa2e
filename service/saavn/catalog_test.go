package saavn

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream answers each operation with a canned body and counts calls.
type fakeUpstream struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  map[string]int
}

func (f *fakeUpstream) handler(w http.ResponseWriter, r *http.Request) {
	op := r.URL.Query().Get("__call")
	f.mu.Lock()
	f.calls[op]++
	body, ok := f.bodies[op]
	f.mu.Unlock()

	if !ok {
		http.Error(w, "unexpected operation "+op, http.StatusBadGateway)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (f *fakeUpstream) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func newTestCatalog(t *testing.T, bodies map[string]string) (*Catalog, *fakeUpstream) {
	t.Helper()
	up := &fakeUpstream{bodies: bodies, calls: map[string]int{}}
	return NewCatalog(newTestClient(t, up.handler), zerolog.Nop()), up
}

func TestCatalog_SearchSongsLanguageFilter(t *testing.T) {
	c, _ := newTestCatalog(t, map[string]string{
		opSearchSongs: `{"total":3,"start":1,"results":[
			{"id":"1","title":"A","language":"hindi"},
			{"id":"2","title":"B","language":"english"},
			{"id":"3","title":"C","language":"Hindi"}
		]}`,
	})

	res, err := c.SearchSongs(context.Background(), SearchParams{Query: "a", Language: "HINDI"})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "1", res.Results[0].ID)
	assert.Equal(t, "3", res.Results[1].ID)
	assert.Equal(t, 3, res.Total)
}

func TestCatalog_GlobalSearchLanguageFilter(t *testing.T) {
	c, _ := newTestCatalog(t, map[string]string{
		opAutocomplete: `{
			"topquery": {"data": [
				{"id":"s1","title":"Song","type":"song","more_info":{"language":"english"}},
				{"id":"a1","title":"Artist","type":"artist"}
			]},
			"songs": {"data": [
				{"id":"s2","title":"Two","type":"song","more_info":{"language":"hindi"}},
				{"id":"s3","title":"Three","type":"song","more_info":{"language":"punjabi"}}
			]},
			"albums": {"data": [{"id":"al","title":"Album","type":"album"}]}
		}`,
	})

	res, err := c.Search(context.Background(), SearchParams{Query: "x", Language: "hindi"})
	require.NoError(t, err)
	require.NotNil(t, res.Global)
	assert.Nil(t, res.Songs)

	require.Len(t, res.Global.TopQuery, 1)
	assert.Equal(t, "a1", res.Global.TopQuery[0].ID)
	require.Len(t, res.Global.Songs, 1)
	assert.Equal(t, "s2", res.Global.Songs[0].ID)
	assert.Len(t, res.Global.Albums, 1)
	assert.Empty(t, res.Global.Playlists)
}

func TestCatalog_GetSongNotFound(t *testing.T) {
	c, _ := newTestCatalog(t, map[string]string{
		opSongDetails: `{"error":{"code":"INVALID","msg":"no song"}}`,
	})

	_, err := c.GetSong(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_GetSongKeyedShape(t *testing.T) {
	c, _ := newTestCatalog(t, map[string]string{
		opSongDetails: `{"abc":{"id":"abc","song":"Keyed","language":"hindi"}}`,
	})

	song, err := c.GetSong(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Keyed", song.Name)
}

func TestCatalog_UpstreamDown(t *testing.T) {
	c, _ := newTestCatalog(t, map[string]string{})

	_, err := c.GetAlbum(context.Background(), "1")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCatalog_GetAlbumEnrichesSongs(t *testing.T) {
	enc := encrypted(t, "https://aac.saavncdn.com/1/a_96.mp4")
	c, up := newTestCatalog(t, map[string]string{
		opAlbumDetails: `{"id":"al","title":"Album","list":[
			{"id":"a","title":"A"},
			{"id":"b","title":"B","more_info":{"encrypted_media_url":"` + enc + `"}}
		]}`,
		opSongDetails: `{"songs":[{"id":"a","title":"A full","more_info":{"encrypted_media_url":"` + enc + `"}}]}`,
	})

	album, err := c.GetAlbum(context.Background(), "al")
	require.NoError(t, err)
	require.Len(t, album.Songs, 2)

	// only the song without links is fetched
	assert.Equal(t, 1, up.count(opSongDetails))
	assert.Equal(t, "A full", album.Songs[0].Name)
	assert.NotEmpty(t, album.Songs[0].DownloadURL)
	assert.Equal(t, "B", album.Songs[1].Name)
}

func TestCatalog_GetAlbumPartialEnrichment(t *testing.T) {
	c, _ := newTestCatalog(t, map[string]string{
		opAlbumDetails: `{"id":"al","title":"Album","list":[{"id":"a","title":"A"}]}`,
		opSongDetails:  `[]`,
	})

	album, err := c.GetAlbum(context.Background(), "al")
	require.NoError(t, err, "enrichment failures never surface")
	require.Len(t, album.Songs, 1)
	assert.Nil(t, album.Songs[0].DownloadURL)
}

func TestCatalog_GetSuggestionsLimit(t *testing.T) {
	c, _ := newTestCatalog(t, map[string]string{
		opSuggestions: `[{"id":"1","title":"a"},{"id":"2","title":"b"},{"id":"3","title":"c"}]`,
	})

	songs, err := c.GetSuggestions(context.Background(), "seed", 2)
	require.NoError(t, err)
	assert.Len(t, songs, 2)
}

func TestCatalog_GetArtistSongs(t *testing.T) {
	enc := encrypted(t, "https://aac.saavncdn.com/1/a_96.mp4")
	c, up := newTestCatalog(t, map[string]string{
		opArtistSongs: `{"topSongs":{"total":40,"songs":[{"id":"a","title":"A","more_info":{"encrypted_media_url":"` + enc + `"}}]}}`,
	})

	res, err := c.GetArtistSongs(context.Background(), "459320", 0)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Total)
	assert.Equal(t, 1, res.Start)
	require.Len(t, res.Results, 1)
	assert.Zero(t, up.count(opSongDetails))
}

func TestCatalog_GetLyrics(t *testing.T) {
	c, _ := newTestCatalog(t, map[string]string{
		opLyrics: `{"lyrics":"line one<br>line two","lyrics_copyright":"Writer: Someone"}`,
	})

	lyrics, err := c.GetLyrics(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", lyrics.Lyrics)
	assert.Equal(t, "Writer: Someone", lyrics.Copyright)
}

func TestCatalog_RecoversMalformedBody(t *testing.T) {
	c, _ := newTestCatalog(t, map[string]string{
		opPlaylistDetails: `<br />Warning: something{"id":"p","listname":"List","list":[]}`,
	})

	pl, err := c.GetPlaylist(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "List", pl.Name)
}
