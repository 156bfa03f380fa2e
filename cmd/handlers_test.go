package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teal-fm/melody/db"
	"github.com/teal-fm/melody/models"
	"github.com/teal-fm/melody/service/recommend"
	"github.com/teal-fm/melody/service/saavn"
	"github.com/teal-fm/melody/session"
)

// newTestApp wires the application against a fake catalog API that answers
// each operation with the given body; unknown operations fail with 500.
func newTestApp(t *testing.T, bodies map[string]string) *application {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Query().Get("__call")]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	database, err := db.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Initialize())
	t.Cleanup(func() { database.Close() })

	client := saavn.NewClient(saavn.ClientConfig{BaseURL: upstream.URL, RatePerSecond: 1000}, zerolog.Nop())
	catalog := saavn.NewCatalog(client, zerolog.Nop())

	return &application{
		database:    database,
		catalog:     catalog,
		recommender: recommend.New(recommend.DefaultConfig(), catalog, database, zerolog.Nop()),
		logger:      zerolog.Nop(),
	}
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestCatalogRoutes_StatusMapping(t *testing.T) {
	app := newTestApp(t, map[string]string{
		"content.getAlbumDetails": `{"id":"al","title":"Album","list":[]}`,
		"playlist.getDetails":     `{"error":{"code":"INVALID","msg":"not found"}}`,
	})
	h := app.routes()

	rec, body := doRequest(t, h, http.MethodGet, "/album/al", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	rec, body = doRequest(t, h, http.MethodGet, "/playlist/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Playlist not found", body["message"])

	// song.getDetails is not served, so the upstream answers 500
	rec, body = doRequest(t, h, http.MethodGet, "/song/abc", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestSearchRequiresQuery(t *testing.T) {
	h := newTestApp(t, nil).routes()

	rec, body := doRequest(t, h, http.MethodGet, "/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestSearchSongs(t *testing.T) {
	h := newTestApp(t, map[string]string{
		"search.getResults": `{"total":2,"start":1,"results":[
			{"id":"1","title":"One","language":"hindi"},
			{"id":"2","title":"Two","language":"tamil"}
		]}`,
	}).routes()

	rec, body := doRequest(t, h, http.MethodGet, "/search?q=one&type=songs&language=Hindi", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	results := data["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].(map[string]any)["id"])
}

func TestRecommendationsAnonymous(t *testing.T) {
	h := newTestApp(t, map[string]string{
		"search.getResults": `{"total":1,"results":[{"id":"t1","title":"Trending One"}]}`,
		"song.getDetails":   `{"songs":[{"id":"t1","title":"Trending One"}]}`,
	}).routes()

	rec, body := doRequest(t, h, http.MethodGet, "/recommendations?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, models.SourceTrending, body["source"])
	assert.Len(t, body["data"], 1)
}

func TestRecommendationsNothingAvailable(t *testing.T) {
	h := newTestApp(t, nil).routes()

	rec, body := doRequest(t, h, http.MethodGet, "/recommendations/seed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, models.SourceNone, body["source"])
}

func TestUserRoutesDisabledWithoutAuth(t *testing.T) {
	h := newTestApp(t, nil).routes()

	rec, _ := doRequest(t, h, http.MethodGet, "/user/preferences", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetadataAndHealth(t *testing.T) {
	h := newTestApp(t, nil).routes()

	rec, body := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	rec, _ = doRequest(t, h, http.MethodGet, "/metadata/languages", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var langs []language
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &langs))
	assert.Equal(t, "Hindi", langs[0].Name)

	rec, _ = doRequest(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func withUser(h http.HandlerFunc, uid string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := session.WithIdentity(r.Context(), &session.Identity{UID: uid, Email: uid + "@example.com", Name: "Listener"})
		h(w, r.WithContext(ctx))
	})
}

func TestUserPreferencesRoundTrip(t *testing.T) {
	app := newTestApp(t, nil)

	rec, body := doRequest(t, withUser(app.getPreferences, "u1"), http.MethodGet, "/user/preferences", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"language": "", "artists": []any{}}, body["data"])

	rec, _ = doRequest(t, withUser(app.savePreferences, "u1"), http.MethodPost, "/user/preferences",
		`{"language":"hindi","artists":["Arijit Singh"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	prefs, err := app.database.GetPreferences(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, &models.Preferences{Language: "hindi", Artists: []string{"Arijit Singh"}}, prefs)

	rec, _ = doRequest(t, withUser(app.savePreferences, "u1"), http.MethodPost, "/user/preferences", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHistory(t *testing.T) {
	app := newTestApp(t, nil)

	rec, _ := doRequest(t, withUser(app.saveHistory, "u1"), http.MethodPost, "/user/activity/history", `{"songName":"no id"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doRequest(t, withUser(app.saveHistory, "u1"), http.MethodPost, "/user/activity/history", `{"songId":"s1","playedAt":100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doRequest(t, withUser(app.saveHistory, "u1"), http.MethodPost, "/user/activity/history", `{"songId":"s2","playedAt":200}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := doRequest(t, withUser(app.getHistory, "u1"), http.MethodGet, "/user/activity/history?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "s2", data[0].(map[string]any)["songId"])
}

func TestVerifyTokenCreatesProfile(t *testing.T) {
	app := newTestApp(t, nil)

	rec, body := doRequest(t, withUser(app.verifyToken, "u1"), http.MethodPost, "/auth/verify-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", body["uid"])

	profile, err := app.database.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "u1@example.com", profile.Email)
}
