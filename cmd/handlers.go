package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/teal-fm/melody/models"
	"github.com/teal-fm/melody/service/recommend"
	"github.com/teal-fm/melody/service/saavn"
	"github.com/teal-fm/melody/session"
)

type envelope map[string]any

func dataBody(data any) envelope {
	return envelope{"success": true, "data": data}
}

func errorBody(message string) envelope {
	return envelope{"success": false, "message": message}
}

// catalogError maps a catalog failure to a response; what names the entity.
func (app *application) catalogError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, saavn.ErrNotFound):
		jsonResponse(w, http.StatusNotFound, errorBody(what+" not found"))
	case errors.Is(err, saavn.ErrUpstreamUnavailable):
		app.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("catalog unavailable")
		jsonResponse(w, http.StatusBadGateway, errorBody("Music catalog unavailable"))
	default:
		app.logger.Error().Err(err).Str("path", r.URL.Path).Msg("catalog request failed")
		jsonResponse(w, http.StatusInternalServerError, errorBody("Internal server error"))
	}
}

func (app *application) storeError(w http.ResponseWriter, err error, msg string) {
	app.logger.Error().Err(err).Msg(msg)
	jsonResponse(w, http.StatusInternalServerError, errorBody(msg))
}

func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst)
}

func home() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, envelope{
			"name":    "melody",
			"version": version,
			"status":  "running",
		})
	}
}

func (app *application) health(w http.ResponseWriter, r *http.Request) {
	if err := app.database.PingContext(r.Context()); err != nil {
		app.logger.Error().Err(err).Msg("health check failed")
		jsonResponse(w, http.StatusServiceUnavailable, envelope{"status": "unhealthy", "version": version})
		return
	}
	jsonResponse(w, http.StatusOK, envelope{"status": "healthy", "version": version})
}

// Catalog

func (app *application) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		jsonResponse(w, http.StatusBadRequest, errorBody("Query parameter 'q' is required"))
		return
	}

	res, err := app.catalog.Search(r.Context(), saavn.SearchParams{
		Query:    query,
		Type:     q.Get("type"),
		Language: q.Get("language"),
		Page:     intParam(r, "page", 1),
		Limit:    intParam(r, "limit", 10),
	})
	if err != nil {
		app.catalogError(w, r, err, "Results")
		return
	}

	var data any
	switch {
	case res.Songs != nil:
		data = res.Songs
	case res.Albums != nil:
		data = res.Albums
	case res.Artists != nil:
		data = res.Artists
	case res.Playlists != nil:
		data = res.Playlists
	default:
		data = res.Global
	}
	jsonResponse(w, http.StatusOK, dataBody(data))
}

func (app *application) getSong(w http.ResponseWriter, r *http.Request) {
	ids := strings.Split(r.PathValue("id"), ",")
	songs, err := app.catalog.GetSongs(r.Context(), ids)
	if err != nil {
		app.catalogError(w, r, err, "Song")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(songs))
}

func (app *application) getLyrics(w http.ResponseWriter, r *http.Request) {
	lyrics, err := app.catalog.GetLyrics(r.Context(), r.PathValue("id"))
	if err != nil {
		app.catalogError(w, r, err, "Lyrics")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(lyrics))
}

func (app *application) getSuggestions(w http.ResponseWriter, r *http.Request) {
	songs, err := app.catalog.GetSuggestions(r.Context(), r.PathValue("id"), intParam(r, "limit", 10))
	if err != nil {
		app.catalogError(w, r, err, "Suggestions")
		return
	}
	songs = app.catalog.Enrich(r.Context(), songs)
	jsonResponse(w, http.StatusOK, dataBody(songs))
}

func (app *application) getAlbum(w http.ResponseWriter, r *http.Request) {
	album, err := app.catalog.GetAlbum(r.Context(), r.PathValue("id"))
	if err != nil {
		app.catalogError(w, r, err, "Album")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(album))
}

func (app *application) getArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := app.catalog.GetArtist(r.Context(), r.PathValue("id"))
	if err != nil {
		app.catalogError(w, r, err, "Artist")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(artist))
}

func (app *application) getArtistSongs(w http.ResponseWriter, r *http.Request) {
	res, err := app.catalog.GetArtistSongs(r.Context(), r.PathValue("id"), intParam(r, "page", 1))
	if err != nil {
		app.catalogError(w, r, err, "Songs")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(res))
}

func (app *application) getArtistAlbums(w http.ResponseWriter, r *http.Request) {
	res, err := app.catalog.GetArtistAlbums(r.Context(), r.PathValue("id"), intParam(r, "page", 1))
	if err != nil {
		app.catalogError(w, r, err, "Albums")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(res))
}

func (app *application) getPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := app.catalog.GetPlaylist(r.Context(), r.PathValue("id"))
	if err != nil {
		app.catalogError(w, r, err, "Playlist")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(playlist))
}

// recommendations serves both /recommendations?song_id= and /recommendations/{song_id}.
func (app *application) recommendations(w http.ResponseWriter, r *http.Request) {
	songID := r.PathValue("song_id")
	if songID == "" {
		songID = r.URL.Query().Get("song_id")
	}
	uid, _ := session.GetUserID(r.Context())

	res := app.recommender.Recommend(r.Context(), recommend.Request{
		SongID: strings.TrimSpace(songID),
		UserID: uid,
		Limit:  intParam(r, "limit", 0),
	})
	jsonResponse(w, http.StatusOK, res)
}

// Auth and user data

func (app *application) verifyToken(w http.ResponseWriter, r *http.Request) {
	id, _ := session.GetIdentity(r.Context()) // WithAuth guarantees this

	profile, err := app.database.GetProfile(r.Context(), id.UID)
	if err != nil {
		app.storeError(w, err, "Failed to load profile")
		return
	}
	// first login
	if profile == nil {
		err := app.database.SetProfile(r.Context(), &models.Profile{
			UID:      id.UID,
			Name:     id.Name,
			Email:    id.Email,
			PhotoURL: id.Picture,
		})
		if err != nil {
			app.storeError(w, err, "Failed to save profile")
			return
		}
		app.logger.Info().Str("uid", id.UID).Msg("created profile on first login")
	}

	jsonResponse(w, http.StatusOK, envelope{
		"success": true,
		"uid":     id.UID,
		"email":   id.Email,
		"name":    id.Name,
		"picture": id.Picture,
	})
}

func (app *application) getProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())
	profile, err := app.database.GetProfile(r.Context(), uid)
	if err != nil {
		app.storeError(w, err, "Failed to load profile")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(profile))
}

func (app *application) updateProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())

	var profile models.Profile
	if err := decodeBody(w, r, &profile); err != nil {
		jsonResponse(w, http.StatusBadRequest, errorBody("Invalid request body"))
		return
	}
	profile.UID = uid
	profile.UpdatedAt = time.Now().UTC()

	if err := app.database.SetProfile(r.Context(), &profile); err != nil {
		app.storeError(w, err, "Failed to save profile")
		return
	}
	jsonResponse(w, http.StatusOK, envelope{"success": true})
}

func (app *application) getPreferences(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())
	prefs, err := app.database.GetPreferences(r.Context(), uid)
	if err != nil {
		app.storeError(w, err, "Failed to load preferences")
		return
	}
	if prefs == nil {
		prefs = &models.Preferences{Artists: []string{}}
	}
	jsonResponse(w, http.StatusOK, dataBody(prefs))
}

func (app *application) savePreferences(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())

	var prefs models.Preferences
	if err := decodeBody(w, r, &prefs); err != nil {
		jsonResponse(w, http.StatusBadRequest, errorBody("Invalid request body"))
		return
	}
	if err := app.database.SetPreferences(r.Context(), uid, &prefs); err != nil {
		app.storeError(w, err, "Failed to save preferences")
		return
	}
	jsonResponse(w, http.StatusOK, envelope{"success": true})
}

func (app *application) getHistory(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())
	history, err := app.database.GetRecentHistory(r.Context(), uid, intParam(r, "limit", 50))
	if err != nil {
		app.storeError(w, err, "Failed to load history")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(history))
}

func (app *application) saveHistory(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())

	var entry models.HistoryEntry
	if err := decodeBody(w, r, &entry); err != nil || entry.SongID == "" {
		jsonResponse(w, http.StatusBadRequest, errorBody("songId is required"))
		return
	}
	if err := app.database.AppendHistory(r.Context(), uid, &entry); err != nil {
		app.storeError(w, err, "Failed to save history")
		return
	}
	jsonResponse(w, http.StatusOK, envelope{"success": true})
}

func (app *application) saveSkipped(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())

	var entry models.SkippedEntry
	if err := decodeBody(w, r, &entry); err != nil || entry.SongID == "" {
		jsonResponse(w, http.StatusBadRequest, errorBody("songId is required"))
		return
	}
	if err := app.database.AppendSkipped(r.Context(), uid, &entry); err != nil {
		app.storeError(w, err, "Failed to save skipped song")
		return
	}
	jsonResponse(w, http.StatusOK, envelope{"success": true})
}

func (app *application) getSearches(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())
	searches, err := app.database.GetRecentSearches(r.Context(), uid, intParam(r, "limit", 20))
	if err != nil {
		app.storeError(w, err, "Failed to load searches")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(searches))
}

func (app *application) saveSearch(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())

	var entry models.SearchEntry
	if err := decodeBody(w, r, &entry); err != nil || strings.TrimSpace(entry.Query) == "" {
		jsonResponse(w, http.StatusBadRequest, errorBody("query is required"))
		return
	}
	entry.ID = ""
	if err := app.database.AppendSearch(r.Context(), uid, &entry); err != nil {
		app.storeError(w, err, "Failed to save search")
		return
	}
	jsonResponse(w, http.StatusOK, envelope{"success": true, "id": entry.ID})
}

func (app *application) getCurrent(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())
	current, err := app.database.GetCurrentPlaying(r.Context(), uid)
	if err != nil {
		app.storeError(w, err, "Failed to load current song")
		return
	}
	jsonResponse(w, http.StatusOK, dataBody(current))
}

func (app *application) saveCurrent(w http.ResponseWriter, r *http.Request) {
	uid, _ := session.GetUserID(r.Context())

	var current models.CurrentPlaying
	if err := decodeBody(w, r, &current); err != nil || current.SongID == "" {
		jsonResponse(w, http.StatusBadRequest, errorBody("songId is required"))
		return
	}
	if err := app.database.SetCurrentPlaying(r.Context(), uid, &current); err != nil {
		app.storeError(w, err, "Failed to save current song")
		return
	}
	jsonResponse(w, http.StatusOK, envelope{"success": true})
}
