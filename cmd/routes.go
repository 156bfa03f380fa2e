package main

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teal-fm/melody/config"
	"github.com/teal-fm/melody/session"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", home())
	mux.HandleFunc("GET /health", app.health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Catalog
	mux.HandleFunc("GET /search", app.search)
	mux.HandleFunc("GET /song/{id}", app.getSong)
	mux.HandleFunc("GET /song/{id}/lyrics", app.getLyrics)
	mux.HandleFunc("GET /song/{id}/suggestions", app.getSuggestions)
	mux.HandleFunc("GET /album/{id}", app.getAlbum)
	mux.HandleFunc("GET /artist/{id}", app.getArtist)
	mux.HandleFunc("GET /artist/{id}/songs", app.getArtistSongs)
	mux.HandleFunc("GET /artist/{id}/albums", app.getArtistAlbums)
	mux.HandleFunc("GET /playlist/{id}", app.getPlaylist)

	// Recommendations personalise when a token is present
	mux.HandleFunc("GET /recommendations", session.WithPossibleAuth(app.recommendations, app.verifier))
	mux.HandleFunc("GET /recommendations/{song_id}", session.WithPossibleAuth(app.recommendations, app.verifier))

	mux.HandleFunc("GET /metadata/languages", metadataLanguages)
	mux.HandleFunc("GET /metadata/artists", metadataArtists)

	// Authenticated user routes
	if app.verifier != nil {
		mux.HandleFunc("POST /auth/verify-token", session.WithAuth(app.verifyToken, app.verifier))

		mux.HandleFunc("GET /user/preferences", session.WithAuth(app.getPreferences, app.verifier))
		mux.HandleFunc("POST /user/preferences", session.WithAuth(app.savePreferences, app.verifier))
		mux.HandleFunc("GET /user/profile", session.WithAuth(app.getProfile, app.verifier))
		mux.HandleFunc("PUT /user/profile", session.WithAuth(app.updateProfile, app.verifier))

		mux.HandleFunc("GET /user/activity/history", session.WithAuth(app.getHistory, app.verifier))
		mux.HandleFunc("POST /user/activity/history", session.WithAuth(app.saveHistory, app.verifier))
		mux.HandleFunc("POST /user/activity/skipped", session.WithAuth(app.saveSkipped, app.verifier))
		mux.HandleFunc("GET /user/activity/search", session.WithAuth(app.getSearches, app.verifier))
		mux.HandleFunc("POST /user/activity/search", session.WithAuth(app.saveSearch, app.verifier))
		mux.HandleFunc("GET /user/activity/current", session.WithAuth(app.getCurrent, app.verifier))
		mux.HandleFunc("POST /user/activity/current", session.WithAuth(app.saveCurrent, app.verifier))
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	standard := alice.New(app.recoverPanic, app.logRequest, corsHandler)
	return standard.Then(mux)
}
