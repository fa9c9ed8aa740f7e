// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"riplive/cliparse"
	"riplive/db"
	"riplive/handlers"
	"riplive/middleware"
)

func NewRouter(database *db.DB, cfg cliparse.ServerConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(database, cfg)
	displayHandler := handlers.NewDisplayHandler(database, cfg)
	cardHandler := handlers.NewCardHandler(database, cfg)
	locationHandler := handlers.NewLocationHandler(database, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Session lifecycle (control token or operator key for mutations)
	mux.HandleFunc("POST /sessions", middleware.WithLogging(sessionHandler.StartSession))
	mux.HandleFunc("GET /sessions/{id}", middleware.WithLogging(sessionHandler.GetSession))
	mux.HandleFunc("GET /sessions/code/{code}", middleware.WithLogging(sessionHandler.GetSessionByCode))
	mux.HandleFunc("POST /sessions/{id}/advance", middleware.WithLogging(sessionHandler.AdvanceStage))
	mux.HandleFunc("POST /sessions/{id}/reveal", middleware.WithLogging(sessionHandler.AttachReveal))
	mux.HandleFunc("POST /sessions/{id}/cancel", middleware.WithLogging(sessionHandler.CancelSession))

	// Public display snapshot (polled by kiosks)
	mux.HandleFunc("GET /display/{slug}", middleware.WithLogging(displayHandler.GetSnapshot))

	// Card inventory
	mux.HandleFunc("GET /cards/{code}", middleware.WithLogging(cardHandler.GetCard))
	mux.HandleFunc("POST /cards", middleware.WithLogging(cardHandler.LinkCard))

	// Location registration
	mux.HandleFunc("POST /locations", middleware.WithLogging(locationHandler.CreateLocation))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("riplive API v1"))
	})

	return mux
}
