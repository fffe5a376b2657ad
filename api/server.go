/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Timeout:    60s cap per request
  6. CORS:       Cross-origin requests, origins from config

ROUTE GROUPS:
  /api/transactions/*   Record processing and CSV import
  /api/accounts/*       Balance summaries
  /api/report           CSV download
  /api/stats            Engine counters
  /api/reset            Engine reset (dev only)
  /api/scenarios/*      Demo scenarios
  /*                    Landing page listing the endpoints

SECURITY NOTE:
  No authentication middleware. All endpoints are public; this surface is
  meant for demos and local inspection, not untrusted networks.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
// allowedOrigins feeds the CORS layer; "*" admits every origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.SubmitTransaction)
			r.Post("/import", h.ImportTransactions)
		})

		// Account routes
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Get("/{clientID}", h.GetAccount)
		})

		r.Get("/report", h.GetReport)
		r.Get("/stats", h.GetStats)
		r.Post("/reset", h.Reset)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	// Landing page: no frontend, just a map of the API surface.
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Payments Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Payments Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li>POST /api/transactions - Process one record</li>
<li>POST /api/transactions/import - Process a CSV stream</li>
<li><a href="/api/accounts">/api/accounts</a> - List balance summaries</li>
<li><a href="/api/report">/api/report</a> - Download the CSV summary</li>
<li><a href="/api/stats">/api/stats</a> - Engine counters</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
