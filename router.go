package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"

	httpapi "github.com/yourorg/propfair-web/http"
	"github.com/yourorg/propfair-web/internal/logger"
	"github.com/yourorg/propfair-web/internal/session"
	"github.com/yourorg/propfair-web/internal/view"
)

type RouterDeps struct {
	Logger      *slog.Logger
	Listings    httpapi.ListingsAPI
	Sessions    *session.Registry
	DefaultCity string
	MapStyleURL string

	RateLimitPerMin int
	CORSOrigins     []string
}

func BuildRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(d.Logger))
	r.Use(middleware.Recoverer)
	if d.RateLimitPerMin > 0 {
		r.Use(httprate.LimitByIP(d.RateLimitPerMin, 1*time.Minute)) // protect upstream quota
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]any{"ok": true})
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(view.Static()))))

	httpapi.RegisterPage(r, httpapi.PageDeps{Sessions: d.Sessions, DefaultCity: d.DefaultCity, MapStyleURL: d.MapStyleURL})
	httpapi.RegisterMap(r, httpapi.MapDeps{Sessions: d.Sessions})
	httpapi.RegisterEvents(r, httpapi.EventsDeps{Sessions: d.Sessions})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", logger.TraceHeader},
			ExposedHeaders:   []string{logger.TraceHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		r.Use(render.SetContentType(render.ContentTypeJSON))
		httpapi.RegisterListings(r, httpapi.ListingsDeps{Client: d.Listings})
	})

	return r
}
