package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/propfair-web/internal/filter"
	"github.com/yourorg/propfair-web/internal/logger"
	"github.com/yourorg/propfair-web/internal/session"
	"github.com/yourorg/propfair-web/internal/view"
	"github.com/yourorg/propfair-web/listings"
)

type PageDeps struct {
	Sessions    *session.Registry
	DefaultCity string
	MapStyleURL string
}

// RegisterPage mounts the server-rendered search page and its form posts.
func RegisterPage(r chi.Router, d PageDeps) {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		s := d.Sessions.Resolve(w, req)
		m := view.Build(s.Page.Snapshot(), s.Form(), s.Camera.Current(), d.MapStyleURL)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := view.Render(w, m); err != nil {
			logger.FromContext(req.Context()).Error("render page", "error", err)
		}
	})

	// The search is started, not awaited: the redirected page renders the
	// loading state and the event stream reloads it once results settle.
	r.Post("/search", func(w http.ResponseWriter, req *http.Request) {
		s := d.Sessions.Resolve(w, req)
		if err := req.ParseForm(); err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_form", err.Error())
			return
		}
		form := filter.FromValues(d.DefaultCity, req.PostForm)
		s.SetForm(form)
		form.Submit(func(p listings.SearchParams) {
			s.Page.Start(req.Context(), p)
		})
		backToPage(w, req)
	})

	r.Post("/select/{listingID}", func(w http.ResponseWriter, req *http.Request) {
		s := d.Sessions.Resolve(w, req)
		s.Page.Select(req.Context(), chi.URLParam(req, "listingID"))
		backToPage(w, req)
	})

	r.Post("/page/{n}", func(w http.ResponseWriter, req *http.Request) {
		s := d.Sessions.Resolve(w, req)
		n, err := strconv.Atoi(chi.URLParam(req, "n"))
		if err != nil || n < 1 {
			writeError(w, req, http.StatusBadRequest, "invalid_page", "")
			return
		}
		s.Page.GoToPage(req.Context(), n)
		backToPage(w, req)
	})
}
