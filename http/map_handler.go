package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/propfair-web/internal/mapview"
	"github.com/yourorg/propfair-web/internal/session"
)

type MapDeps struct {
	Sessions *session.Registry
}

type selectRequest struct {
	ID string `json:"id"`
}

// RegisterMap mounts the endpoints the browser map talks to: the point layer
// of the current results, pick reports and camera reads/reports.
func RegisterMap(r chi.Router, d MapDeps) {
	r.Get("/map/points", func(w http.ResponseWriter, req *http.Request) {
		s := d.Sessions.Resolve(w, req)
		st := s.Page.Snapshot()
		fc := mapview.NewFeatureCollection(mapview.Points(st.Items, st.SelectedID))
		w.Header().Set("Cache-Control", "no-store")
		render.JSON(w, req, fc)
	})

	r.Post("/map/select", func(w http.ResponseWriter, req *http.Request) {
		s := d.Sessions.Resolve(w, req)
		var body selectRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		if strings.TrimSpace(body.ID) == "" {
			writeError(w, req, http.StatusBadRequest, "missing_id", "")
			return
		}
		s.Page.Select(req.Context(), body.ID)
		_, listed := mapview.Pick(s.Page.Snapshot().Items, body.ID)
		render.JSON(w, req, map[string]any{"selected_id": body.ID, "listed": listed})
	})

	r.Get("/map/viewport", func(w http.ResponseWriter, req *http.Request) {
		s := d.Sessions.Resolve(w, req)
		render.JSON(w, req, s.Camera.Current())
	})

	r.Post("/map/viewport", func(w http.ResponseWriter, req *http.Request) {
		s := d.Sessions.Resolve(w, req)
		var vp mapview.Viewport
		if err := json.NewDecoder(req.Body).Decode(&vp); err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		render.JSON(w, req, s.Camera.Move(vp))
	})
}
