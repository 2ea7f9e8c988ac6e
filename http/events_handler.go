package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/propfair-web/internal/events"
	"github.com/yourorg/propfair-web/internal/logger"
	"github.com/yourorg/propfair-web/internal/session"
)

type EventsDeps struct {
	Sessions  *session.Registry
	KeepAlive time.Duration
}

// RegisterEvents mounts the SSE stream of page changes for the caller's
// session. Each event is named "page" and carries events.PageChanged.
func RegisterEvents(r chi.Router, d EventsDeps) {
	keepAlive := d.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}

	r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
		log := logger.FromContext(req.Context()).With("handler", "events")
		s := d.Sessions.Resolve(w, req)

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, req, http.StatusInternalServerError, "streaming_unsupported", "")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ch, cancel := s.Page.Subscribe(16)
		defer cancel()

		log.Debug("event stream opened", "session_id", s.ID)
		fmt.Fprint(w, "event: connected\ndata: {}\n\n")

		// Sent after subscribing so a settlement between the page render
		// and this request is seen either here or on the channel.
		if err := writePageEvent(w, s.Page.Current()); err != nil {
			log.Error("write current page event", "error", err)
			return
		}
		flusher.Flush()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if err := writePageEvent(w, evt); err != nil {
					log.Debug("event stream write failed", "error", err)
					return
				}
				flusher.Flush()
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case <-req.Context().Done():
				log.Debug("event stream closed", "session_id", s.ID)
				return
			}
		}
	})
}

func writePageEvent(w io.Writer, evt events.PageChanged) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal page event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: page\ndata: %s\n\n", data)
	return err
}
