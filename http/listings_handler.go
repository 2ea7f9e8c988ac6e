package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/propfair-web/internal/logger"
	"github.com/yourorg/propfair-web/listings"
)

// ListingsAPI is the part of listings.Client the JSON routes use.
type ListingsAPI interface {
	Search(ctx context.Context, p listings.SearchParams) (listings.PaginatedListings, error)
	Listing(ctx context.Context, id string) (listings.Listing, error)
	FairPrice(ctx context.Context, id string) (listings.FairPrice, error)
}

type ListingsDeps struct {
	Client ListingsAPI
}

const maxListingIDLen = 128

// RegisterListings mounts the stateless JSON proxy over the listings API.
func RegisterListings(r chi.Router, d ListingsDeps) {
	r.Get("/listings", func(w http.ResponseWriter, req *http.Request) {
		params := listings.ParseQuery(req.URL.Query())
		res, err := d.Client.Search(req.Context(), params)
		if err != nil {
			upstreamError(w, req, err)
			return
		}
		render.JSON(w, req, res)
	})

	r.Get("/listings/{listingID}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := listingID(w, req)
		if !ok {
			return
		}
		l, err := d.Client.Listing(req.Context(), id)
		if err != nil {
			upstreamError(w, req, err)
			return
		}
		render.JSON(w, req, l)
	})

	r.Get("/listings/{listingID}/fair-price", func(w http.ResponseWriter, req *http.Request) {
		id, ok := listingID(w, req)
		if !ok {
			return
		}
		fp, err := d.Client.FairPrice(req.Context(), id)
		if err != nil {
			upstreamError(w, req, err)
			return
		}
		render.JSON(w, req, fp)
	})
}

func listingID(w http.ResponseWriter, req *http.Request) (string, bool) {
	id := chi.URLParam(req, "listingID")
	if id == "" || len(id) > maxListingIDLen || strings.IndexFunc(id, invalidIDRune) >= 0 {
		writeError(w, req, http.StatusBadRequest, "invalid_id", "")
		return "", false
	}
	return id, true
}

func invalidIDRune(r rune) bool {
	return r == '/' || unicode.IsSpace(r) || unicode.IsControl(r)
}

func upstreamError(w http.ResponseWriter, req *http.Request, err error) {
	log := logger.FromContext(req.Context())
	if errors.Is(err, listings.ErrFetchFailed) {
		log.Warn("listings api request failed", "error", err)
	} else {
		log.Error("listings api response unreadable", "error", err)
	}
	writeError(w, req, http.StatusBadGateway, "upstream_error", err.Error())
}
