package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/yourorg/propfair-web/internal/logger"
	"github.com/yourorg/propfair-web/internal/mapview"
	"github.com/yourorg/propfair-web/internal/session"
	"github.com/yourorg/propfair-web/listings"
)

type fakeAPI struct {
	mu     sync.Mutex
	result listings.PaginatedListings
	err    error
	params []listings.SearchParams
	// gate, when set, holds every search until it is closed.
	gate chan struct{}
}

func (f *fakeAPI) Search(_ context.Context, p listings.SearchParams) (listings.PaginatedListings, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, p)
	return f.result, f.err
}

func (f *fakeAPI) Listing(_ context.Context, id string) (listings.Listing, error) {
	if f.err != nil {
		return listings.Listing{}, f.err
	}
	return listings.Listing{ID: id, Title: "Apto " + id}, nil
}

func (f *fakeAPI) FairPrice(_ context.Context, id string) (listings.FairPrice, error) {
	if f.err != nil {
		return listings.FairPrice{}, f.err
	}
	return listings.FairPrice{ListingID: id, ActualPrice: 2500000, PredictedPrice: 2100000, Verdict: "overpriced"}, nil
}

func (f *fakeAPI) calls() []listings.SearchParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listings.SearchParams(nil), f.params...)
}

func twoListings() listings.PaginatedListings {
	return listings.PaginatedListings{
		Items: []listings.Listing{
			{ID: "a", Title: "Apto Chapinero", City: "Bogotá", Neighborhood: "Chapinero", Price: 2500000, Latitude: 4.65, Longitude: -74.06},
			{ID: "b", Title: "Apto Usaquén", City: "Bogotá", Neighborhood: "Usaquén", Price: 3200000, Latitude: 4.70, Longitude: -74.03},
		},
		Total: 2, Page: 1, PageSize: 20, TotalPages: 1,
	}
}

type harness struct {
	api      *fakeAPI
	sessions *session.Registry
	srv      *httptest.Server
	client   *http.Client
}

func newHarness(t *testing.T, api *fakeAPI) *harness {
	t.Helper()
	reg := session.NewRegistry(session.Deps{
		Searcher:    api,
		DefaultCity: "Bogotá",
		Initial:     mapview.InitialViewport,
		Logger:      logger.Discard(),
	})

	r := chi.NewRouter()
	r.Use(logger.Middleware(logger.Discard()))
	RegisterPage(r, PageDeps{Sessions: reg, DefaultCity: "Bogotá", MapStyleURL: "https://example.test/style.json"})
	RegisterMap(r, MapDeps{Sessions: reg})
	RegisterEvents(r, EventsDeps{Sessions: reg, KeepAlive: 50 * time.Millisecond})
	r.Route("/api", func(r chi.Router) {
		RegisterListings(r, ListingsDeps{Client: api})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{api: api, sessions: reg, srv: srv, client: &http.Client{Jar: jar, Timeout: 5 * time.Second}}
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.Get(h.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func (h *harness) postForm(t *testing.T, path string, v url.Values) *http.Response {
	t.Helper()
	resp, err := h.client.PostForm(h.srv.URL+path, v)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func (h *harness) postJSON(t *testing.T, path, body string) (*http.Response, string) {
	t.Helper()
	resp, err := h.client.Post(h.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

// waitIdle blocks until the page has settled its last search.
func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, body := h.get(t, "/")
		return strings.Contains(body, ">Buscar</button>")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEmptyPage(t *testing.T) {
	h := newHarness(t, &fakeAPI{})
	resp, body := h.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "0 apartamentos encontrados")
	assert.Contains(t, body, "Usa los filtros para buscar apartamentos")
	assert.Empty(t, h.api.calls())
}

func TestSearchFlow(t *testing.T) {
	h := newHarness(t, &fakeAPI{result: twoListings()})

	resp := h.postForm(t, "/search", url.Values{
		"min_price": {"1000000"},
		"max_price": {""},
		"bedrooms":  {"2"},
		"estrato":   {"abc"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	h.waitIdle(t)

	calls := h.api.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "city=Bogot%C3%A1&min_price=1000000&bedrooms=2", calls[0].Encode())

	_, body := h.get(t, "/")
	assert.Contains(t, body, "2 apartamentos encontrados")
	assert.Equal(t, 2, strings.Count(body, `<article class="card`))
	assert.Contains(t, body, `value="1000000"`)
	assert.NotContains(t, body, "card--selected")
}

func TestSelectFromCardAndMap(t *testing.T) {
	h := newHarness(t, &fakeAPI{result: twoListings()})
	h.postForm(t, "/search", url.Values{})
	h.waitIdle(t)

	h.postForm(t, "/select/b", nil)
	_, body := h.get(t, "/")
	assert.Contains(t, body, `<article class="card card--selected" data-listing-id="b"`)

	resp, out := h.postJSON(t, "/map/select", `{"id":"a"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"selected_id":"a","listed":true}`, out)

	_, body = h.get(t, "/")
	assert.Equal(t, 1, strings.Count(body, "card--selected"))
	assert.Contains(t, body, `<article class="card card--selected" data-listing-id="a"`)

	resp, _ = h.postJSON(t, "/map/select", `{"id":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = h.postJSON(t, "/map/select", `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMapPoints(t *testing.T) {
	h := newHarness(t, &fakeAPI{result: twoListings()})

	_, body := h.get(t, "/map/points")
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, body)

	h.postForm(t, "/search", url.Values{})
	h.waitIdle(t)
	h.postForm(t, "/select/a", nil)

	_, body = h.get(t, "/map/points")
	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal([]byte(body), &fc))
	require.Len(t, fc.Features, 2)
	pt, ok := fc.Features[0].Geometry.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, []float64{-74.06, 4.65}, pt.FlatCoords())
	assert.Equal(t, true, fc.Features[0].Properties["selected"])
	assert.Equal(t, "rgba(59,130,246,1.000)", fc.Features[0].Properties["color"])
	assert.Equal(t, false, fc.Features[1].Properties["selected"])
}

func TestViewportReadAndMove(t *testing.T) {
	h := newHarness(t, &fakeAPI{})

	_, body := h.get(t, "/map/viewport")
	var vp mapview.Viewport
	require.NoError(t, json.Unmarshal([]byte(body), &vp))
	assert.Equal(t, mapview.InitialViewport, vp)

	resp, body := h.postJSON(t, "/map/viewport", `{"latitude":6.2442,"longitude":-75.5812,"zoom":30,"pitch":10,"bearing":0}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(body), &vp))
	assert.Equal(t, 24.0, vp.Zoom)

	_, page := h.get(t, "/")
	assert.Contains(t, page, `data-latitude="6.2442"`)
}

func TestPaging(t *testing.T) {
	res := twoListings()
	res.TotalPages = 3
	h := newHarness(t, &fakeAPI{result: res})
	h.postForm(t, "/search", url.Values{})
	h.waitIdle(t)

	h.postForm(t, "/page/2", nil)
	h.waitIdle(t)
	calls := h.api.calls()
	require.Len(t, calls, 2)
	require.NotNil(t, calls[1].Page)
	assert.Equal(t, 2, *calls[1].Page)

	resp := h.postForm(t, "/page/zero", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFailedSearchShowsNoticeAndKeepsResults(t *testing.T) {
	api := &fakeAPI{result: twoListings()}
	h := newHarness(t, api)
	h.postForm(t, "/search", url.Values{})
	h.waitIdle(t)

	api.mu.Lock()
	api.err = fmt.Errorf("%w: status 500", listings.ErrFetchFailed)
	api.mu.Unlock()
	h.postForm(t, "/search", url.Values{"bedrooms": {"3"}})
	h.waitIdle(t)

	_, body := h.get(t, "/")
	assert.Contains(t, body, `class="notice"`)
	assert.NotContains(t, body, "status 500")
	assert.Contains(t, body, "2 apartamentos encontrados")
}

func TestEventStream(t *testing.T) {
	h := newHarness(t, &fakeAPI{result: twoListings()})
	h.get(t, "/")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: connected", lines.Text())

	go func() {
		if resp, err := h.client.PostForm(h.srv.URL+"/select/a", nil); err == nil {
			resp.Body.Close()
		}
	}()

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: ") || line == "data: {}" {
			continue
		}
		var evt struct {
			Kind       string `json:"kind"`
			SelectedID string `json:"selected_id"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
		if evt.Kind == "current" {
			continue
		}
		assert.Equal(t, "selected", evt.Kind)
		assert.Equal(t, "a", evt.SelectedID)
		return
	}
	t.Fatal("stream ended without a page event")
}

var versionAttr = regexp.MustCompile(`data-version="(\d+)"`)

// A search that settles after the page rendered its loading state but
// before the browser opened the stream must still reach the browser.
func TestEventStreamReportsSettlementMissedBeforeSubscribe(t *testing.T) {
	api := &fakeAPI{result: twoListings(), gate: make(chan struct{})}
	h := newHarness(t, api)

	h.postForm(t, "/search", url.Values{})
	_, page := h.get(t, "/")
	require.Contains(t, page, ">Buscando...</button>")
	m := versionAttr.FindStringSubmatch(page)
	require.Len(t, m, 2)
	rendered, err := strconv.ParseUint(m[1], 10, 64)
	require.NoError(t, err)

	close(api.gate)
	h.waitIdle(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: ") || line == "data: {}" {
			continue
		}
		var evt struct {
			Kind    string `json:"kind"`
			Version uint64 `json:"version"`
			Loading bool   `json:"loading"`
			Total   int    `json:"total"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
		assert.Equal(t, "current", evt.Kind)
		assert.Greater(t, evt.Version, rendered)
		assert.False(t, evt.Loading)
		assert.Equal(t, 2, evt.Total)
		return
	}
	t.Fatal("stream ended without the current page state")
}

func TestAPISearchProxy(t *testing.T) {
	api := &fakeAPI{result: twoListings()}
	h := newHarness(t, api)

	resp, body := h.get(t, "/api/listings?city=Medell%C3%ADn&bedrooms=2&min_price=abc")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got listings.PaginatedListings
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 2, got.Total)

	calls := api.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "city=Medell%C3%ADn&bedrooms=2", calls[0].Encode())
}

func TestAPIListingAndFairPrice(t *testing.T) {
	h := newHarness(t, &fakeAPI{})

	resp, body := h.get(t, "/api/listings/abc-123")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"id":"abc-123"`)

	resp, body = h.get(t, "/api/listings/abc-123/fair-price")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"verdict":"overpriced"`)

	resp, body = h.get(t, "/api/listings/"+url.PathEscape("bad id"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, `"invalid_id"`)
}

func TestAPIUpstreamFailure(t *testing.T) {
	h := newHarness(t, &fakeAPI{err: fmt.Errorf("%w: status 503", listings.ErrFetchFailed)})

	for _, path := range []string{"/api/listings", "/api/listings/a", "/api/listings/a/fair-price"} {
		resp, body := h.get(t, path)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode, path)
		assert.Contains(t, body, `"error":"upstream_error"`, path)
	}
}

func TestAPIUndecodableUpstream(t *testing.T) {
	h := newHarness(t, &fakeAPI{err: errors.New("invalid character '<'")})
	resp, _ := h.get(t, "/api/listings")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
