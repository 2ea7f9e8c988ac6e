// Package view renders the search page: header, filter bar, result list and
// the map container the browser script mounts on.
package view

import (
	"embed"
	"html/template"
	"io"
	"io/fs"

	"github.com/yourorg/propfair-web/internal/card"
	"github.com/yourorg/propfair-web/internal/filter"
	"github.com/yourorg/propfair-web/internal/mapview"
	"github.com/yourorg/propfair-web/internal/search"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static serves the browser script and stylesheet.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

var page = template.Must(
	template.Must(template.New("page.html").ParseFS(templateFS, "templates/*.html")).
		ParseFS(card.TemplateFS, card.TemplatePattern),
)

const (
	Title        = "PropFair"
	EmptyMessage = "Usa los filtros para buscar apartamentos"
	FailedNotice = "No se pudo completar la búsqueda. Intenta de nuevo."
)

type FormModel struct {
	City         string
	Neighborhood string
	MinPrice     string
	MaxPrice     string
	Bedrooms     string
	Bathrooms    string
	MinArea      string
	MaxArea      string
	Estrato      string

	BedroomOptions []filter.Option
	EstratoOptions []filter.Option
	Disabled       bool
	SubmitLabel    string
}

type Model struct {
	Title   string
	Form    FormModel
	Total   int
	Cards   []card.Model
	Loading bool
	Empty   bool
	Notice  string

	Page       int
	TotalPages int
	PrevPage   int
	NextPage   int

	Viewport    mapview.Viewport
	MapStyleURL string
	Version     uint64
}

// Build assembles the page model from one state snapshot so the list, the
// counter and the map container always agree.
func Build(s search.State, f *filter.Form, vp mapview.Viewport, mapStyle string) Model {
	m := Model{
		Title: Title,
		Form: FormModel{
			City:           f.Value(filter.City),
			Neighborhood:   f.Value(filter.Neighborhood),
			MinPrice:       f.Value(filter.MinPrice),
			MaxPrice:       f.Value(filter.MaxPrice),
			Bedrooms:       f.Value(filter.Bedrooms),
			Bathrooms:      f.Value(filter.Bathrooms),
			MinArea:        f.Value(filter.MinArea),
			MaxArea:        f.Value(filter.MaxArea),
			Estrato:        f.Value(filter.Estrato),
			BedroomOptions: filter.BedroomOptions,
			EstratoOptions: filter.EstratoOptions,
			Disabled:       s.Loading(),
			SubmitLabel:    filter.SubmitLabel(s.Loading()),
		},
		Total:       s.Total,
		Cards:       card.BuildAll(s.Items, s.SelectedID),
		Loading:     s.Loading(),
		Empty:       len(s.Items) == 0 && !s.Loading(),
		Page:        s.Page,
		TotalPages:  s.TotalPages,
		Viewport:    vp,
		MapStyleURL: mapStyle,
		Version:     s.Version,
	}
	if s.Failed {
		m.Notice = FailedNotice
	}
	if s.TotalPages > 1 {
		if s.Page > 1 {
			m.PrevPage = s.Page - 1
		}
		if s.Page < s.TotalPages {
			m.NextPage = s.Page + 1
		}
	}
	return m
}

func Render(w io.Writer, m Model) error {
	return page.ExecuteTemplate(w, "page.html", m)
}
