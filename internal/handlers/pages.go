package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/liamwears/cinedex/internal/listing"
	"github.com/liamwears/cinedex/internal/models"
	"github.com/liamwears/cinedex/internal/services"
)

// listingTitles names the listing pages in the navigation bar
var listingTitles = map[string]string{
	listing.PopularVariant.Name:    "Popular",
	listing.TopRatedVariant.Name:   "Top Rated",
	listing.SearchVariant.Name:     "Search",
	listing.FavouritesVariant.Name: "Favourites",
}

// PageHandler handles page rendering
type PageHandler struct {
	details    *services.DetailService
	views      *services.ViewRegistry
	genres     *services.GenreCatalog
	favourites *services.FavouritesStore
	renderer   *Renderer
	logger     *log.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(details *services.DetailService, views *services.ViewRegistry, genres *services.GenreCatalog, favourites *services.FavouritesStore, renderer *Renderer, logger *log.Logger) *PageHandler {
	return &PageHandler{
		details:    details,
		views:      views,
		genres:     genres,
		favourites: favourites,
		renderer:   renderer,
		logger:     logger,
	}
}

func (h *PageHandler) renderError(w http.ResponseWriter, err error, msg string) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrUnknownView):
		status = http.StatusNotFound
		msg = "We couldn't find that page."
	case errors.Is(err, services.ErrMalformedFavourites):
		status = http.StatusInternalServerError
		msg = "Your favourites list is damaged. Clear it to start over."
	default:
		h.logger.Printf("%s: %v", msg, err)
	}

	h.renderer.RenderPage(w, status, "error.html", map[string]any{
		"Title":      "Error",
		"ActivePage": "",
		"Message":    msg,
		"Status":     status,
	})
}

// NotFound handles every path no other route matches
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, services.ErrNotFound, "")
}

// Home handles GET /. Visiting it resets every listing.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	h.views.For(visitor).ResetAll()

	home, err := h.details.Home(r.Context())
	if err != nil {
		h.renderError(w, err, "Failed to fetch movies")
		return
	}

	h.renderer.RenderPage(w, http.StatusOK, "home.html", map[string]any{
		"Title":      "Home",
		"ActivePage": "home",
		"Popular":    home.Popular,
		"TopRated":   home.TopRated,
	})
}

func (h *PageHandler) catalog(ctx context.Context) []models.Genre {
	genres, err := h.genres.Genres(ctx)
	if err != nil {
		h.logger.Printf("Failed to load genre catalog: %v", err)
		return nil
	}
	return genres
}

func (h *PageHandler) report(err error) {
	if err != nil && !errors.Is(err, listing.ErrSuperseded) {
		h.logger.Printf("Listing fetch failed: %v", err)
	}
}

// apply performs the one listing action the query string asks for. A plain
// visit refetches the current page, as mounting the view does.
func (h *PageHandler) apply(r *http.Request, state *listing.State) {
	ctx := r.Context()
	q := r.URL.Query()

	switch {
	case q.Has("reset"):
		state.Reset()
		h.report(state.Load(ctx))
	case q.Get("query") != "" && state.Variant().Searchable:
		h.report(state.Submit(ctx, q.Get("query")))
	case q.Has("page"):
		page, _ := strconv.Atoi(q.Get("page"))
		if state.ChangeCurrentPage(page) {
			h.report(state.Load(ctx))
		}
	case q.Has("genre"):
		h.report(state.EnsureLoaded(ctx))
		genreID, err := strconv.Atoi(q.Get("genre"))
		if err != nil {
			return
		}
		if err := state.ToggleGenre(genreID, h.catalog(ctx)); err != nil {
			h.logger.Printf("Ignoring genre toggle: %v", err)
		}
	case q.Has("sort"):
		h.report(state.EnsureLoaded(ctx))
		if order, err := listing.ParseSortOrder(q.Get("sort")); err == nil {
			if err := state.SetSort(order); err != nil {
				h.logger.Printf("Ignoring sort: %v", err)
			}
		}
	default:
		h.report(state.Load(ctx))
	}
}

// Listing renders one of the four listing views
func (h *PageHandler) Listing(view string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitor, ok := visitorID(w, r)
		if !ok {
			return
		}
		state, err := h.views.For(visitor).Get(view)
		if err != nil {
			h.renderError(w, err, "")
			return
		}

		h.apply(r, state)
		snap := state.Snapshot(h.catalog(r.Context()))

		h.renderer.RenderPage(w, http.StatusOK, "listing.html", map[string]any{
			"Title":      listingTitles[view],
			"ActivePage": view,
			"Path":       r.URL.Path,
			"Snapshot":   snap,
			"Searchable": state.Variant().Searchable,
			"SortOrders": listing.SortOrders,
		})
	}
}

// Movie handles GET /movie/{id}
func (h *PageHandler) Movie(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	movieID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || movieID < 1 {
		h.renderError(w, services.ErrNotFound, "")
		return
	}

	view, err := h.details.Movie(r.Context(), visitor, movieID)
	if err != nil {
		h.renderError(w, err, "Failed to fetch movie")
		return
	}

	h.renderer.RenderPage(w, http.StatusOK, "movie.html", map[string]any{
		"Title":      view.Movie.Title,
		"ActivePage": "",
		"View":       view,
	})
}

// ToggleFavourite handles POST /movie/{id}/favourite
func (h *PageHandler) ToggleFavourite(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if n, err := strconv.Atoi(id); err != nil || n < 1 {
		h.renderError(w, services.ErrNotFound, "")
		return
	}

	ctx := r.Context()
	in, err := h.favourites.Contains(ctx, visitor, id)
	if err == nil {
		if in {
			err = h.favourites.Remove(ctx, visitor, id)
		} else {
			err = h.favourites.Add(ctx, visitor, id)
		}
	}
	if err != nil {
		h.renderError(w, err, "Failed to update favourites")
		return
	}

	http.Redirect(w, r, "/movie/"+id, http.StatusSeeOther)
}

// ClearFavourites handles POST /favourites/clear
func (h *PageHandler) ClearFavourites(w http.ResponseWriter, r *http.Request) {
	visitor, ok := visitorID(w, r)
	if !ok {
		return
	}

	if err := h.favourites.Clear(r.Context(), visitor); err != nil {
		h.renderError(w, err, "Failed to clear favourites")
		return
	}

	http.Redirect(w, r, "/favourites?reset=1", http.StatusSeeOther)
}

// Person handles GET /actor/{id}
func (h *PageHandler) Person(w http.ResponseWriter, r *http.Request) {
	personID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || personID < 1 {
		h.renderError(w, services.ErrNotFound, "")
		return
	}

	view, err := h.details.Person(r.Context(), personID)
	if err != nil {
		h.renderError(w, err, "Failed to fetch person")
		return
	}

	h.renderer.RenderPage(w, http.StatusOK, "person.html", map[string]any{
		"Title":      view.Person.Name,
		"ActivePage": "",
		"View":       view,
	})
}
