package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/liamwears/cinedex/internal/models"
)

// MaxPages caps the page count of every listing; TMDB refuses pages past 500.
const MaxPages = 500

// DefaultMinDelay is how long a fetch reports Loading at minimum
const DefaultMinDelay = 500 * time.Millisecond

// ErrSuperseded is returned by Load when a newer fetch started before this one
// finished. Its result was discarded.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// Status is the fetch status of a listing
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
)

// String returns the wire name of the status
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Query is what a Fetcher needs to load one page
type Query struct {
	Page int
	Term string
}

// Result is one fetched page
type Result struct {
	Items      []models.Movie
	TotalPages int
}

// Fetcher loads a page of movies for a listing
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (*Result, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, q Query) (*Result, error)

// Fetch calls f(ctx, q)
func (f FetcherFunc) Fetch(ctx context.Context, q Query) (*Result, error) {
	return f(ctx, q)
}

// Variant captures the behavioural differences between listing views
type Variant struct {
	Name string
	// ClearGenresOnPageChange drops the genre selection when the page changes
	ClearGenresOnPageChange bool
	// Searchable views carry a search term and a sort order, and only fetch
	// once a term is set. Reset also clears their results.
	Searchable bool
}

var (
	PopularVariant    = Variant{Name: "popular"}
	TopRatedVariant   = Variant{Name: "toprated"}
	FavouritesVariant = Variant{Name: "favourites"}
	SearchVariant     = Variant{Name: "search", ClearGenresOnPageChange: true, Searchable: true}
)

// Options tunes a State
type Options struct {
	// MinDelay keeps the listing in Loading for at least this long after a
	// fetch starts. Zero disables it.
	MinDelay time.Duration
	// Now is the clock, time.Now when nil
	Now func() time.Time
}

// State is the listing state of one view for one visitor.
// It is safe for concurrent use; the lock is never held across a fetch.
type State struct {
	mu       sync.Mutex
	variant  Variant
	fetcher  Fetcher
	minDelay time.Duration
	now      func() time.Time

	items        []models.Movie
	currentPage  int
	totalPages   int
	activeGenres []int
	term         string
	sort         SortOrder
	status       Status
	err          error
	generation   uint64
	readyAt      time.Time
	scrollToTop  bool
}

// NewState creates the listing state of a freshly mounted view
func NewState(variant Variant, fetcher Fetcher, opts Options) *State {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &State{
		variant:     variant,
		fetcher:     fetcher,
		minDelay:    opts.MinDelay,
		now:         now,
		currentPage: 1,
		sort:        SortFeatured,
	}
}

// Variant returns the view variant
func (s *State) Variant() Variant {
	return s.variant
}

// Reset clears the genre selection and returns to page 1.
// Searchable views also forget their results and search term.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeGenres = nil
	s.currentPage = 1
	if s.variant.Searchable {
		s.items = nil
		s.term = ""
		s.totalPages = 0
		s.status = Idle
		s.err = nil
		// Any fetch still in flight belongs to the old search.
		s.generation++
	}
}

// ChangeCurrentPage moves to page n. It is a no-op returning false unless
// 1 <= n <= totalPages.
func (s *State) ChangeCurrentPage(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := AcceptJump(n, s.totalPages); !ok {
		return false
	}
	if s.variant.ClearGenresOnPageChange {
		s.activeGenres = nil
	}
	s.currentPage = n
	s.scrollToTop = true
	return true
}

// Load runs the fetch cycle for the current page. A searchable view without
// a search term does nothing. When the source has shrunk below the current
// page, the last page that still exists is fetched instead.
func (s *State) Load(ctx context.Context) error {
	for {
		again, err := s.load(ctx)
		if err != nil || !again {
			return err
		}
	}
}

// load fetches the current page once. It reports true when the page was past
// the end and currentPage has been moved back, so the caller must fetch again.
// currentPage only decreases between such rounds.
func (s *State) load(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.variant.Searchable && s.term == "" {
		s.mu.Unlock()
		return false, nil
	}
	s.generation++
	gen := s.generation
	q := Query{Page: s.currentPage, Term: s.term}
	s.status = Loading
	s.err = nil
	s.activeGenres = nil
	started := s.now()
	s.mu.Unlock()

	res, err := s.fetcher.Fetch(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false, ErrSuperseded
	}
	if err != nil {
		s.status = Failed
		s.err = err
		return false, fmt.Errorf("failed to load %s page %d: %w", s.variant.Name, q.Page, err)
	}

	s.totalPages = min(max(res.TotalPages, 0), MaxPages)
	if s.totalPages > 0 && q.Page > s.totalPages {
		s.currentPage = s.totalPages
		return true, nil
	}
	s.items = res.Items
	s.status = Ready
	s.readyAt = started.Add(s.minDelay)
	return false, nil
}

// EnsureLoaded runs the fetch cycle if the view has never been loaded
func (s *State) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	idle := s.status == Idle
	s.mu.Unlock()

	if !idle {
		return nil
	}
	return s.Load(ctx)
}

// Submit starts a new search from page 1. Blank terms are ignored.
func (s *State) Submit(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	if !s.variant.Searchable {
		return fmt.Errorf("%s view is not searchable", s.variant.Name)
	}

	s.mu.Lock()
	s.term = term
	s.currentPage = 1
	s.activeGenres = nil
	s.mu.Unlock()

	return s.Load(ctx)
}

// ToggleGenre adds the genre to the active selection, or removes it if
// already active. The genre must exist in the catalog.
func (s *State) ToggleGenre(id int, catalog []models.Genre) error {
	if !inCatalog(catalog, id) {
		return fmt.Errorf("genre %d: %w", id, ErrUnknownGenre)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, active := range s.activeGenres {
		if active == id {
			s.activeGenres = append(s.activeGenres[:i:i], s.activeGenres[i+1:]...)
			return nil
		}
	}
	s.activeGenres = append(s.activeGenres, id)
	return nil
}

// SetSort changes the display order of a searchable view
func (s *State) SetSort(order SortOrder) error {
	if !s.variant.Searchable {
		return ErrSortUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = order
	return nil
}

// Status returns the current fetch status, honouring the minimum delay
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *State) statusLocked() Status {
	if s.status == Ready && s.now().Before(s.readyAt) {
		return Loading
	}
	return s.status
}

// Snapshot is a point-in-time, render-ready view of a listing
type Snapshot struct {
	View            string         `json:"view"`
	Status          Status         `json:"status"`
	Error           string         `json:"error,omitempty"`
	Items           []models.Movie `json:"items"`
	FetchedCount    int            `json:"fetchedCount"`
	CurrentPage     int            `json:"currentPage"`
	TotalPages      int            `json:"totalPages"`
	Pager           Pager          `json:"pager"`
	ActiveGenres    []int          `json:"activeGenres"`
	AvailableGenres []models.Genre `json:"availableGenres"`
	Term            string         `json:"term,omitempty"`
	Sort            SortOrder      `json:"sort,omitempty"`
	ScrollToTop     bool           `json:"scrollToTop"`
}

// IsActive reports whether a genre is part of the active selection
func (s Snapshot) IsActive(id int) bool {
	for _, active := range s.ActiveGenres {
		if active == id {
			return true
		}
	}
	return false
}

// Snapshot renders the listing: items filtered by the active genres and, for
// searchable views, sorted. Taking a snapshot consumes the scroll-to-top hint.
func (s *State) Snapshot(catalog []models.Genre) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := FilterMovies(s.items, s.activeGenres)
	if s.variant.Searchable {
		items = SortMovies(items, s.sort)
	}

	snap := Snapshot{
		View:            s.variant.Name,
		Status:          s.statusLocked(),
		Items:           items,
		FetchedCount:    len(s.items),
		CurrentPage:     s.currentPage,
		TotalPages:      s.totalPages,
		Pager:           NewPager(s.currentPage, s.totalPages),
		ActiveGenres:    append([]int(nil), s.activeGenres...),
		AvailableGenres: AvailableGenres(catalog, s.items),
		ScrollToTop:     s.scrollToTop,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	if s.variant.Searchable {
		snap.Term = s.term
		snap.Sort = s.sort
	}

	s.scrollToTop = false
	return snap
}
