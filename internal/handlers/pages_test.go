package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPages_Home(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Fight Club")
	assert.Contains(t, rec.Body.String(), "The Godfather")
}

func TestPages_Listing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/popular", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "The Matrix")
	assert.Contains(t, body, `href="/popular?genre=28"`)
	assert.Contains(t, body, `href="/popular?page=500"`)
	assert.Contains(t, body, `name="page"`)

	rec = env.do(t, http.MethodGet, "/popular?genre=35", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Forrest Gump")
	assert.NotContains(t, rec.Body.String(), "The Matrix")

	rec = env.do(t, http.MethodGet, "/popular?page=42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span class="current">42</span>`)
}

func TestPages_Search(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/search", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Type a title to start searching.")

	rec = env.do(t, http.MethodGet, "/search?query=alien", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Aliens")
	assert.Contains(t, rec.Body.String(), `value="alien"`)
}

func TestPages_MovieFavouriteToggle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/movie/550", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "David Fincher")
	assert.Contains(t, body, "$63,000,000")
	assert.Contains(t, body, "139 min")
	assert.Contains(t, body, `src="https://image.tmdb.org/t/p/w500/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg"`)
	assert.Contains(t, body, `<div class="no-image">No image</div>`, "cast without a profile photo")
	assert.Contains(t, body, "Add to favourites")

	rec = env.do(t, http.MethodPost, "/movie/550/favourite", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/movie/550", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/movie/550", "")
	assert.Contains(t, rec.Body.String(), "Remove from favourites")

	rec = env.do(t, http.MethodGet, "/favourites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fight Club")

	rec = env.do(t, http.MethodPost, "/favourites/clear", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = env.do(t, http.MethodGet, "/favourites?reset=1", "")
	assert.Contains(t, rec.Body.String(), "You have no favourites yet.")
}

func TestPages_Person(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/actor/819", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Edward Norton")
	assert.Contains(t, rec.Body.String(), "Male")
	assert.Contains(t, rec.Body.String(), "Boston")
}

func TestPages_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{"/movie/1", "/movie/abc", "/actor/0", "/nowhere"} {
		rec := env.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "We couldn&#39;t find that page.", target)
	}
}
