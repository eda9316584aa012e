package metadata

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookshelf/internal/access"
	"bookshelf/internal/platform/googlebooks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHTTPHandler_Search(t *testing.T) {
	t.Run("missing query", func(t *testing.T) {
		h := NewHTTPHandler(NewProvider(new(mockSearcher), nil, 0))
		w := httptest.NewRecorder()
		h.Search(w, httptest.NewRequest(http.MethodGet, "/admin/metadata/search", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns candidates", func(t *testing.T) {
		s := new(mockSearcher)
		s.On("SearchVolumes", mock.Anything, "kurzweil", MaxResults).Return([]googlebooks.Volume{
			volume("v1", "The Singularity Is Near", "Ray Kurzweil"),
		}, nil)

		h := NewHTTPHandler(NewProvider(s, nil, 0))
		w := httptest.NewRecorder()
		h.Search(w, httptest.NewRequest(http.MethodGet, "/admin/metadata/search?q=kurzweil", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"external_id":"v1"`)
		assert.Contains(t, w.Body.String(), `"count":1`)
	})

	t.Run("upstream down is 502", func(t *testing.T) {
		s := new(mockSearcher)
		s.On("SearchVolumes", mock.Anything, "x", MaxResults).Return(nil, errors.New("503"))

		h := NewHTTPHandler(NewProvider(s, nil, 0))
		w := httptest.NewRecorder()
		h.Search(w, httptest.NewRequest(http.MethodGet, "/admin/metadata/search?q=x", nil))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "PROVIDER_UNAVAILABLE")
	})
}

func TestHTTPHandler_Revalidate(t *testing.T) {
	cache := newMemoryCache()
	h := NewHTTPHandler(NewProvider(new(mockSearcher), cache, 0))

	w := httptest.NewRecorder()
	h.Revalidate(w, httptest.NewRequest(http.MethodPost, "/admin/revalidate", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, cache.cleared)

	r := httptest.NewRequest(http.MethodPost, "/admin/revalidate", nil)
	r = r.WithContext(access.WithCapability(r.Context(), access.Admin("s")))
	w = httptest.NewRecorder()
	h.Revalidate(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, cache.cleared)
}
