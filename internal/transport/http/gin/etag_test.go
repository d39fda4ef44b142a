package httpgin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONWithCache_ETagRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/thing", func(c *gin.Context) {
		writeJSONWithCache(c, http.StatusOK, gin.H{"name": "tonight"}, "public, max-age=60", true)
	})

	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
	assert.True(t, len(w.Body.Bytes()) > 0)

	// Revalidation with the tag short-circuits to 304 with no body.
	req = httptest.NewRequest(http.MethodGet, "/thing", nil)
	req.Header.Set("If-None-Match", tag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestWriteJSONWithCache_WeakTagPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/weak", func(c *gin.Context) {
		writeJSONWithCache(c, http.StatusOK, []int{1, 2, 3}, "", true)
	})
	r.GET("/strong", func(c *gin.Context) {
		writeJSONWithCache(c, http.StatusOK, []int{1, 2, 3}, "", false)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/weak", nil))
	assert.True(t, len(w.Header().Get("ETag")) > 2)
	assert.Equal(t, "W/", w.Header().Get("ETag")[:2])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/strong", nil))
	assert.Equal(t, byte('"'), w.Header().Get("ETag")[0])
}
