package correlation

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		// both accessors must agree
		if id := FromContext(c.Request.Context()); id == FromGin(c) {
			*seen = id
		}
		c.Status(http.StatusOK)
	})

	return r
}

func TestMiddleware_GeneratesID(t *testing.T) {
	var seen string
	r := newRouter(&seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(Header)
	require.NotEmpty(t, id)

	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, seen)
}

func TestMiddleware_HonoursInboundID(t *testing.T) {
	var seen string
	r := newRouter(&seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(Header, "upstream-req-12345")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "upstream-req-12345", w.Header().Get(Header))
	assert.Equal(t, "upstream-req-12345", seen)
}

func TestMiddleware_ReplacesMalformedInboundID(t *testing.T) {
	var seen string
	r := newRouter(&seen)

	for _, bad := range []string{"short", "has spaces in it", "<script>alert(1)</script>"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(Header, bad)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.NotEqual(t, bad, w.Header().Get(Header))
		assert.NotEmpty(t, seen)
	}
}
