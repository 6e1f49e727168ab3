package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-rag/internal/models"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Ignored</title><style>body { color: red; }</style></head>
<body>
  <script>var secret = 1;</script>
  <h1>Goroutines</h1>
  <p>Goroutines are   <b>cheap</b>
  threads.</p>
  <noscript>enable js</noscript>
  <ul><li>one</li><li>two</li></ul>
</body>
</html>`

func TestExtractText(t *testing.T) {
	text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Goroutines\nGoroutines are cheap threads.\none\ntwo", text)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("just text"))
		case "/binary":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte{0, 1, 2})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := New(WithHTTPClient(srv.Client()))
	ctx := context.Background()

	t.Run("html", func(t *testing.T) {
		text, err := s.Fetch(ctx, srv.URL+"/page")
		require.NoError(t, err)
		assert.Contains(t, text, "Goroutines are cheap threads.")
		assert.NotContains(t, text, "secret")
	})

	t.Run("plain text", func(t *testing.T) {
		text, err := s.Fetch(ctx, srv.URL+"/plain")
		require.NoError(t, err)
		assert.Equal(t, "just text", text)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.Fetch(ctx, srv.URL+"/missing")
		assert.ErrorIs(t, err, models.ErrExternalService)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := s.Fetch(ctx, srv.URL+"/binary")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := s.Fetch(ctx, "ftp://example.com/file")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestFetch_MaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer srv.Close()

	text, err := New(WithHTTPClient(srv.Client()), WithMaxBytes(10)).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, text, 10)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com"))
	assert.True(t, IsURL("  http://example.com/a"))
	assert.False(t, IsURL("httpclient is a word"))
	assert.False(t, IsURL("plain text"))
}
