// Package scraper fetches a URL and reduces the page to its visible text.
package scraper

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"content-rag/internal/models"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 10 << 20
	userAgent       = "content-rag/1.0"
)

type Scraper struct {
	client   *http.Client
	maxBytes int64
}

type Option func(*Scraper)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scraper) {
		s.client = c
	}
}

// WithMaxBytes caps how much of a response body is read.
func WithMaxBytes(n int64) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func New(opts ...Option) *Scraper {
	s := &Scraper{
		client:   &http.Client{Timeout: defaultTimeout},
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsURL reports whether input should be fetched rather than ingested as is.
func IsURL(input string) bool {
	input = strings.TrimSpace(input)
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

// Fetch downloads rawURL and returns its visible text. HTML pages are
// stripped of markup; other text responses are returned unchanged.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: not an http url: %q", models.ErrInvalidInput, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %w", models.ErrExternalService, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: fetch %s: status %d", models.ErrExternalService, u, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, s.maxBytes)
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))

	var text string
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		text, err = ExtractText(body)
	case strings.HasPrefix(mediaType, "text/"):
		var b []byte
		b, err = io.ReadAll(body)
		text = string(b)
	default:
		return "", fmt.Errorf("%w: unsupported content type %q", models.ErrInvalidInput, mediaType)
	}
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", models.ErrExternalService, u, err)
	}

	log.Debug().Str("url", u.String()).Int("chars", len(text)).Msg("Scraped page")
	return text, nil
}

var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Iframe:   true,
}

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
}

// ExtractText parses an HTML document and returns its visible text, one line
// per block element.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var lines []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
			current = current[:0]
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			current = append(current, strings.Fields(n.Data)...)
		}
		isBlock := n.Type == html.ElementNode && blocks[n.DataAtom]
		if isBlock {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if isBlock {
			flush()
		}
	}
	walk(doc)
	flush()

	return strings.Join(lines, "\n"), nil
}
