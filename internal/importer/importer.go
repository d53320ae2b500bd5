// Package importer turns a recipe web page into a user recipe using
// readability extraction.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
)

var _ domain.RecipeImporter = (*Web)(nil)

// maxBodySize caps the HTML we are willing to parse.
const maxBodySize = 10 * 1024 * 1024

// ErrNoContent means the page had nothing readable.
var ErrNoContent = errors.New("page has no readable content")

// Option configures the importer.
type Option func(*Web)

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(w *Web) { w.http.Timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(w *Web) { w.http = c }
}

// Web fetches pages over HTTP.
type Web struct {
	http *http.Client
	log  *logger.Logger
}

// NewWeb creates a web importer.
func NewWeb(log *logger.Logger, opts ...Option) *Web {
	w := &Web{
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Import fetches pageURL and maps the article onto recipe fields: the
// title becomes Title, the text becomes Instructions and the lead image
// becomes ThumbnailURI.
func (w *Web) Import(ctx context.Context, pageURL string) (domain.UserRecipeFields, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.UserRecipeFields{}, fmt.Errorf("importer: %q is not an http(s) URL", pageURL)
	}

	body, err := w.fetch(ctx, u)
	if err != nil {
		return domain.UserRecipeFields{}, err
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return domain.UserRecipeFields{}, fmt.Errorf("importer: extract article: %w", err)
	}

	text := cleanText(article.TextContent)
	if text == "" {
		return domain.UserRecipeFields{}, fmt.Errorf("importer: %s: %w", pageURL, ErrNoContent)
	}
	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = u.Host
	}

	w.log.Info("imported %q from %s (%d chars)", title, u.Host, len(text))
	return domain.UserRecipeFields{
		Title:        title,
		Instructions: text,
		ThumbnailURI: article.Image,
	}, nil
}

func (w *Web) fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("importer: create request: %w", err)
	}
	// Some recipe sites refuse requests that do not look like a browser.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("importer: fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("importer: fetch %s: status %d", u, resp.StatusCode)
	}
	if resp.ContentLength > maxBodySize {
		return nil, fmt.Errorf("importer: content-length %d exceeds %d bytes", resp.ContentLength, maxBodySize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("importer: read body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("importer: body exceeds %d bytes", maxBodySize)
	}
	return body, nil
}

// cleanText trims every line and collapses runs of blank lines.
func cleanText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
