// Package metadata fetches best-effort page metadata for a URL. It is
// a collaborator boundary: failures of any kind degrade to empty
// fields, never to an error, so bookmark creation can proceed with the
// raw URL as title.
package metadata

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	fetchTimeout = 8 * time.Second
	userAgent    = "Mozilla/5.0 (compatible; PrivateNest/1.0)"
)

type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	FaviconURL  string `json:"favicon_url"`
}

type Fetcher struct {
	client *resty.Client
	logger *zap.SugaredLogger
}

func NewFetcher(logger *zap.SugaredLogger) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(fetchTimeout).
			SetHeader("User-Agent", userAgent),
		logger: logger,
	}
}

var (
	titleRe   = regexp.MustCompile(`(?i)<title[^>]*>([^<]*)</title>`)
	ogTitleRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta[^>]*property=["']og:title["'][^>]*content=["']([^"']*)["'][^>]*>`),
		regexp.MustCompile(`(?i)<meta[^>]*content=["']([^"']*)["'][^>]*property=["']og:title["'][^>]*>`),
	}
	descriptionRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta[^>]*property=["']og:description["'][^>]*content=["']([^"']*)["'][^>]*>`),
		regexp.MustCompile(`(?i)<meta[^>]*content=["']([^"']*)["'][^>]*property=["']og:description["'][^>]*>`),
		regexp.MustCompile(`(?i)<meta[^>]*name=["']description["'][^>]*content=["']([^"']*)["'][^>]*>`),
		regexp.MustCompile(`(?i)<meta[^>]*content=["']([^"']*)["'][^>]*name=["']description["'][^>]*>`),
	}
	faviconRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<link[^>]*rel=["'](?:shortcut )?icon["'][^>]*href=["']([^"']*)["'][^>]*>`),
		regexp.MustCompile(`(?i)<link[^>]*href=["']([^"']*)["'][^>]*rel=["'](?:shortcut )?icon["'][^>]*>`),
	}
)

// Fetch scrapes title, description and favicon from the page at
// rawURL. The wait is bounded by an 8 second budget; on expiry or any
// other failure the caller gets empty fields.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Metadata {
	page, err := url.Parse(rawURL)
	if err != nil || page.Host == "" {
		return Metadata{}
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	resp, err := f.client.R().SetContext(ctx).Get(page.String())
	if err != nil {
		f.logger.Debugw("metadata fetch failed", "url", rawURL, "error", err)
		return Metadata{}
	}

	body := resp.String()
	return Metadata{
		Title:       firstMatch(body, append(ogTitleRe, titleRe)),
		Description: firstMatch(body, descriptionRe),
		FaviconURL:  resolveFavicon(firstMatch(body, faviconRe), page),
	}
}

func firstMatch(body string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// resolveFavicon absolutizes the discovered href against the page
// origin, falling back to the conventional /favicon.ico.
func resolveFavicon(href string, page *url.URL) string {
	origin := page.Scheme + "://" + page.Host
	switch {
	case href == "":
		return origin + "/favicon.ico"
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		return page.Scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		return origin + href
	default:
		return origin + "/" + href
	}
}
