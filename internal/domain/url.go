package domain

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// NormalizeURL resolves raw to its canonical absolute form. A bare host
// is coerced to https://, scheme and host are lowercased, and a lone
// trailing slash is dropped so equivalent spellings compare equal.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.Wrap(ErrValidation, "empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(ErrValidation, err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Wrapf(ErrValidation, "unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.Wrap(ErrValidation, "missing host")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "/" && u.RawQuery == "" && u.Fragment == "" {
		u.Path = ""
	}
	return u.String(), nil
}

// DefaultFavicon derives the conventional favicon location for a page URL.
// Returns "" when the URL cannot be parsed.
func DefaultFavicon(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico"
}

// NormalizeTags lowercases, trims and de-duplicates tags while keeping
// first-seen order for display.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
