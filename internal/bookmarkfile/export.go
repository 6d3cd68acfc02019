// Package bookmarkfile reads and writes the portable bookmark formats:
// pretty-printed JSON and the Netscape Bookmark File Format that every
// mainstream browser imports.
package bookmarkfile

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
)

type jsonEntry struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExportJSON serializes every bookmark as a pretty-printed array.
func ExportJSON(bookmarks []domain.Bookmark) ([]byte, error) {
	entries := make([]jsonEntry, len(bookmarks))
	for i, b := range bookmarks {
		tags := b.Tags
		if tags == nil {
			tags = []string{}
		}
		entries[i] = jsonEntry{
			URL:         b.URL,
			Title:       b.Title,
			Description: b.Description,
			Tags:        tags,
			IsRead:      b.IsRead,
			CreatedAt:   b.CreatedAt,
		}
	}
	return json.MarshalIndent(entries, "", "  ")
}

// ExportHTML writes the Netscape format. Untagged bookmarks are flat
// entries; a bookmark carrying N tags appears once under each tag's
// folder heading: the target format has no multi-parent concept, so
// the duplication is the intended flattening.
func ExportHTML(bookmarks []domain.Bookmark) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>PrivateNest Bookmarks</TITLE>\n")
	b.WriteString("<H1>PrivateNest Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	// Group by tag, keeping first-seen tag order stable.
	var untagged []domain.Bookmark
	var tagOrder []string
	byTag := make(map[string][]domain.Bookmark)
	for _, bm := range bookmarks {
		if len(bm.Tags) == 0 {
			untagged = append(untagged, bm)
			continue
		}
		for _, tag := range bm.Tags {
			if _, ok := byTag[tag]; !ok {
				tagOrder = append(tagOrder, tag)
			}
			byTag[tag] = append(byTag[tag], bm)
		}
	}

	for _, tag := range tagOrder {
		fmt.Fprintf(&b, "    <DT><H3>%s</H3>\n", html.EscapeString(tag))
		b.WriteString("    <DL><p>\n")
		for _, bm := range byTag[tag] {
			writeEntry(&b, bm, "        ")
		}
		b.WriteString("    </DL><p>\n")
	}
	for _, bm := range untagged {
		writeEntry(&b, bm, "    ")
	}

	b.WriteString("</DL><p>\n")
	return b.String()
}

func writeEntry(b *strings.Builder, bm domain.Bookmark, indent string) {
	title := bm.Title
	if title == "" {
		title = bm.URL
	}
	fmt.Fprintf(b, "%s<DT><A HREF=\"%s\" ADD_DATE=\"%d\">%s</A>\n",
		indent,
		html.EscapeString(bm.URL),
		bm.CreatedAt.Unix(),
		html.EscapeString(title),
	)
}
