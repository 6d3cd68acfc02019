package bookmarkfile

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
)

func TestExportJSON(t *testing.T) {
	rows := []domain.Bookmark{
		{
			URL:       "https://go.dev",
			Title:     "Go",
			Tags:      []string{"lang"},
			IsRead:    true,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{URL: "https://example.com", Title: "Example"},
	}

	data, err := ExportJSON(rows)
	assert.NoError(t, err)

	var got []map[string]interface{}
	assert.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got, 2)
	assert.Equal(t, "https://go.dev", got[0]["url"])
	assert.Equal(t, true, got[0]["is_read"])
	// nil tag slices serialize as an empty array, not null.
	assert.Equal(t, []interface{}{}, got[1]["tags"])
}

func TestExportHTMLStructure(t *testing.T) {
	rows := []domain.Bookmark{
		{URL: "https://go.dev", Title: "Go", Tags: []string{"lang"}, CreatedAt: time.Unix(1700000000, 0)},
		{URL: "https://example.com", Title: "Example"},
	}

	out := ExportHTML(rows)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE NETSCAPE-Bookmark-file-1>"))
	assert.Contains(t, out, "<TITLE>PrivateNest Bookmarks</TITLE>")
	assert.Contains(t, out, "<DT><H3>lang</H3>")
	assert.Contains(t, out, `<A HREF="https://go.dev" ADD_DATE="1700000000">Go</A>`)
	assert.Contains(t, out, `<A HREF="https://example.com"`)
}

func TestExportHTMLMultiTagDuplication(t *testing.T) {
	rows := []domain.Bookmark{
		{URL: "https://go.dev", Title: "Go", Tags: []string{"lang", "reading"}},
	}

	out := ExportHTML(rows)
	assert.Equal(t, 2, strings.Count(out, `HREF="https://go.dev"`))
	assert.Contains(t, out, "<DT><H3>lang</H3>")
	assert.Contains(t, out, "<DT><H3>reading</H3>")
}

func TestExportHTMLEscapes(t *testing.T) {
	rows := []domain.Bookmark{
		{URL: "https://example.com/?a=1&b=2", Title: `Tom & "Jerry" <LLC>`},
	}

	out := ExportHTML(rows)
	assert.Contains(t, out, "a=1&amp;b=2")
	assert.Contains(t, out, "Tom &amp; &#34;Jerry&#34; &lt;LLC&gt;")
	assert.NotContains(t, out, `<LLC>`)
}

func TestExportRoundTrip(t *testing.T) {
	rows := []domain.Bookmark{
		{URL: "https://go.dev", Title: "Go", Tags: []string{"reading"}},
		{URL: "https://example.com", Title: "Example"},
	}

	got := ParseNetscape(strings.NewReader(ExportHTML(rows)))
	assert.Len(t, got, 2)
	assert.Equal(t, "https://go.dev", got[0].URL)
	assert.Equal(t, []string{"reading"}, got[0].Tags)
	assert.Equal(t, "https://example.com", got[1].URL)
	assert.Empty(t, got[1].Tags)
}
