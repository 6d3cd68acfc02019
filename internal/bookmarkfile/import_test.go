package bookmarkfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNetscapeFolders(t *testing.T) {
	file := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<DL><p>
    <DT><H3>Reading</H3>
    <DL><p>
        <DT><A HREF="https://go.dev" ADD_DATE="1700000000">The Go Programming Language</A>
        <DT><A HREF="https://blog.golang.org">Go Blog</A>
    </DL><p>
    <DT><A HREF="https://example.com">Example</A>
</DL><p>`

	got := ParseNetscape(strings.NewReader(file))
	assert.Len(t, got, 3)

	assert.Equal(t, "https://go.dev", got[0].URL)
	assert.Equal(t, "The Go Programming Language", got[0].Title)
	assert.Equal(t, []string{"reading"}, got[0].Tags)

	assert.Equal(t, []string{"reading"}, got[1].Tags)

	// The closing </DL> ends the folder scope.
	assert.Equal(t, "https://example.com", got[2].URL)
	assert.Empty(t, got[2].Tags)
}

func TestParseNetscapeSkipsNonHTTP(t *testing.T) {
	file := `<DL><p>
    <DT><A HREF="javascript:void(0)">Bookmarklet</A>
    <DT><A HREF="ftp://files.example.com">FTP</A>
    <DT><A HREF="https://go.dev">Go</A>
</DL><p>`

	got := ParseNetscape(strings.NewReader(file))
	assert.Len(t, got, 1)
	assert.Equal(t, "https://go.dev", got[0].URL)
}

func TestParseNetscapeEntitiesAndNestedMarkup(t *testing.T) {
	file := `<DL><p>
    <DT><A HREF="https://example.com/?a=1&amp;b=2"><b>Bold</b> &amp; Plain</A>
</DL><p>`

	got := ParseNetscape(strings.NewReader(file))
	assert.Len(t, got, 1)
	assert.Equal(t, "https://example.com/?a=1&b=2", got[0].URL)
	assert.Equal(t, "Bold & Plain", got[0].Title)
}

func TestParseNetscapeEmptyTitleFallsBackToURL(t *testing.T) {
	file := `<DT><A HREF="https://go.dev"></A>`

	got := ParseNetscape(strings.NewReader(file))
	assert.Len(t, got, 1)
	assert.Equal(t, "https://go.dev", got[0].Title)
}

func TestParseNetscapeGarbageInput(t *testing.T) {
	got := ParseNetscape(strings.NewReader("this is not a bookmark file at all"))
	assert.Empty(t, got)
}
