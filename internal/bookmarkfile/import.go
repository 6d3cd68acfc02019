package bookmarkfile

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Item is one parsed link, ready for bulk insertion.
type Item struct {
	URL   string
	Title string
	Tags  []string
}

var (
	folderRe = regexp.MustCompile(`(?i)<H3[^>]*>(.*?)</H3>`)
	linkRe   = regexp.MustCompile(`(?i)<A\s+[^>]*?HREF="([^"]+)"[^>]*>(.*?)</A>`)
)

// ParseNetscape scans a Netscape bookmark file line by line. Each <H3>
// heading becomes the current folder, applied as the single lowercased
// tag of every link until the next </DL> closes that folder. Non-HTTP
// links are skipped, lines matching neither pattern are ignored, and
// malformed input never fails the parse; the whole operation succeeds
// with however many valid entries were found.
func ParseNetscape(r io.Reader) []Item {
	items := make([]Item, 0)
	currentFolder := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := folderRe.FindStringSubmatch(line); m != nil {
			currentFolder = strings.ToLower(strings.TrimSpace(html.UnescapeString(m[1])))
		}

		if m := linkRe.FindStringSubmatch(line); m != nil {
			url := html.UnescapeString(m[1])
			if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
				title := strings.TrimSpace(html.UnescapeString(stripTags(m[2])))
				if title == "" {
					title = url
				}
				tags := []string{}
				if currentFolder != "" {
					tags = []string{currentFolder}
				}
				items = append(items, Item{URL: url, Title: title, Tags: tags})
			}
		}

		if strings.Contains(strings.ToUpper(line), "</DL>") {
			currentFolder = ""
		}
	}
	return items
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// stripTags drops inline markup some browsers nest inside link titles.
func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}
