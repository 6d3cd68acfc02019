// Package view is the pure filtering layer between the mirror and the
// caller: given the full bookmark set and the active filters, it
// produces the ordered subset to render. It never mutates its input.
package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
)

type Mode string

const (
	// ModeStandard is the inbox: not archived and not read.
	ModeStandard  Mode = "standard"
	ModeAll       Mode = "all"
	ModeFavorites Mode = "favorites"
	ModeArchive   Mode = "archive"
)

type Sort string

const (
	SortNewest Sort = "newest"
	SortOldest Sort = "oldest"
	SortTitle  Sort = "title"
	SortAZ     Sort = "a-z"
	SortZA     Sort = "z-a"
)

// Filters narrows the bookmark set. Zero values are identity filters:
// empty search, nil tag and nil collection keep everything.
type Filters struct {
	Search       string
	Tag          *string
	CollectionID *string
	Mode         Mode
	Sort         Sort
}

// Visible applies the filters in fixed order (collection, view mode,
// search, tag, sort) and returns a fresh ordered slice.
func Visible(all []domain.Bookmark, f Filters) []domain.Bookmark {
	result := make([]domain.Bookmark, 0, len(all))

	for i := range all {
		b := all[i]
		if f.CollectionID != nil {
			if b.CollectionID == nil || *b.CollectionID != *f.CollectionID {
				continue
			}
			// Inside a collection archived rows stay hidden unless
			// the archive view is explicitly active.
			if b.IsArchived && f.Mode != ModeArchive {
				continue
			}
		} else if !matchesMode(b, f.Mode) {
			continue
		}
		if !matchesSearch(b, f.Search) {
			continue
		}
		if f.Tag != nil && !b.HasTag(*f.Tag) {
			continue
		}
		result = append(result, b)
	}

	sortBookmarks(result, f.Sort)
	return result
}

func matchesMode(b domain.Bookmark, m Mode) bool {
	switch m {
	case ModeAll:
		return !b.IsArchived
	case ModeFavorites:
		return b.IsFavorite && !b.IsArchived
	case ModeArchive:
		return b.IsArchived
	default: // standard / inbox
		return !b.IsArchived && !b.IsRead
	}
}

func matchesSearch(b domain.Bookmark, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.URL), q) ||
		strings.Contains(strings.ToLower(b.Description), q) {
		return true
	}
	for _, t := range b.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// sortBookmarks orders by the chosen option with pinned rows always
// first; ties inside each partition fall to the same comparator.
func sortBookmarks(rows []domain.Bookmark, s Sort) {
	// A collator is not safe for concurrent use, so each call builds
	// its own.
	col := collate.New(language.Und, collate.IgnoreCase)

	byTitle := func(a, b domain.Bookmark) int {
		at, bt := a.Title, b.Title
		if at == "" {
			at = a.URL
		}
		if bt == "" {
			bt = b.URL
		}
		return col.CompareString(at, bt)
	}

	less := func(a, b domain.Bookmark) bool {
		switch s {
		case SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortTitle, SortAZ:
			return byTitle(a, b) < 0
		case SortZA:
			return byTitle(a, b) > 0
		default: // newest
			return a.CreatedAt.After(b.CreatedAt)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].IsPinned != rows[j].IsPinned {
			return rows[i].IsPinned
		}
		return less(rows[i], rows[j])
	})
}
