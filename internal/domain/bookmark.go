package domain

import "time"

type (
	// Bookmark is one saved link. The backend assigns ID and CreatedAt;
	// everything else is owned by the user.
	Bookmark struct {
		ID           string
		Owner        string
		CollectionID *string
		URL          string
		Title        string
		Description  string
		FaviconURL   string
		Tags         []string
		Notes        string
		IsRead       bool
		IsPinned     bool
		IsFavorite   bool
		IsArchived   bool
		IsPublic     bool
		Slug         *string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// Collection is a named folder grouping bookmarks. Deleting a
	// collection detaches its bookmarks, it never deletes them.
	Collection struct {
		ID          string
		Owner       string
		Name        string
		Description string
		Color       string
		Icon        string
		IsPublic    bool
		Slug        *string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Principal is the authenticated user stamping ownership on writes.
	Principal struct {
		ID    string
		Email string
	}
)

// Clone returns a copy whose Tags slice is independent of the receiver.
func (b Bookmark) Clone() Bookmark {
	c := b
	c.Tags = append([]string(nil), b.Tags...)
	if b.CollectionID != nil {
		id := *b.CollectionID
		c.CollectionID = &id
	}
	if b.Slug != nil {
		s := *b.Slug
		c.Slug = &s
	}
	return c
}

// HasTag reports whether tag is in the bookmark's tag set.
func (b Bookmark) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (c Collection) Clone() Collection {
	cc := c
	if c.Slug != nil {
		s := *c.Slug
		cc.Slug = &s
	}
	return cc
}
