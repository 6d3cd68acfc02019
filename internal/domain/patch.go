package domain

type (
	// BookmarkPatch is a partial field update. Nil pointers leave the
	// field untouched. Sharing and Collection change two coupled fields
	// at once so the is_public <=> slug invariant cannot be broken by a
	// half patch.
	BookmarkPatch struct {
		URL         *string
		Title       *string
		Description *string
		FaviconURL  *string
		Notes       *string
		Tags        []string
		IsRead      *bool
		IsPinned    *bool
		IsFavorite  *bool
		IsArchived  *bool
		Sharing     *SharingPatch
		Collection  *CollectionRef
	}

	// SharingPatch flips public visibility. Slug must be non-nil exactly
	// when Public is true.
	SharingPatch struct {
		Public bool
		Slug   *string
	}

	// CollectionRef reassigns a bookmark's folder. A nil ID unassigns.
	CollectionRef struct {
		ID *string
	}

	CollectionPatch struct {
		Name        *string
		Description *string
		Color       *string
		Icon        *string
		Sharing     *SharingPatch
	}
)

// Apply merges the patch into b, shallow per field.
func (p BookmarkPatch) Apply(b *Bookmark) {
	if p.URL != nil {
		b.URL = *p.URL
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.FaviconURL != nil {
		b.FaviconURL = *p.FaviconURL
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	if p.Tags != nil {
		b.Tags = append([]string(nil), p.Tags...)
	}
	if p.IsRead != nil {
		b.IsRead = *p.IsRead
	}
	if p.IsPinned != nil {
		b.IsPinned = *p.IsPinned
	}
	if p.IsFavorite != nil {
		b.IsFavorite = *p.IsFavorite
	}
	if p.IsArchived != nil {
		b.IsArchived = *p.IsArchived
	}
	if p.Sharing != nil {
		b.IsPublic = p.Sharing.Public
		b.Slug = p.Sharing.Slug
	}
	if p.Collection != nil {
		b.CollectionID = p.Collection.ID
	}
}

func (p CollectionPatch) Apply(c *Collection) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Sharing != nil {
		c.IsPublic = p.Sharing.Public
		c.Slug = p.Sharing.Slug
	}
}
