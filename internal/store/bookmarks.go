// Package store holds the client-side mirrors of the user's rows. Each
// mirror applies mutations optimistically, confirms them against the
// backend, and rolls back its own pre-image on failure. The bookmark
// mirror additionally reconciles a live change-event stream; the merge
// is idempotent under duplicate or out-of-order delivery.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/backend"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
)

// ImportItem is one parsed entry from an uploaded bookmark file.
type ImportItem struct {
	URL   string
	Title string
	Tags  []string
}

// Stats are the dashboard counters.
type Stats struct {
	Total     int `json:"total"`
	Unread    int `json:"unread"`
	Favorites int `json:"favorites"`
	Archived  int `json:"archived"`
}

type BookmarkStore struct {
	mu        sync.RWMutex
	backend   backend.Bookmarks
	principal *domain.Principal
	logger    *zap.SugaredLogger

	// rows is the mirror, newest first. Mutated only by store methods;
	// readers get a snapshot.
	rows []domain.Bookmark

	now func() time.Time
}

func NewBookmarkStore(b backend.Bookmarks, p *domain.Principal, logger *zap.SugaredLogger) *BookmarkStore {
	return &BookmarkStore{
		backend:   b,
		principal: p,
		logger:    logger,
		now:       time.Now,
	}
}

// Load replaces the mirror with a fresh bulk read, newest first. Also
// used to re-sync after the hosting page regains visibility or focus,
// covering events missed while the stream was idle.
func (s *BookmarkStore) Load(ctx context.Context) error {
	if s.principal == nil {
		return domain.ErrNotAuthenticated
	}
	rows, err := s.backend.ListByOwner(ctx, s.principal.ID)
	if err != nil {
		return errors.Wrap(err, "fetch bookmarks")
	}

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
	return nil
}

// Refresh is Load under its visibility-regained name.
func (s *BookmarkStore) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// Start opens the change-event subscription and reconciles until ctx is
// cancelled.
func (s *BookmarkStore) Start(ctx context.Context) {
	if s.principal == nil {
		return
	}
	sub := s.backend.Subscribe(s.principal.ID)
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				s.Apply(ev)
			}
		}
	}()
}

// Apply reconciles one stream event into the mirror. Inserts are
// dropped when the id is already present (the optimistic local apply
// raced the remote echo), updates replace by id, deletes remove by id.
// Applying the same event twice is a no-op.
func (s *BookmarkStore) Apply(ev backend.BookmarkEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case backend.EventInserted:
		if ev.Row == nil || s.indexOf(ev.Row.ID) >= 0 {
			return
		}
		s.rows = append([]domain.Bookmark{ev.Row.Clone()}, s.rows...)
	case backend.EventUpdated:
		if ev.Row == nil {
			return
		}
		if i := s.indexOf(ev.Row.ID); i >= 0 {
			s.rows[i] = ev.Row.Clone()
		}
	case backend.EventDeleted:
		if i := s.indexOf(ev.ID); i >= 0 {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
		}
	}
}

// Snapshot returns a copy of the mirror. Callers never mutate rows in
// place.
func (s *BookmarkStore) Snapshot() []domain.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Bookmark, len(s.rows))
	for i := range s.rows {
		out[i] = s.rows[i].Clone()
	}
	return out
}

// Get returns a copy of one bookmark by id.
func (s *BookmarkStore) Get(id string) (domain.Bookmark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.rows[i].Clone(), true
	}
	return domain.Bookmark{}, false
}

// Add stores a new bookmark. Flags start false, slug nil; the backend
// assigns id and created_at, and the returned row lands in the mirror
// immediately so the stream echo dedupes against it.
func (s *BookmarkStore) Add(ctx context.Context, url, title, description, faviconURL string, tags []string) (domain.Bookmark, error) {
	if s.principal == nil {
		return domain.Bookmark{}, domain.ErrNotAuthenticated
	}
	normalized, err := domain.NormalizeURL(url)
	if err != nil {
		return domain.Bookmark{}, err
	}
	if title == "" {
		title = normalized
	}

	row := domain.Bookmark{
		Owner:       s.principal.ID,
		URL:         normalized,
		Title:       title,
		Description: description,
		FaviconURL:  faviconURL,
		Tags:        domain.NormalizeTags(tags),
	}
	stored, err := s.backend.Insert(ctx, row)
	if err != nil {
		return domain.Bookmark{}, errors.Wrap(err, "insert bookmark")
	}

	inserted := stored.Clone()
	s.Apply(backend.BookmarkEvent{Kind: backend.EventInserted, ID: stored.ID, Row: &inserted})
	return stored, nil
}

// Delete removes the row optimistically; a failed backend delete
// restores the removed snapshot at its old position.
func (s *BookmarkStore) Delete(ctx context.Context, id string) error {
	if s.principal == nil {
		return domain.ErrNotAuthenticated
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return errors.Wrap(domain.ErrNotFound, "bookmark "+id)
	}
	removed := s.rows[i].Clone()
	pos := i
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	s.mu.Unlock()

	if err := s.backend.Delete(ctx, s.principal.ID, id); err != nil {
		s.logger.Debugw("bookmark delete failed, restoring row", "id", id, "error", err)
		s.mu.Lock()
		if s.indexOf(id) < 0 {
			if pos > len(s.rows) {
				pos = len(s.rows)
			}
			s.rows = append(s.rows[:pos], append([]domain.Bookmark{removed}, s.rows[pos:]...)...)
		}
		s.mu.Unlock()
		return errors.Wrap(err, "delete bookmark")
	}
	return nil
}

// Update applies a partial patch, stamping updated_at. The pre-image is
// captured per call so two racing mutations roll back independently.
func (s *BookmarkStore) Update(ctx context.Context, id string, patch domain.BookmarkPatch) (domain.Bookmark, error) {
	if s.principal == nil {
		return domain.Bookmark{}, domain.ErrNotAuthenticated
	}
	now := s.now()

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Bookmark{}, errors.Wrap(domain.ErrNotFound, "bookmark "+id)
	}
	pre := s.rows[i].Clone()
	patch.Apply(&s.rows[i])
	s.rows[i].UpdatedAt = now
	s.mu.Unlock()

	updated, err := s.backend.Update(ctx, s.principal.ID, id, patch, now)
	if err != nil {
		s.logger.Debugw("bookmark update failed, restoring pre-image", "id", id, "error", err)
		s.restore(pre)
		return domain.Bookmark{}, errors.Wrap(err, "update bookmark")
	}
	return updated, nil
}

func (s *BookmarkStore) ToggleRead(ctx context.Context, id string) (domain.Bookmark, error) {
	return s.toggle(ctx, id, func(b domain.Bookmark, p *domain.BookmarkPatch) {
		v := !b.IsRead
		p.IsRead = &v
	})
}

func (s *BookmarkStore) ToggleFavorite(ctx context.Context, id string) (domain.Bookmark, error) {
	return s.toggle(ctx, id, func(b domain.Bookmark, p *domain.BookmarkPatch) {
		v := !b.IsFavorite
		p.IsFavorite = &v
	})
}

func (s *BookmarkStore) ToggleArchive(ctx context.Context, id string) (domain.Bookmark, error) {
	return s.toggle(ctx, id, func(b domain.Bookmark, p *domain.BookmarkPatch) {
		v := !b.IsArchived
		p.IsArchived = &v
	})
}

func (s *BookmarkStore) TogglePin(ctx context.Context, id string) (domain.Bookmark, error) {
	return s.toggle(ctx, id, func(b domain.Bookmark, p *domain.BookmarkPatch) {
		v := !b.IsPinned
		p.IsPinned = &v
	})
}

func (s *BookmarkStore) toggle(ctx context.Context, id string, flip func(domain.Bookmark, *domain.BookmarkPatch)) (domain.Bookmark, error) {
	current, ok := s.Get(id)
	if !ok {
		return domain.Bookmark{}, errors.Wrap(domain.ErrNotFound, "bookmark "+id)
	}
	patch := domain.BookmarkPatch{}
	flip(current, &patch)
	return s.Update(ctx, id, patch)
}

// ToggleSharing enables or disables the public share link. Enabling
// generates a fresh random slug; a backend uniqueness violation
// surfaces as domain.ErrConflict and may be retried by the caller.
func (s *BookmarkStore) ToggleSharing(ctx context.Context, id string, makePublic bool) (domain.Bookmark, error) {
	sharing := &domain.SharingPatch{Public: makePublic}
	if makePublic {
		slug := NewSlug()
		sharing.Slug = &slug
	}
	return s.Update(ctx, id, domain.BookmarkPatch{Sharing: sharing})
}

// MoveToCollection reassigns the bookmark's folder; nil unassigns.
func (s *BookmarkStore) MoveToCollection(ctx context.Context, id string, collectionID *string) (domain.Bookmark, error) {
	return s.Update(ctx, id, domain.BookmarkPatch{Collection: &domain.CollectionRef{ID: collectionID}})
}

// BulkDelete removes all ids as one backend batch, all-or-nothing. The
// optimistic removal is rolled back atomically when the batch fails.
func (s *BookmarkStore) BulkDelete(ctx context.Context, ids []string) error {
	if s.principal == nil {
		return domain.ErrNotAuthenticated
	}

	s.mu.Lock()
	pre := make([]domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		if i := s.indexOf(id); i >= 0 {
			pre = append(pre, s.rows[i].Clone())
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
		}
	}
	s.mu.Unlock()

	if err := s.backend.BulkDelete(ctx, s.principal.ID, ids); err != nil {
		s.logger.Debugw("bulk delete failed, restoring rows", "count", len(pre), "error", err)
		s.mu.Lock()
		for _, b := range pre {
			if s.indexOf(b.ID) < 0 {
				s.rows = append(s.rows, b)
			}
		}
		sort.SliceStable(s.rows, func(i, j int) bool { return s.rows[i].CreatedAt.After(s.rows[j].CreatedAt) })
		s.mu.Unlock()
		return errors.Wrap(err, "bulk delete")
	}
	return nil
}

// BulkSetRead marks all ids read or unread as one batch, same rollback
// discipline as BulkDelete.
func (s *BookmarkStore) BulkSetRead(ctx context.Context, ids []string, read bool) error {
	if s.principal == nil {
		return domain.ErrNotAuthenticated
	}
	now := s.now()

	s.mu.Lock()
	pre := make([]domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		if i := s.indexOf(id); i >= 0 {
			pre = append(pre, s.rows[i].Clone())
			s.rows[i].IsRead = read
			s.rows[i].UpdatedAt = now
		}
	}
	s.mu.Unlock()

	if err := s.backend.BulkSetRead(ctx, s.principal.ID, ids, read, now); err != nil {
		s.logger.Debugw("bulk set read failed, restoring rows", "count", len(pre), "error", err)
		s.mu.Lock()
		for _, b := range pre {
			if i := s.indexOf(b.ID); i >= 0 {
				s.rows[i] = b
			}
		}
		s.mu.Unlock()
		return errors.Wrap(err, "bulk set read")
	}
	return nil
}

// BulkTag adds tag to each target's tag set if absent. Issued as N
// individual updates so every row stays idempotent on its own; the
// first failure stops the pass and is returned (already-confirmed rows
// keep the tag, re-running is safe).
func (s *BookmarkStore) BulkTag(ctx context.Context, ids []string, tag string) error {
	if s.principal == nil {
		return domain.ErrNotAuthenticated
	}
	normalized := domain.NormalizeTags([]string{tag})
	if len(normalized) == 0 {
		return errors.Wrap(domain.ErrValidation, "empty tag")
	}
	tag = normalized[0]

	for _, id := range ids {
		current, ok := s.Get(id)
		if !ok {
			continue
		}
		if current.HasTag(tag) {
			continue
		}
		tags := append(append([]string(nil), current.Tags...), tag)
		if _, err := s.Update(ctx, id, domain.BookmarkPatch{Tags: tags}); err != nil {
			return errors.Wrapf(err, "tag bookmark %s", id)
		}
	}
	return nil
}

// ImportBookmarks bulk-inserts parsed file entries as fresh bookmarks
// with all flags false and a favicon defaulted from the URL host.
// Returns the count actually inserted; entries whose URL cannot be
// normalized are skipped.
func (s *BookmarkStore) ImportBookmarks(ctx context.Context, items []ImportItem) (int, error) {
	if s.principal == nil {
		return 0, domain.ErrNotAuthenticated
	}

	rows := make([]domain.Bookmark, 0, len(items))
	for _, it := range items {
		normalized, err := domain.NormalizeURL(it.URL)
		if err != nil {
			continue
		}
		title := it.Title
		if title == "" {
			title = normalized
		}
		rows = append(rows, domain.Bookmark{
			Owner:      s.principal.ID,
			URL:        normalized,
			Title:      title,
			FaviconURL: domain.DefaultFavicon(normalized),
			Tags:       domain.NormalizeTags(it.Tags),
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	stored, err := s.backend.BulkInsert(ctx, rows)
	if err != nil {
		return 0, errors.Wrap(err, "bulk insert bookmarks")
	}
	for i := range stored {
		inserted := stored[i].Clone()
		s.Apply(backend.BookmarkEvent{Kind: backend.EventInserted, ID: inserted.ID, Row: &inserted})
	}
	return len(stored), nil
}

// CheckDuplicate reports whether any stored bookmark resolves to the
// same absolute URL as candidate. Used to warn before insert, never to
// block it.
func (s *BookmarkStore) CheckDuplicate(candidate string) bool {
	normalized, err := domain.NormalizeURL(candidate)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.rows {
		stored, err := domain.NormalizeURL(s.rows[i].URL)
		if err != nil {
			continue
		}
		if stored == normalized {
			return true
		}
	}
	return false
}

// AllTags returns the distinct tags across all bookmarks, sorted
// lexicographically.
func (s *BookmarkStore) AllTags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for i := range s.rows {
		for _, t := range s.rows[i].Tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *BookmarkStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Total: len(s.rows)}
	for i := range s.rows {
		if !s.rows[i].IsRead && !s.rows[i].IsArchived {
			st.Unread++
		}
		if s.rows[i].IsFavorite {
			st.Favorites++
		}
		if s.rows[i].IsArchived {
			st.Archived++
		}
	}
	return st
}

// restore writes a pre-image back, keyed by id. Skips silently when the
// row vanished in the meantime (a racing delete won).
func (s *BookmarkStore) restore(pre domain.Bookmark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(pre.ID); i >= 0 {
		s.rows[i] = pre
	}
}

// indexOf scans the mirror for id. Callers hold s.mu.
func (s *BookmarkStore) indexOf(id string) int {
	for i := range s.rows {
		if s.rows[i].ID == id {
			return i
		}
	}
	return -1
}

// NewSlug builds a short random share token, not guessable from any
// sequential state.
func NewSlug() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s-%s", hex.EncodeToString(b[0:2]), hex.EncodeToString(b[2:4]), hex.EncodeToString(b[4:6]))
}
