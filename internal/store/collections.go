package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/backend"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
)

const defaultCollectionColor = "#4F46E5"

// CollectionStore mirrors the user's collections. Same optimistic
// discipline as the bookmark mirror, but without a live stream: the
// list is fetched once and adjusted on explicit mutation, kept sorted
// by name ascending at all times.
type CollectionStore struct {
	mu        sync.RWMutex
	backend   backend.Collections
	principal *domain.Principal
	logger    *zap.SugaredLogger
	rows      []domain.Collection
	now       func() time.Time
}

func NewCollectionStore(b backend.Collections, p *domain.Principal, logger *zap.SugaredLogger) *CollectionStore {
	return &CollectionStore{
		backend:   b,
		principal: p,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *CollectionStore) Load(ctx context.Context) error {
	if s.principal == nil {
		return domain.ErrNotAuthenticated
	}
	rows, err := s.backend.ListByOwner(ctx, s.principal.ID)
	if err != nil {
		return errors.Wrap(err, "fetch collections")
	}

	s.mu.Lock()
	s.rows = rows
	s.sortLocked()
	s.mu.Unlock()
	return nil
}

func (s *CollectionStore) Snapshot() []domain.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Collection, len(s.rows))
	for i := range s.rows {
		out[i] = s.rows[i].Clone()
	}
	return out
}

func (s *CollectionStore) Get(id string) (domain.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.rows[i].Clone(), true
	}
	return domain.Collection{}, false
}

// Add creates a collection and returns it, so callers can immediately
// move a bookmark into the new folder.
func (s *CollectionStore) Add(ctx context.Context, name, description, color string) (domain.Collection, error) {
	if s.principal == nil {
		return domain.Collection{}, domain.ErrNotAuthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Collection{}, errors.Wrap(domain.ErrValidation, "empty collection name")
	}
	if color == "" {
		color = defaultCollectionColor
	}

	stored, err := s.backend.Insert(ctx, domain.Collection{
		Owner:       s.principal.ID,
		Name:        name,
		Description: description,
		Color:       color,
		Icon:        "folder",
	})
	if err != nil {
		return domain.Collection{}, errors.Wrap(err, "insert collection")
	}

	s.mu.Lock()
	if s.indexOf(stored.ID) < 0 {
		s.rows = append(s.rows, stored.Clone())
		s.sortLocked()
	}
	s.mu.Unlock()
	return stored, nil
}

func (s *CollectionStore) Update(ctx context.Context, id string, patch domain.CollectionPatch) (domain.Collection, error) {
	if s.principal == nil {
		return domain.Collection{}, domain.ErrNotAuthenticated
	}
	now := s.now()

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Collection{}, errors.Wrap(domain.ErrNotFound, "collection "+id)
	}
	pre := s.rows[i].Clone()
	patch.Apply(&s.rows[i])
	s.rows[i].UpdatedAt = now
	s.sortLocked()
	s.mu.Unlock()

	updated, err := s.backend.Update(ctx, s.principal.ID, id, patch, now)
	if err != nil {
		s.logger.Debugw("collection update failed, restoring pre-image", "id", id, "error", err)
		s.mu.Lock()
		if j := s.indexOf(id); j >= 0 {
			s.rows[j] = pre
			s.sortLocked()
		}
		s.mu.Unlock()
		return domain.Collection{}, errors.Wrap(err, "update collection")
	}
	return updated, nil
}

// Delete removes the collection. Bookmarks inside it are detached by
// the backend, never deleted; the bookmark mirror converges via its
// stream.
func (s *CollectionStore) Delete(ctx context.Context, id string) error {
	if s.principal == nil {
		return domain.ErrNotAuthenticated
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return errors.Wrap(domain.ErrNotFound, "collection "+id)
	}
	removed := s.rows[i].Clone()
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	s.mu.Unlock()

	if err := s.backend.Delete(ctx, s.principal.ID, id); err != nil {
		s.logger.Debugw("collection delete failed, restoring row", "id", id, "error", err)
		s.mu.Lock()
		if s.indexOf(id) < 0 {
			s.rows = append(s.rows, removed)
			s.sortLocked()
		}
		s.mu.Unlock()
		return errors.Wrap(err, "delete collection")
	}
	return nil
}

// ToggleSharing mirrors the bookmark variant: fresh slug on enable,
// cleared on disable, uniqueness enforced by the backend.
func (s *CollectionStore) ToggleSharing(ctx context.Context, id string, makePublic bool) (domain.Collection, error) {
	sharing := &domain.SharingPatch{Public: makePublic}
	if makePublic {
		slug := NewSlug()
		sharing.Slug = &slug
	}
	return s.Update(ctx, id, domain.CollectionPatch{Sharing: sharing})
}

func (s *CollectionStore) sortLocked() {
	sort.SliceStable(s.rows, func(i, j int) bool {
		return strings.ToLower(s.rows[i].Name) < strings.ToLower(s.rows[j].Name)
	})
}

func (s *CollectionStore) indexOf(id string) int {
	for i := range s.rows {
		if s.rows[i].ID == id {
			return i
		}
	}
	return -1
}
