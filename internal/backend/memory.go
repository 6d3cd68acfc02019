package backend

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
)

// Memory is an in-process backend with the same semantics as the
// postgres one. It backs tests and local runs without a database.
type Memory struct {
	mu          sync.RWMutex
	bookmarks   map[string]domain.Bookmark
	collections map[string]domain.Collection
	users       map[string]User
	hub         *hub
	now         func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		bookmarks:   make(map[string]domain.Bookmark),
		collections: make(map[string]domain.Collection),
		users:       make(map[string]User),
		hub:         newHub(),
		now:         time.Now,
	}
}

// Bookmarks

func (m *Memory) ListByOwner(_ context.Context, owner string) ([]domain.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]domain.Bookmark, 0)
	for _, b := range m.bookmarks {
		if b.Owner == owner {
			rows = append(rows, b.Clone())
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

func (m *Memory) Insert(_ context.Context, row domain.Bookmark) (domain.Bookmark, error) {
	m.mu.Lock()
	row.ID = uuid.New().String()
	row.CreatedAt = m.now()
	row.UpdatedAt = row.CreatedAt
	m.bookmarks[row.ID] = row.Clone()
	m.mu.Unlock()

	stored := row.Clone()
	m.hub.publish(row.Owner, BookmarkEvent{Kind: EventInserted, ID: row.ID, Row: &stored})
	return row, nil
}

func (m *Memory) BulkInsert(ctx context.Context, rows []domain.Bookmark) ([]domain.Bookmark, error) {
	out := make([]domain.Bookmark, 0, len(rows))
	for _, row := range rows {
		stored, err := m.Insert(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

func (m *Memory) Update(_ context.Context, owner, id string, patch domain.BookmarkPatch, updatedAt time.Time) (domain.Bookmark, error) {
	m.mu.Lock()
	row, ok := m.bookmarks[id]
	if !ok || row.Owner != owner {
		m.mu.Unlock()
		return domain.Bookmark{}, errors.Wrap(domain.ErrNotFound, "bookmark "+id)
	}
	if patch.Sharing != nil && patch.Sharing.Slug != nil {
		if err := m.slugFreeLocked(*patch.Sharing.Slug, id); err != nil {
			m.mu.Unlock()
			return domain.Bookmark{}, err
		}
	}
	patch.Apply(&row)
	row.UpdatedAt = updatedAt
	m.bookmarks[id] = row.Clone()
	m.mu.Unlock()

	stored := row.Clone()
	m.hub.publish(owner, BookmarkEvent{Kind: EventUpdated, ID: id, Row: &stored})
	return row, nil
}

func (m *Memory) Delete(_ context.Context, owner, id string) error {
	m.mu.Lock()
	row, ok := m.bookmarks[id]
	if !ok || row.Owner != owner {
		m.mu.Unlock()
		return errors.Wrap(domain.ErrNotFound, "bookmark "+id)
	}
	delete(m.bookmarks, id)
	m.mu.Unlock()

	m.hub.publish(owner, BookmarkEvent{Kind: EventDeleted, ID: id})
	return nil
}

func (m *Memory) BulkDelete(_ context.Context, owner string, ids []string) error {
	m.mu.Lock()
	for _, id := range ids {
		if row, ok := m.bookmarks[id]; !ok || row.Owner != owner {
			m.mu.Unlock()
			return errors.Wrap(domain.ErrNotFound, "bookmark "+id)
		}
	}
	for _, id := range ids {
		delete(m.bookmarks, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.hub.publish(owner, BookmarkEvent{Kind: EventDeleted, ID: id})
	}
	return nil
}

func (m *Memory) BulkSetRead(_ context.Context, owner string, ids []string, read bool, updatedAt time.Time) error {
	m.mu.Lock()
	for _, id := range ids {
		if row, ok := m.bookmarks[id]; !ok || row.Owner != owner {
			m.mu.Unlock()
			return errors.Wrap(domain.ErrNotFound, "bookmark "+id)
		}
	}
	changed := make([]domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		row := m.bookmarks[id]
		row.IsRead = read
		row.UpdatedAt = updatedAt
		m.bookmarks[id] = row.Clone()
		changed = append(changed, row.Clone())
	}
	m.mu.Unlock()

	for i := range changed {
		m.hub.publish(owner, BookmarkEvent{Kind: EventUpdated, ID: changed[i].ID, Row: &changed[i]})
	}
	return nil
}

func (m *Memory) GetBySlug(_ context.Context, slug string) (domain.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.bookmarks {
		if b.IsPublic && b.Slug != nil && *b.Slug == slug {
			return b.Clone(), nil
		}
	}
	return domain.Bookmark{}, errors.Wrap(domain.ErrNotFound, "slug "+slug)
}

func (m *Memory) Subscribe(owner string) Subscription {
	return m.hub.subscribe(owner)
}

func (m *Memory) slugFreeLocked(slug, exceptID string) error {
	for id, b := range m.bookmarks {
		if id != exceptID && b.Slug != nil && *b.Slug == slug {
			return errors.Wrap(domain.ErrConflict, "slug "+slug)
		}
	}
	for _, c := range m.collections {
		if c.Slug != nil && *c.Slug == slug {
			return errors.Wrap(domain.ErrConflict, "slug "+slug)
		}
	}
	return nil
}

// Collections

func (m *Memory) ListCollectionsByOwner(_ context.Context, owner string) ([]domain.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]domain.Collection, 0)
	for _, c := range m.collections {
		if c.Owner == owner {
			rows = append(rows, c.Clone())
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	return rows, nil
}

func (m *Memory) InsertCollection(_ context.Context, row domain.Collection) (domain.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row.ID = uuid.New().String()
	row.CreatedAt = m.now()
	row.UpdatedAt = row.CreatedAt
	m.collections[row.ID] = row.Clone()
	return row, nil
}

func (m *Memory) UpdateCollection(_ context.Context, owner, id string, patch domain.CollectionPatch, updatedAt time.Time) (domain.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.collections[id]
	if !ok || row.Owner != owner {
		return domain.Collection{}, errors.Wrap(domain.ErrNotFound, "collection "+id)
	}
	if patch.Sharing != nil && patch.Sharing.Slug != nil {
		if err := m.slugFreeLocked(*patch.Sharing.Slug, ""); err != nil {
			return domain.Collection{}, err
		}
	}
	patch.Apply(&row)
	row.UpdatedAt = updatedAt
	m.collections[id] = row.Clone()
	return row, nil
}

func (m *Memory) DeleteCollection(_ context.Context, owner, id string) error {
	m.mu.Lock()
	row, ok := m.collections[id]
	if !ok || row.Owner != owner {
		m.mu.Unlock()
		return errors.Wrap(domain.ErrNotFound, "collection "+id)
	}
	delete(m.collections, id)

	detached := make([]domain.Bookmark, 0)
	for bid, b := range m.bookmarks {
		if b.CollectionID != nil && *b.CollectionID == id {
			b.CollectionID = nil
			b.UpdatedAt = m.now()
			m.bookmarks[bid] = b.Clone()
			detached = append(detached, b.Clone())
		}
	}
	m.mu.Unlock()

	for i := range detached {
		m.hub.publish(owner, BookmarkEvent{Kind: EventUpdated, ID: detached[i].ID, Row: &detached[i]})
	}
	return nil
}

func (m *Memory) GetCollectionBySlug(_ context.Context, slug string) (domain.Collection, []domain.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.collections {
		if c.IsPublic && c.Slug != nil && *c.Slug == slug {
			members := make([]domain.Bookmark, 0)
			for _, b := range m.bookmarks {
				if b.CollectionID != nil && *b.CollectionID == c.ID {
					members = append(members, b.Clone())
				}
			}
			sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.After(members[j].CreatedAt) })
			return c.Clone(), members, nil
		}
	}
	return domain.Collection{}, nil, errors.Wrap(domain.ErrNotFound, "slug "+slug)
}

// Collections adapts the memory store to the Collections interface
// (the method set clashes with Bookmarks on a single receiver).
func (m *Memory) Collections() Collections { return memoryCollections{m} }

type memoryCollections struct{ m *Memory }

func (c memoryCollections) ListByOwner(ctx context.Context, owner string) ([]domain.Collection, error) {
	return c.m.ListCollectionsByOwner(ctx, owner)
}

func (c memoryCollections) Insert(ctx context.Context, row domain.Collection) (domain.Collection, error) {
	return c.m.InsertCollection(ctx, row)
}

func (c memoryCollections) Update(ctx context.Context, owner, id string, patch domain.CollectionPatch, updatedAt time.Time) (domain.Collection, error) {
	return c.m.UpdateCollection(ctx, owner, id, patch, updatedAt)
}

func (c memoryCollections) Delete(ctx context.Context, owner, id string) error {
	return c.m.DeleteCollection(ctx, owner, id)
}

func (c memoryCollections) GetBySlug(ctx context.Context, slug string) (domain.Collection, []domain.Bookmark, error) {
	return c.m.GetCollectionBySlug(ctx, slug)
}

// Users

func (m *Memory) Create(_ context.Context, email, passwordHash, token string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return User{}, errors.Wrap(domain.ErrConflict, "email taken")
		}
	}
	u := User{
		ID:        uuid.New().String(),
		Email:     email,
		Password:  passwordHash,
		Token:     token,
		CreatedAt: m.now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) FindByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, errors.Wrap(domain.ErrNotFound, "user "+email)
}

func (m *Memory) FindByToken(_ context.Context, token string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Token == token {
			return u, nil
		}
	}
	return User{}, errors.Wrap(domain.ErrNotFound, "token")
}

func (m *Memory) UpdateToken(_ context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return errors.Wrap(domain.ErrNotFound, "user "+id)
	}
	u.Token = token
	m.users[id] = u
	return nil
}
