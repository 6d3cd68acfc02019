// Package session hands each authenticated principal its own pair of
// store mirrors, lazily constructed and kept streaming until shutdown.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/backend"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/store"
)

type Session struct {
	Principal   domain.Principal
	Bookmarks   *store.BookmarkStore
	Collections *store.CollectionStore
}

type Manager struct {
	mu          sync.Mutex
	bookmarks   backend.Bookmarks
	collections backend.Collections
	logger      *zap.SugaredLogger
	sessions    map[string]*Session

	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(bookmarks backend.Bookmarks, collections backend.Collections, logger *zap.SugaredLogger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		bookmarks:   bookmarks,
		collections: collections,
		logger:      logger,
		sessions:    make(map[string]*Session),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Get returns the principal's session, building and hydrating the
// mirrors on first use. The bookmark stream starts alongside the
// initial bulk read.
func (m *Manager) Get(ctx context.Context, p domain.Principal) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[p.ID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	principal := p
	s := &Session{
		Principal:   principal,
		Bookmarks:   store.NewBookmarkStore(m.bookmarks, &principal, m.logger),
		Collections: store.NewCollectionStore(m.collections, &principal, m.logger),
	}
	if err := s.Bookmarks.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "load bookmarks")
	}
	if err := s.Collections.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "load collections")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[p.ID]; ok {
		// Lost the race to another request; keep the first session.
		return existing, nil
	}
	s.Bookmarks.Start(m.ctx)
	m.sessions[p.ID] = s
	return s, nil
}

// Refresh re-runs the bulk reads, covering stream events missed while
// the client was asleep or unfocused.
func (m *Manager) Refresh(ctx context.Context, p domain.Principal) error {
	s, err := m.Get(ctx, p)
	if err != nil {
		return err
	}
	if err := s.Bookmarks.Refresh(ctx); err != nil {
		return errors.Wrap(err, "refresh bookmarks")
	}
	if err := s.Collections.Load(ctx); err != nil {
		return errors.Wrap(err, "refresh collections")
	}
	return nil
}

// Close stops every session's stream consumer.
func (m *Manager) Close() {
	m.cancel()
}
