// Package backend abstracts the row store the mirrors synchronize
// against: per-table CRUD scoped to an owner, plus a change-event
// subscription per table. The mirrors only see this interface, never
// the transport behind it.
package backend

import (
	"context"
	"time"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
)

type EventKind int

const (
	EventInserted EventKind = iota
	EventUpdated
	EventDeleted
)

// BookmarkEvent is one change-stream notification. Row is set for
// inserts and updates, ID is always set.
type BookmarkEvent struct {
	Kind EventKind
	ID   string
	Row  *domain.Bookmark
}

// Subscription is a standing change-event stream. Events stops yielding
// after Close.
type Subscription interface {
	Events() <-chan BookmarkEvent
	Close()
}

type Bookmarks interface {
	// ListByOwner returns every bookmark of owner, newest first.
	ListByOwner(ctx context.Context, owner string) ([]domain.Bookmark, error)
	// Insert stores the row, assigning ID, CreatedAt and UpdatedAt.
	Insert(ctx context.Context, row domain.Bookmark) (domain.Bookmark, error)
	BulkInsert(ctx context.Context, rows []domain.Bookmark) ([]domain.Bookmark, error)
	// Update applies the patch and stamps UpdatedAt with updatedAt.
	Update(ctx context.Context, owner, id string, patch domain.BookmarkPatch, updatedAt time.Time) (domain.Bookmark, error)
	Delete(ctx context.Context, owner, id string) error
	// BulkDelete and BulkSetRead are all-or-nothing batches.
	BulkDelete(ctx context.Context, owner string, ids []string) error
	BulkSetRead(ctx context.Context, owner string, ids []string, read bool, updatedAt time.Time) error
	// GetBySlug resolves a public share slug. Rows that exist but are
	// not public yield domain.ErrNotFound.
	GetBySlug(ctx context.Context, slug string) (domain.Bookmark, error)
	// Subscribe opens a change stream scoped to owner's rows.
	Subscribe(owner string) Subscription
}

type Collections interface {
	// ListByOwner returns every collection of owner, name ascending.
	ListByOwner(ctx context.Context, owner string) ([]domain.Collection, error)
	Insert(ctx context.Context, row domain.Collection) (domain.Collection, error)
	Update(ctx context.Context, owner, id string, patch domain.CollectionPatch, updatedAt time.Time) (domain.Collection, error)
	// Delete removes the collection and detaches its bookmarks,
	// emitting a bookmark update event per detached row.
	Delete(ctx context.Context, owner, id string) error
	// GetBySlug resolves a public collection and the bookmarks in it.
	GetBySlug(ctx context.Context, slug string) (domain.Collection, []domain.Bookmark, error)
}

// User is an account row. Token is the bearer credential rotated on
// every login.
type User struct {
	ID        string
	Email     string
	Password  string
	Token     string
	CreatedAt time.Time
}

type Users interface {
	Create(ctx context.Context, email, passwordHash, token string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByToken(ctx context.Context, token string) (User, error)
	UpdateToken(ctx context.Context, id, token string) error
}
