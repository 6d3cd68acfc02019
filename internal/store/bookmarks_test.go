package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/backend"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
)

// failingBookmarks delegates to a real backend but fails selected
// mutations, to exercise the rollback paths.
type failingBookmarks struct {
	backend.Bookmarks
	failUpdate      bool
	failDelete      bool
	failBulkDelete  bool
	failBulkSetRead bool
}

var errBackendDown = errors.New("backend down")

func (f *failingBookmarks) Update(ctx context.Context, owner, id string, patch domain.BookmarkPatch, updatedAt time.Time) (domain.Bookmark, error) {
	if f.failUpdate {
		return domain.Bookmark{}, errBackendDown
	}
	return f.Bookmarks.Update(ctx, owner, id, patch, updatedAt)
}

func (f *failingBookmarks) Delete(ctx context.Context, owner, id string) error {
	if f.failDelete {
		return errBackendDown
	}
	return f.Bookmarks.Delete(ctx, owner, id)
}

func (f *failingBookmarks) BulkDelete(ctx context.Context, owner string, ids []string) error {
	if f.failBulkDelete {
		return errBackendDown
	}
	return f.Bookmarks.BulkDelete(ctx, owner, ids)
}

func (f *failingBookmarks) BulkSetRead(ctx context.Context, owner string, ids []string, read bool, updatedAt time.Time) error {
	if f.failBulkSetRead {
		return errBackendDown
	}
	return f.Bookmarks.BulkSetRead(ctx, owner, ids, read, updatedAt)
}

func newTestStore(t *testing.T) (*BookmarkStore, *backend.Memory) {
	t.Helper()
	mem := backend.NewMemory()
	p := &domain.Principal{ID: "user-1", Email: "u@example.com"}
	return NewBookmarkStore(mem, p, zap.NewNop().Sugar()), mem
}

func TestAddRequiresPrincipal(t *testing.T) {
	s := NewBookmarkStore(backend.NewMemory(), nil, zap.NewNop().Sugar())

	_, err := s.Add(context.Background(), "https://go.dev", "", "", "", nil)
	assert.True(t, errors.Is(err, domain.ErrNotAuthenticated))
}

func TestAddNormalizesAndDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Add(context.Background(), "go.dev/", "", "", "", []string{"Lang", "lang", " Go "})
	assert.NoError(t, err)
	assert.Equal(t, "https://go.dev", got.URL)
	assert.Equal(t, "https://go.dev", got.Title)
	assert.Equal(t, []string{"lang", "go"}, got.Tags)
	assert.False(t, got.IsRead)
	assert.Nil(t, got.Slug)

	rows := s.Snapshot()
	assert.Len(t, rows, 1)
}

func TestAddRejectsBadScheme(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Add(context.Background(), "ftp://example.com", "", "", "", nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestApplyInsertIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	row := domain.Bookmark{ID: "b-1", Owner: "user-1", URL: "https://go.dev", Title: "Go"}
	ev := backend.BookmarkEvent{Kind: backend.EventInserted, ID: row.ID, Row: &row}
	s.Apply(ev)
	s.Apply(ev)

	assert.Len(t, s.Snapshot(), 1)
}

func TestApplyStreamEchoAfterAdd(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Add(context.Background(), "https://go.dev", "Go", "", "", nil)
	assert.NoError(t, err)

	echo := got.Clone()
	s.Apply(backend.BookmarkEvent{Kind: backend.EventInserted, ID: got.ID, Row: &echo})
	assert.Len(t, s.Snapshot(), 1)
}

func TestApplyUpdateUnknownIDIgnored(t *testing.T) {
	s, _ := newTestStore(t)

	row := domain.Bookmark{ID: "ghost", Title: "x"}
	s.Apply(backend.BookmarkEvent{Kind: backend.EventUpdated, ID: row.ID, Row: &row})
	assert.Empty(t, s.Snapshot())
}

func TestApplyDelete(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Add(context.Background(), "https://go.dev", "Go", "", "", nil)
	assert.NoError(t, err)

	s.Apply(backend.BookmarkEvent{Kind: backend.EventDeleted, ID: got.ID})
	s.Apply(backend.BookmarkEvent{Kind: backend.EventDeleted, ID: got.ID})
	assert.Empty(t, s.Snapshot())
}

func TestStreamDelivery(t *testing.T) {
	s, mem := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	_, err := mem.Insert(context.Background(), domain.Bookmark{Owner: "user-1", URL: "https://go.dev", Title: "Go"})
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(s.Snapshot()) == 1
	}, time.Second, time.Millisecond*10)
}

func TestUpdatePatchAndStamp(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Add(context.Background(), "https://go.dev", "Go", "", "", nil)
	assert.NoError(t, err)

	title := "The Go Programming Language"
	updated, err := s.Update(context.Background(), got.ID, domain.BookmarkPatch{Title: &title})
	assert.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, got.URL, updated.URL)
	assert.True(t, updated.UpdatedAt.After(got.UpdatedAt) || updated.UpdatedAt.Equal(got.UpdatedAt))
}

func TestUpdateRollbackOnBackendFailure(t *testing.T) {
	s, mem := newTestStore(t)

	got, err := s.Add(context.Background(), "https://go.dev", "Go", "", "", nil)
	assert.NoError(t, err)

	s.backend = &failingBookmarks{Bookmarks: mem, failUpdate: true}

	title := "changed"
	_, err = s.Update(context.Background(), got.ID, domain.BookmarkPatch{Title: &title})
	assert.Error(t, err)

	after, ok := s.Get(got.ID)
	assert.True(t, ok)
	assert.Equal(t, "Go", after.Title)
}

func TestUpdateUnknownID(t *testing.T) {
	s, _ := newTestStore(t)

	title := "x"
	_, err := s.Update(context.Background(), "ghost", domain.BookmarkPatch{Title: &title})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeleteRollbackKeepsPosition(t *testing.T) {
	s, mem := newTestStore(t)

	first, err := s.Add(context.Background(), "https://one.example.com", "one", "", "", nil)
	assert.NoError(t, err)
	second, err := s.Add(context.Background(), "https://two.example.com", "two", "", "", nil)
	assert.NoError(t, err)

	s.backend = &failingBookmarks{Bookmarks: mem, failDelete: true}

	err = s.Delete(context.Background(), second.ID)
	assert.Error(t, err)

	rows := s.Snapshot()
	assert.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, first.ID, rows[1].ID)
}

func TestToggleReadTwiceReturnsToStart(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Add(context.Background(), "https://go.dev", "Go", "", "", nil)
	assert.NoError(t, err)

	once, err := s.ToggleRead(context.Background(), got.ID)
	assert.NoError(t, err)
	assert.True(t, once.IsRead)

	twice, err := s.ToggleRead(context.Background(), got.ID)
	assert.NoError(t, err)
	assert.False(t, twice.IsRead)
}

func TestToggleSharing(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Add(context.Background(), "https://go.dev", "Go", "", "", nil)
	assert.NoError(t, err)

	public, err := s.ToggleSharing(context.Background(), got.ID, true)
	assert.NoError(t, err)
	assert.True(t, public.IsPublic)
	assert.NotNil(t, public.Slug)

	private, err := s.ToggleSharing(context.Background(), got.ID, false)
	assert.NoError(t, err)
	assert.False(t, private.IsPublic)
	assert.Nil(t, private.Slug)
}

func TestMoveToCollectionAndBack(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Add(context.Background(), "https://go.dev", "Go", "", "", nil)
	assert.NoError(t, err)

	colID := "col-1"
	moved, err := s.MoveToCollection(context.Background(), got.ID, &colID)
	assert.NoError(t, err)
	assert.Equal(t, &colID, moved.CollectionID)

	unassigned, err := s.MoveToCollection(context.Background(), got.ID, nil)
	assert.NoError(t, err)
	assert.Nil(t, unassigned.CollectionID)
}

func TestBulkDeleteAtomicRollback(t *testing.T) {
	s, mem := newTestStore(t)

	first, err := s.Add(context.Background(), "https://one.example.com", "one", "", "", nil)
	assert.NoError(t, err)
	second, err := s.Add(context.Background(), "https://two.example.com", "two", "", "", nil)
	assert.NoError(t, err)

	s.backend = &failingBookmarks{Bookmarks: mem, failBulkDelete: true}

	err = s.BulkDelete(context.Background(), []string{first.ID, second.ID})
	assert.Error(t, err)

	rows := s.Snapshot()
	assert.Len(t, rows, 2)
	ids := []string{rows[0].ID, rows[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestBulkDelete(t *testing.T) {
	s, _ := newTestStore(t)

	first, err := s.Add(context.Background(), "https://one.example.com", "one", "", "", nil)
	assert.NoError(t, err)
	second, err := s.Add(context.Background(), "https://two.example.com", "two", "", "", nil)
	assert.NoError(t, err)

	assert.NoError(t, s.BulkDelete(context.Background(), []string{first.ID, second.ID}))
	assert.Empty(t, s.Snapshot())
}

func TestBulkSetReadRollback(t *testing.T) {
	s, mem := newTestStore(t)

	got, err := s.Add(context.Background(), "https://go.dev", "Go", "", "", nil)
	assert.NoError(t, err)

	s.backend = &failingBookmarks{Bookmarks: mem, failBulkSetRead: true}

	err = s.BulkSetRead(context.Background(), []string{got.ID}, true)
	assert.Error(t, err)

	after, ok := s.Get(got.ID)
	assert.True(t, ok)
	assert.False(t, after.IsRead)
}

func TestBulkTagIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	tagged, err := s.Add(context.Background(), "https://one.example.com", "one", "", "", []string{"go"})
	assert.NoError(t, err)
	plain, err := s.Add(context.Background(), "https://two.example.com", "two", "", "", nil)
	assert.NoError(t, err)

	assert.NoError(t, s.BulkTag(context.Background(), []string{tagged.ID, plain.ID, "ghost"}, "Go"))

	one, _ := s.Get(tagged.ID)
	assert.Equal(t, []string{"go"}, one.Tags)
	two, _ := s.Get(plain.ID)
	assert.Equal(t, []string{"go"}, two.Tags)
}

func TestBulkTagEmptyTag(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.BulkTag(context.Background(), []string{"any"}, "   ")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestImportBookmarks(t *testing.T) {
	s, _ := newTestStore(t)

	count, err := s.ImportBookmarks(context.Background(), []ImportItem{
		{URL: "https://go.dev", Title: "Go", Tags: []string{"lang"}},
		{URL: "javascript:void(0)"},
		{URL: "example.com"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	rows := s.Snapshot()
	assert.Len(t, rows, 2)
	for _, r := range rows {
		assert.True(t, strings.HasSuffix(r.FaviconURL, "/favicon.ico"))
		assert.False(t, r.IsRead)
	}
}

func TestCheckDuplicate(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Add(context.Background(), "https://go.dev", "Go", "", "", nil)
	assert.NoError(t, err)

	assert.True(t, s.CheckDuplicate("go.dev"))
	assert.True(t, s.CheckDuplicate("https://go.dev/"))
	assert.False(t, s.CheckDuplicate("https://golang.org"))
	assert.False(t, s.CheckDuplicate("not a url at all ://"))
}

func TestAllTagsSorted(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Add(context.Background(), "https://one.example.com", "one", "", "", []string{"zeta", "alpha"})
	assert.NoError(t, err)
	_, err = s.Add(context.Background(), "https://two.example.com", "two", "", "", []string{"alpha", "mid"})
	assert.NoError(t, err)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, s.AllTags())
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t)

	a, err := s.Add(context.Background(), "https://one.example.com", "one", "", "", nil)
	assert.NoError(t, err)
	b, err := s.Add(context.Background(), "https://two.example.com", "two", "", "", nil)
	assert.NoError(t, err)
	_, err = s.Add(context.Background(), "https://three.example.com", "three", "", "", nil)
	assert.NoError(t, err)

	_, err = s.ToggleRead(context.Background(), a.ID)
	assert.NoError(t, err)
	_, err = s.ToggleFavorite(context.Background(), a.ID)
	assert.NoError(t, err)
	_, err = s.ToggleArchive(context.Background(), b.ID)
	assert.NoError(t, err)

	got := s.Stats()
	assert.Equal(t, Stats{Total: 3, Unread: 1, Favorites: 1, Archived: 1}, got)
}

func TestNewSlugShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		slug := NewSlug()
		parts := strings.Split(slug, "-")
		assert.Len(t, parts, 3)
		for _, p := range parts {
			assert.Len(t, p, 4)
		}
		seen[slug] = struct{}{}
	}
	assert.Len(t, seen, 100)
}
