package backend

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/config"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
)

type (
	// tagList stores a tag set as a JSON text column.
	tagList []string

	userRow struct {
		ID        string `gorm:"primaryKey"`
		Email     string `gorm:"unique;not null"`
		Password  string `gorm:"not null"`
		Token     string `gorm:"index;not null"`
		CreatedAt time.Time
	}

	bookmarkRow struct {
		ID           string `gorm:"primaryKey"`
		Owner        string `gorm:"index;not null"`
		CollectionID *string
		URL          string `gorm:"not null"`
		Title        string
		Description  string
		FaviconURL   string
		Tags         tagList `gorm:"type:text"`
		Notes        string
		IsRead       bool
		IsPinned     bool
		IsFavorite   bool
		IsArchived   bool
		IsPublic     bool
		Slug         *string `gorm:"uniqueIndex"`
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	collectionRow struct {
		ID          string `gorm:"primaryKey"`
		Owner       string `gorm:"index;not null"`
		Name        string `gorm:"not null"`
		Description string
		Color       string
		Icon        string
		IsPublic    bool
		Slug        *string `gorm:"uniqueIndex"`
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Gorm is the production backend: one table per entity, a unique
	// index enforcing slug uniqueness, and event fanout after every
	// committed bookmark write.
	Gorm struct {
		db  *gorm.DB
		hub *hub
	}
)

func (t tagList) Value() (driver.Value, error) {
	if t == nil {
		t = tagList{}
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *tagList) Scan(v interface{}) error {
	switch s := v.(type) {
	case nil:
		*t = tagList{}
		return nil
	case string:
		return json.Unmarshal([]byte(s), (*[]string)(t))
	case []byte:
		return json.Unmarshal(s, (*[]string)(t))
	default:
		return errors.Errorf("unexpected tags column type %T", v)
	}
}

func NewGormClient(cfg *config.Config) (*gorm.DB, error) {
	newLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		Colorful:                  true,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}
	return db, nil
}

// NewGorm migrates the schema and wraps db as a backend.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&userRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate users")
	}
	if err := db.AutoMigrate(&bookmarkRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate bookmarks")
	}
	if err := db.AutoMigrate(&collectionRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate collections")
	}
	return &Gorm{db: db, hub: newHub()}, nil
}

// placeholders follows the connected dialect so squirrel SQL runs on
// both postgres and the sqlite test driver.
func (g *Gorm) placeholders() squirrel.PlaceholderFormat {
	if g.db.Dialector.Name() == "postgres" {
		return squirrel.Dollar
	}
	return squirrel.Question
}

// classify maps driver errors onto the domain taxonomy.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(domain.ErrNotFound, what)
	}
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint") {
		return errors.Wrap(domain.ErrConflict, what)
	}
	return errors.Wrap(err, what)
}

func toBookmark(r bookmarkRow) domain.Bookmark {
	return domain.Bookmark{
		ID:           r.ID,
		Owner:        r.Owner,
		CollectionID: r.CollectionID,
		URL:          r.URL,
		Title:        r.Title,
		Description:  r.Description,
		FaviconURL:   r.FaviconURL,
		Tags:         append([]string(nil), r.Tags...),
		Notes:        r.Notes,
		IsRead:       r.IsRead,
		IsPinned:     r.IsPinned,
		IsFavorite:   r.IsFavorite,
		IsArchived:   r.IsArchived,
		IsPublic:     r.IsPublic,
		Slug:         r.Slug,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toBookmarkRow(b domain.Bookmark) bookmarkRow {
	return bookmarkRow{
		ID:           b.ID,
		Owner:        b.Owner,
		CollectionID: b.CollectionID,
		URL:          b.URL,
		Title:        b.Title,
		Description:  b.Description,
		FaviconURL:   b.FaviconURL,
		Tags:         tagList(append([]string(nil), b.Tags...)),
		Notes:        b.Notes,
		IsRead:       b.IsRead,
		IsPinned:     b.IsPinned,
		IsFavorite:   b.IsFavorite,
		IsArchived:   b.IsArchived,
		IsPublic:     b.IsPublic,
		Slug:         b.Slug,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toCollection(r collectionRow) domain.Collection {
	return domain.Collection{
		ID:          r.ID,
		Owner:       r.Owner,
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		Icon:        r.Icon,
		IsPublic:    r.IsPublic,
		Slug:        r.Slug,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Bookmarks

func (g *Gorm) ListByOwner(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	sql, args, err := squirrel.
		Select("*").From("bookmark_rows").
		Where(squirrel.Eq{"owner": owner}).
		OrderBy("created_at DESC").
		PlaceholderFormat(g.placeholders()).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	rows := make([]bookmarkRow, 0)
	res := g.db.WithContext(ctx).Raw(sql, args...).Scan(&rows)
	if res.Error != nil {
		return nil, classify(res.Error, "list bookmarks")
	}

	out := make([]domain.Bookmark, len(rows))
	for i := range rows {
		out[i] = toBookmark(rows[i])
	}
	return out, nil
}

func (g *Gorm) Insert(ctx context.Context, row domain.Bookmark) (domain.Bookmark, error) {
	row.ID = uuid.New().String()
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt

	model := toBookmarkRow(row)
	res := g.db.WithContext(ctx).Create(&model)
	if res.Error != nil {
		return domain.Bookmark{}, classify(res.Error, "insert bookmark")
	}

	stored := toBookmark(model)
	g.hub.publish(stored.Owner, BookmarkEvent{Kind: EventInserted, ID: stored.ID, Row: &stored})
	return toBookmark(model), nil
}

func (g *Gorm) BulkInsert(ctx context.Context, rows []domain.Bookmark) ([]domain.Bookmark, error) {
	models := make([]bookmarkRow, len(rows))
	now := time.Now()
	for i := range rows {
		rows[i].ID = uuid.New().String()
		rows[i].CreatedAt = now
		rows[i].UpdatedAt = now
		models[i] = toBookmarkRow(rows[i])
	}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
	if err != nil {
		return nil, classify(err, "bulk insert bookmarks")
	}

	out := make([]domain.Bookmark, len(models))
	for i := range models {
		out[i] = toBookmark(models[i])
		stored := out[i].Clone()
		g.hub.publish(stored.Owner, BookmarkEvent{Kind: EventInserted, ID: stored.ID, Row: &stored})
	}
	return out, nil
}

func (g *Gorm) Update(ctx context.Context, owner, id string, patch domain.BookmarkPatch, updatedAt time.Time) (domain.Bookmark, error) {
	var updated domain.Bookmark
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := bookmarkRow{}
		res := tx.Where("id = ? AND owner = ?", id, owner).First(&model)
		if res.Error != nil {
			return res.Error
		}
		b := toBookmark(model)
		patch.Apply(&b)
		b.UpdatedAt = updatedAt
		updated = b
		// Updates with an explicit updated_at key keeps the stamp the
		// caller passed in; Save would overwrite it with the wall clock.
		row := toBookmarkRow(b)
		return tx.Model(&bookmarkRow{}).
			Where("id = ? AND owner = ?", id, owner).
			Updates(map[string]interface{}{
				"collection_id": row.CollectionID,
				"url":           row.URL,
				"title":         row.Title,
				"description":   row.Description,
				"favicon_url":   row.FaviconURL,
				"tags":          row.Tags,
				"notes":         row.Notes,
				"is_read":       row.IsRead,
				"is_pinned":     row.IsPinned,
				"is_favorite":   row.IsFavorite,
				"is_archived":   row.IsArchived,
				"is_public":     row.IsPublic,
				"slug":          row.Slug,
				"updated_at":    updatedAt,
			}).Error
	})
	if err != nil {
		return domain.Bookmark{}, classify(err, "update bookmark")
	}

	stored := updated.Clone()
	g.hub.publish(owner, BookmarkEvent{Kind: EventUpdated, ID: id, Row: &stored})
	return updated, nil
}

func (g *Gorm) Delete(ctx context.Context, owner, id string) error {
	res := g.db.WithContext(ctx).Where("owner = ?", owner).Delete(&bookmarkRow{}, "id = ?", id)
	if res.Error != nil {
		return classify(res.Error, "delete bookmark")
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(domain.ErrNotFound, "bookmark "+id)
	}
	g.hub.publish(owner, BookmarkEvent{Kind: EventDeleted, ID: id})
	return nil
}

// uniqueIDs drops repeats so the all-or-nothing row count lines up
// with the id set the batch actually touches.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (g *Gorm) BulkDelete(ctx context.Context, owner string, ids []string) error {
	ids = uniqueIDs(ids)
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("owner = ? AND id IN ?", owner, ids).Delete(&bookmarkRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return errors.Wrap(domain.ErrNotFound, "some rows missing")
		}
		return nil
	})
	if err != nil {
		return classify(err, "bulk delete bookmarks")
	}
	for _, id := range ids {
		g.hub.publish(owner, BookmarkEvent{Kind: EventDeleted, ID: id})
	}
	return nil
}

func (g *Gorm) BulkSetRead(ctx context.Context, owner string, ids []string, read bool, updatedAt time.Time) error {
	ids = uniqueIDs(ids)
	changed := make([]bookmarkRow, 0, len(ids))
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&bookmarkRow{}).
			Where("owner = ? AND id IN ?", owner, ids).
			Updates(map[string]interface{}{"is_read": read, "updated_at": updatedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return errors.Wrap(domain.ErrNotFound, "some rows missing")
		}
		return tx.Where("owner = ? AND id IN ?", owner, ids).Find(&changed).Error
	})
	if err != nil {
		return classify(err, "bulk set read")
	}
	for i := range changed {
		stored := toBookmark(changed[i])
		g.hub.publish(owner, BookmarkEvent{Kind: EventUpdated, ID: stored.ID, Row: &stored})
	}
	return nil
}

func (g *Gorm) GetBySlug(ctx context.Context, slug string) (domain.Bookmark, error) {
	sql, args, err := squirrel.
		Select("*").From("bookmark_rows").
		Where(squirrel.Eq{"slug": slug, "is_public": true}).
		PlaceholderFormat(g.placeholders()).
		ToSql()
	if err != nil {
		return domain.Bookmark{}, errors.Wrap(err, "build sql")
	}

	rows := make([]bookmarkRow, 0, 1)
	res := g.db.WithContext(ctx).Raw(sql, args...).Scan(&rows)
	if res.Error != nil {
		return domain.Bookmark{}, classify(res.Error, "get bookmark by slug")
	}
	if len(rows) == 0 {
		return domain.Bookmark{}, errors.Wrap(domain.ErrNotFound, "slug "+slug)
	}
	return toBookmark(rows[0]), nil
}

func (g *Gorm) Subscribe(owner string) Subscription {
	return g.hub.subscribe(owner)
}

// Collections

func (g *Gorm) Collections() Collections { return gormCollections{g} }

type gormCollections struct{ g *Gorm }

func (c gormCollections) ListByOwner(ctx context.Context, owner string) ([]domain.Collection, error) {
	rows := make([]collectionRow, 0)
	res := c.g.db.WithContext(ctx).Where("owner = ?", owner).Order("name ASC").Find(&rows)
	if res.Error != nil {
		return nil, classify(res.Error, "list collections")
	}
	out := make([]domain.Collection, len(rows))
	for i := range rows {
		out[i] = toCollection(rows[i])
	}
	return out, nil
}

func (c gormCollections) Insert(ctx context.Context, row domain.Collection) (domain.Collection, error) {
	row.ID = uuid.New().String()
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt

	model := collectionRow{
		ID:          row.ID,
		Owner:       row.Owner,
		Name:        row.Name,
		Description: row.Description,
		Color:       row.Color,
		Icon:        row.Icon,
		IsPublic:    row.IsPublic,
		Slug:        row.Slug,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	res := c.g.db.WithContext(ctx).Create(&model)
	if res.Error != nil {
		return domain.Collection{}, classify(res.Error, "insert collection")
	}
	return toCollection(model), nil
}

func (c gormCollections) Update(ctx context.Context, owner, id string, patch domain.CollectionPatch, updatedAt time.Time) (domain.Collection, error) {
	var updated domain.Collection
	err := c.g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := collectionRow{}
		res := tx.Where("id = ? AND owner = ?", id, owner).First(&model)
		if res.Error != nil {
			return res.Error
		}
		col := toCollection(model)
		patch.Apply(&col)
		col.UpdatedAt = updatedAt
		updated = col
		return tx.Model(&collectionRow{}).
			Where("id = ? AND owner = ?", id, owner).
			Updates(map[string]interface{}{
				"name":        col.Name,
				"description": col.Description,
				"color":       col.Color,
				"icon":        col.Icon,
				"is_public":   col.IsPublic,
				"slug":        col.Slug,
				"updated_at":  updatedAt,
			}).Error
	})
	if err != nil {
		return domain.Collection{}, classify(err, "update collection")
	}
	return updated, nil
}

// Delete removes the collection and detaches its bookmarks in the same
// transaction, then replays each detached row on the stream.
func (c gormCollections) Delete(ctx context.Context, owner, id string) error {
	detached := make([]bookmarkRow, 0)
	err := c.g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("owner = ?", owner).Delete(&collectionRow{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.Wrap(domain.ErrNotFound, "collection "+id)
		}
		members := make([]bookmarkRow, 0)
		if err := tx.Where("owner = ? AND collection_id = ?", owner, id).Find(&members).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		memberIDs := make([]string, len(members))
		for i := range members {
			memberIDs[i] = members[i].ID
		}
		if err := tx.Model(&bookmarkRow{}).
			Where("owner = ? AND id IN ?", owner, memberIDs).
			Updates(map[string]interface{}{"collection_id": nil, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		return tx.Where("owner = ? AND id IN ?", owner, memberIDs).Find(&detached).Error
	})
	if err != nil {
		return classify(err, "delete collection")
	}
	for i := range detached {
		stored := toBookmark(detached[i])
		c.g.hub.publish(owner, BookmarkEvent{Kind: EventUpdated, ID: stored.ID, Row: &stored})
	}
	return nil
}

func (c gormCollections) GetBySlug(ctx context.Context, slug string) (domain.Collection, []domain.Bookmark, error) {
	model := collectionRow{}
	res := c.g.db.WithContext(ctx).Where("slug = ? AND is_public = ?", slug, true).First(&model)
	if res.Error != nil {
		return domain.Collection{}, nil, classify(res.Error, "get collection by slug")
	}

	rows := make([]bookmarkRow, 0)
	res = c.g.db.WithContext(ctx).
		Where("collection_id = ?", model.ID).
		Order("created_at DESC").
		Find(&rows)
	if res.Error != nil {
		return domain.Collection{}, nil, classify(res.Error, "list collection bookmarks")
	}

	members := make([]domain.Bookmark, len(rows))
	for i := range rows {
		members[i] = toBookmark(rows[i])
	}
	return toCollection(model), members, nil
}

// Users

func (g *Gorm) Create(ctx context.Context, email, passwordHash, token string) (User, error) {
	model := userRow{
		ID:       uuid.New().String(),
		Email:    email,
		Password: passwordHash,
		Token:    token,
	}
	res := g.db.WithContext(ctx).Create(&model)
	if res.Error != nil {
		return User{}, classify(res.Error, "create user")
	}
	return User(model), nil
}

func (g *Gorm) FindByEmail(ctx context.Context, email string) (User, error) {
	model := userRow{}
	res := g.db.WithContext(ctx).Where("email = ?", email).First(&model)
	if res.Error != nil {
		return User{}, classify(res.Error, "find user by email")
	}
	return User(model), nil
}

func (g *Gorm) FindByToken(ctx context.Context, token string) (User, error) {
	model := userRow{}
	res := g.db.WithContext(ctx).Where("token = ?", token).First(&model)
	if res.Error != nil {
		return User{}, classify(res.Error, "find user by token")
	}
	return User(model), nil
}

func (g *Gorm) UpdateToken(ctx context.Context, id, token string) error {
	res := g.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Update("token", token)
	if res.Error != nil {
		return classify(res.Error, "update token")
	}
	return nil
}
