package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/backend"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/bookmarkfile"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/config"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/metadata"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/service"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/session"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/store"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/view"
)

type (
	UserReq struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=12"`
	}

	BookmarkCreateReq struct {
		URL         string   `json:"url" validate:"required"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		FaviconURL  string   `json:"favicon_url"`
		Tags        []string `json:"tags"`
	}

	BookmarkPatchReq struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		FaviconURL  *string  `json:"favicon_url"`
		Notes       *string  `json:"notes"`
		Tags        []string `json:"tags"`
	}

	SharingReq struct {
		Public bool `json:"public"`
	}

	MoveReq struct {
		CollectionID *string `json:"collection_id"`
	}

	BulkIDsReq struct {
		IDs []string `json:"ids" validate:"required,min=1"`
	}

	BulkReadReq struct {
		IDs  []string `json:"ids" validate:"required,min=1"`
		Read bool     `json:"read"`
	}

	BulkTagReq struct {
		IDs []string `json:"ids" validate:"required,min=1"`
		Tag string   `json:"tag" validate:"required"`
	}

	MetadataReq struct {
		URL string `json:"url" validate:"required"`
	}

	CollectionReq struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}

	CollectionPatchReq struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Color       *string `json:"color"`
		Icon        *string `json:"icon"`
	}

	BookmarkResp struct {
		ID           string    `json:"id"`
		CollectionID *string   `json:"collection_id"`
		URL          string    `json:"url"`
		Title        string    `json:"title"`
		Description  string    `json:"description,omitempty"`
		FaviconURL   string    `json:"favicon_url,omitempty"`
		Tags         []string  `json:"tags"`
		Notes        string    `json:"notes,omitempty"`
		IsRead       bool      `json:"is_read"`
		IsPinned     bool      `json:"is_pinned"`
		IsFavorite   bool      `json:"is_favorite"`
		IsArchived   bool      `json:"is_archived"`
		IsPublic     bool      `json:"is_public"`
		Slug         *string   `json:"slug,omitempty"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	CollectionResp struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description,omitempty"`
		Color       string    `json:"color,omitempty"`
		Icon        string    `json:"icon,omitempty"`
		IsPublic    bool      `json:"is_public"`
		Slug        *string   `json:"slug,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	SharedCollectionResp struct {
		Collection CollectionResp `json:"collection"`
		Bookmarks  []BookmarkResp `json:"bookmarks"`
	}

	ImportResp struct {
		Imported int `json:"imported"`
	}

	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		general     *service.General
		sessions    *session.Manager
		bookmarks   backend.Bookmarks
		collections backend.Collections
		fetcher     *metadata.Fetcher
		logger      *zap.SugaredLogger
	}
)

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	general *service.General,
	sessions *session.Manager,
	bookmarks backend.Bookmarks,
	collections backend.Collections,
	fetcher *metadata.Fetcher,
	logger *zap.SugaredLogger,
) *HTTPServer {
	e := echo.New()
	e.HideBanner = true

	instance := HTTPServer{
		general:     general,
		sessions:    sessions,
		bookmarks:   bookmarks,
		collections: collections,
		fetcher:     fetcher,
		logger:      logger,
	}

	e.POST("/auth/register", instance.Register)
	e.POST("/auth/login", instance.Login)

	bookmarkG := e.Group("/bookmark")
	bookmarkG.GET("", instance.BookmarkList)
	bookmarkG.POST("", instance.BookmarkCreate)
	bookmarkG.GET("/duplicate", instance.BookmarkDuplicate)
	bookmarkG.GET("/stats", instance.BookmarkStats)
	bookmarkG.GET("/export", instance.BookmarkExport)
	bookmarkG.POST("/import", instance.BookmarkImport)
	bookmarkG.POST("/bulk/delete", instance.BookmarkBulkDelete)
	bookmarkG.POST("/bulk/read", instance.BookmarkBulkRead)
	bookmarkG.POST("/bulk/tag", instance.BookmarkBulkTag)
	bookmarkG.PATCH("/:id", instance.BookmarkUpdate)
	bookmarkG.DELETE("/:id", instance.BookmarkDelete)
	bookmarkG.POST("/:id/read", instance.BookmarkToggleRead)
	bookmarkG.POST("/:id/favorite", instance.BookmarkToggleFavorite)
	bookmarkG.POST("/:id/archive", instance.BookmarkToggleArchive)
	bookmarkG.POST("/:id/pin", instance.BookmarkTogglePin)
	bookmarkG.POST("/:id/sharing", instance.BookmarkSharing)
	bookmarkG.POST("/:id/move", instance.BookmarkMove)

	collectionG := e.Group("/collection")
	collectionG.GET("", instance.CollectionList)
	collectionG.POST("", instance.CollectionCreate)
	collectionG.PATCH("/:id", instance.CollectionUpdate)
	collectionG.DELETE("/:id", instance.CollectionDelete)
	collectionG.POST("/:id/sharing", instance.CollectionSharing)

	e.GET("/tag", instance.TagList)
	e.POST("/sync/refresh", instance.SyncRefresh)
	e.POST("/metadata", instance.Metadata)

	e.GET("/b/:slug", instance.SharedBookmark)
	e.GET("/share/:slug", instance.SharedCollection)

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(instance.RequestLogMiddleware)
	e.Use(instance.AuthMiddleware)

	e.Validator = &CustomValidator{validator: validator.New()}

	echo.NotFoundHandler = func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.Host + ":" + cfg.Port
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					e.Logger.Fatal("shutting down the server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			sessions.Close()
			return e.Shutdown(ctx)
		},
	})

	return &instance
}

func (s *HTTPServer) Register(c echo.Context) error {
	u := UserReq{}
	if err := BindAndValidate(c, &u); err != nil {
		return err
	}

	token, err := s.general.Register(c.Request().Context(), u.Email, u.Password)
	if err != nil {
		return httpError(err)
	}
	resp := struct {
		Token string `json:"token"`
	}{
		Token: token,
	}
	return c.JSON(http.StatusOK, &resp)
}

func (s *HTTPServer) Login(c echo.Context) error {
	u := UserReq{}
	if err := BindAndValidate(c, &u); err != nil {
		return err
	}

	token, err := s.general.Login(c.Request().Context(), u.Email, u.Password)
	if err != nil {
		if errors.Is(err, service.ErrLoginUserNotFound) || errors.Is(err, service.ErrLoginPasswordDoesNotMatch) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return httpError(err)
	}
	resp := struct {
		Token string `json:"token"`
	}{
		Token: token,
	}
	return c.JSON(http.StatusOK, &resp)
}

func (s *HTTPServer) BookmarkList(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}

	filters := view.Filters{
		Search: c.QueryParam("search"),
		Mode:   view.Mode(c.QueryParam("view")),
		Sort:   view.Sort(c.QueryParam("sort")),
	}
	// Tags are stored lowercase, so the filter value follows suit.
	if tag := strings.ToLower(c.QueryParam("tag")); tag != "" {
		filters.Tag = &tag
	}
	if col := c.QueryParam("collection"); col != "" {
		filters.CollectionID = &col
	}

	visible := view.Visible(sess.Bookmarks.Snapshot(), filters)
	resp := make([]BookmarkResp, len(visible))
	for i := range visible {
		resp[i] = toBookmarkResp(visible[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) BookmarkCreate(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}

	req := BookmarkCreateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	// Fill missing display metadata best-effort before storing.
	if req.Title == "" || req.FaviconURL == "" {
		if normalized, nErr := domain.NormalizeURL(req.URL); nErr == nil {
			meta := s.fetcher.Fetch(c.Request().Context(), normalized)
			if req.Title == "" {
				req.Title = meta.Title
			}
			if req.Description == "" {
				req.Description = meta.Description
			}
			if req.FaviconURL == "" {
				req.FaviconURL = meta.FaviconURL
			}
		}
	}

	created, err := sess.Bookmarks.Add(c.Request().Context(), req.URL, req.Title, req.Description, req.FaviconURL, req.Tags)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toBookmarkResp(created))
}

func (s *HTTPServer) BookmarkDuplicate(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	url := c.QueryParam("url")
	if url == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query param 'url'")
	}
	resp := struct {
		Duplicate bool `json:"duplicate"`
	}{
		Duplicate: sess.Bookmarks.CheckDuplicate(url),
	}
	return c.JSON(http.StatusOK, &resp)
}

func (s *HTTPServer) BookmarkStats(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Bookmarks.Stats())
}

func (s *HTTPServer) BookmarkExport(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}

	rows := sess.Bookmarks.Snapshot()
	switch c.QueryParam("format") {
	case "html":
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="privatenest-bookmarks.html"`)
		return c.Blob(http.StatusOK, "text/html; charset=utf-8", []byte(bookmarkfile.ExportHTML(rows)))
	case "", "json":
		data, mErr := bookmarkfile.ExportJSON(rows)
		if mErr != nil {
			return httpError(mErr)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="privatenest-bookmarks.json"`)
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown export format")
	}
}

func (s *HTTPServer) BookmarkImport(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}

	items := bookmarkfile.ParseNetscape(c.Request().Body)
	converted := make([]store.ImportItem, len(items))
	for i, it := range items {
		converted[i] = store.ImportItem{URL: it.URL, Title: it.Title, Tags: it.Tags}
	}

	count, err := sess.Bookmarks.ImportBookmarks(c.Request().Context(), converted)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ImportResp{Imported: count})
}

func (s *HTTPServer) BookmarkUpdate(c echo.Context) error {
	id, err := GetParam(c, "id")
	if err != nil {
		return err
	}
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}

	req := BookmarkPatchReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	patch := domain.BookmarkPatch{
		Title:       req.Title,
		Description: req.Description,
		FaviconURL:  req.FaviconURL,
		Notes:       req.Notes,
	}
	if req.Tags != nil {
		patch.Tags = domain.NormalizeTags(req.Tags)
	}

	updated, err := sess.Bookmarks.Update(c.Request().Context(), id, patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toBookmarkResp(updated))
}

func (s *HTTPServer) BookmarkDelete(c echo.Context) error {
	id, err := GetParam(c, "id")
	if err != nil {
		return err
	}
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	if err := sess.Bookmarks.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) BookmarkToggleRead(c echo.Context) error {
	return s.bookmarkToggle(c, func(ctx context.Context, sess *session.Session, id string) (domain.Bookmark, error) {
		return sess.Bookmarks.ToggleRead(ctx, id)
	})
}

func (s *HTTPServer) BookmarkToggleFavorite(c echo.Context) error {
	return s.bookmarkToggle(c, func(ctx context.Context, sess *session.Session, id string) (domain.Bookmark, error) {
		return sess.Bookmarks.ToggleFavorite(ctx, id)
	})
}

func (s *HTTPServer) BookmarkToggleArchive(c echo.Context) error {
	return s.bookmarkToggle(c, func(ctx context.Context, sess *session.Session, id string) (domain.Bookmark, error) {
		return sess.Bookmarks.ToggleArchive(ctx, id)
	})
}

func (s *HTTPServer) BookmarkTogglePin(c echo.Context) error {
	return s.bookmarkToggle(c, func(ctx context.Context, sess *session.Session, id string) (domain.Bookmark, error) {
		return sess.Bookmarks.TogglePin(ctx, id)
	})
}

func (s *HTTPServer) bookmarkToggle(c echo.Context, op func(context.Context, *session.Session, string) (domain.Bookmark, error)) error {
	id, err := GetParam(c, "id")
	if err != nil {
		return err
	}
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	updated, err := op(c.Request().Context(), sess, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toBookmarkResp(updated))
}

func (s *HTTPServer) BookmarkSharing(c echo.Context) error {
	id, err := GetParam(c, "id")
	if err != nil {
		return err
	}
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}

	req := SharingReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := sess.Bookmarks.ToggleSharing(c.Request().Context(), id, req.Public)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toBookmarkResp(updated))
}

func (s *HTTPServer) BookmarkMove(c echo.Context) error {
	id, err := GetParam(c, "id")
	if err != nil {
		return err
	}
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}

	req := MoveReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := sess.Bookmarks.MoveToCollection(c.Request().Context(), id, req.CollectionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toBookmarkResp(updated))
}

func (s *HTTPServer) BookmarkBulkDelete(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	req := BulkIDsReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := sess.Bookmarks.BulkDelete(c.Request().Context(), req.IDs); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) BookmarkBulkRead(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	req := BulkReadReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := sess.Bookmarks.BulkSetRead(c.Request().Context(), req.IDs, req.Read); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) BookmarkBulkTag(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	req := BulkTagReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := sess.Bookmarks.BulkTag(c.Request().Context(), req.IDs, req.Tag); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) CollectionList(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	rows := sess.Collections.Snapshot()
	resp := make([]CollectionResp, len(rows))
	for i := range rows {
		resp[i] = toCollectionResp(rows[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) CollectionCreate(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	req := CollectionReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	created, err := sess.Collections.Add(c.Request().Context(), req.Name, req.Description, req.Color)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toCollectionResp(created))
}

func (s *HTTPServer) CollectionUpdate(c echo.Context) error {
	id, err := GetParam(c, "id")
	if err != nil {
		return err
	}
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	req := CollectionPatchReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	updated, err := sess.Collections.Update(c.Request().Context(), id, domain.CollectionPatch{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toCollectionResp(updated))
}

func (s *HTTPServer) CollectionDelete(c echo.Context) error {
	id, err := GetParam(c, "id")
	if err != nil {
		return err
	}
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	if err := sess.Collections.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) CollectionSharing(c echo.Context) error {
	id, err := GetParam(c, "id")
	if err != nil {
		return err
	}
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	req := SharingReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	updated, err := sess.Collections.ToggleSharing(c.Request().Context(), id, req.Public)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toCollectionResp(updated))
}

func (s *HTTPServer) TagList(c echo.Context) error {
	sess, err := s.getSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Bookmarks.AllTags())
}

// SyncRefresh re-runs the bulk reads; clients call it when the page
// regains visibility or focus.
func (s *HTTPServer) SyncRefresh(c echo.Context) error {
	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		return err
	}
	if err := s.sessions.Refresh(c.Request().Context(), *principal); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) Metadata(c echo.Context) error {
	req := MetadataReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	normalized, err := domain.NormalizeURL(req.URL)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid url")
	}
	return c.JSON(http.StatusOK, s.fetcher.Fetch(c.Request().Context(), normalized))
}

func (s *HTTPServer) SharedBookmark(c echo.Context) error {
	slug, err := GetParam(c, "slug")
	if err != nil {
		return err
	}
	row, err := s.bookmarks.GetBySlug(c.Request().Context(), slug)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toBookmarkResp(row))
}

func (s *HTTPServer) SharedCollection(c echo.Context) error {
	slug, err := GetParam(c, "slug")
	if err != nil {
		return err
	}
	col, members, err := s.collections.GetBySlug(c.Request().Context(), slug)
	if err != nil {
		return httpError(err)
	}
	resp := SharedCollectionResp{
		Collection: toCollectionResp(col),
		Bookmarks:  make([]BookmarkResp, len(members)),
	}
	for i := range members {
		resp.Bookmarks[i] = toBookmarkResp(members[i])
	}
	return c.JSON(http.StatusOK, resp)
}

var publicPaths = map[string]struct{}{
	"/auth/register": {},
	"/auth/login":    {},
	"/ping":          {},
	"/metadata":      {},
	"/b/:slug":       {},
	"/share/:slug":   {},
}

func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := publicPaths[c.Path()]; ok {
			return next(c)
		}
		token := ""
		for key, values := range c.Request().Header {
			if strings.ToLower(key) == "x-token" {
				token = values[0]
				break
			}
		}
		if token == "" {
			return c.NoContent(http.StatusUnauthorized)
		}
		principal, err := s.general.PrincipalByToken(c.Request().Context(), token)
		if err != nil {
			s.logger.Debugw("token lookup failed", "error", err)
			return c.NoContent(http.StatusUnauthorized)
		}

		c.Set("principal", principal)
		return next(c)
	}
}

// RequestLogMiddleware logs request bodies with credentials censored.
func (s *HTTPServer) RequestLogMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return middleware.BodyDump(func(c echo.Context, reqBody, _ []byte) {
		s.logger.Infow("request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"body", string(censorBody(reqBody)),
		)
	})(next)
}

// censorBody blanks the password field of a JSON body so credentials
// never reach the logs. Non-JSON bodies pass through untouched.
func censorBody(body []byte) []byte {
	if len(body) == 0 {
		return body
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return body
	}
	if _, ok := fields["password"]; !ok {
		return body
	}
	fields["password"] = json.RawMessage(`"$censored"`)
	out, err := json.Marshal(fields)
	if err != nil {
		return body
	}
	return bytes.TrimSpace(out)
}

func (s *HTTPServer) getSession(c echo.Context) (*session.Session, error) {
	principal, err := GetPrincipalFromContext(c)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(c.Request().Context(), *principal)
	if err != nil {
		return nil, httpError(err)
	}
	return sess, nil
}

// httpError maps the domain error taxonomy onto HTTP statuses.
func httpError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotAuthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return err
	}
}

func toBookmarkResp(b domain.Bookmark) BookmarkResp {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return BookmarkResp{
		ID:           b.ID,
		CollectionID: b.CollectionID,
		URL:          b.URL,
		Title:        b.Title,
		Description:  b.Description,
		FaviconURL:   b.FaviconURL,
		Tags:         tags,
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

func toCollectionResp(c domain.Collection) CollectionResp {
	return CollectionResp{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		IsPublic:    c.IsPublic,
		Slug:        c.Slug,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func BindAndValidate(c echo.Context, v interface{}) error {
	var err error
	if err = c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func GetPrincipalFromContext(c echo.Context) (*domain.Principal, error) {
	principal, _ := c.Get("principal").(*domain.Principal)
	if principal == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "no principal in context")
	}
	return principal, nil
}

func GetParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return value, nil
}
