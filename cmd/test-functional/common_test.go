package test_functional

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type (
	TokenResp struct {
		Token string `json:"token"`
	}

	BookmarkResp struct {
		ID       string   `json:"id"`
		URL      string   `json:"url"`
		Title    string   `json:"title"`
		Tags     []string `json:"tags"`
		IsRead   bool     `json:"is_read"`
		IsPublic bool     `json:"is_public"`
		Slug     *string  `json:"slug"`
	}

	CollectionResp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
)

// registerUser creates a throwaway account; random emails keep runs
// independent without flushing the database between tests.
func registerUser(t *testing.T, ctx context.Context) string {
	t.Helper()

	u := AppBaseURL
	u.Path = "/auth/register"

	email := fmt.Sprintf("test-%s@gmail.com", uuid.New().String())
	resp, err := resty.New().
		R().
		SetHeader("Content-Type", "application/json").
		SetContext(ctx).
		SetResult(&TokenResp{}).
		SetBody(fmt.Sprintf(`{"email": %q, "password": "111111111111"}`, email)).
		Post(u.String())
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	got, ok := resp.Result().(*TokenResp)
	assert.True(t, ok)
	assert.NotEmpty(t, got.Token)
	return got.Token
}

func TestRegister(t *testing.T) {
	u := AppBaseURL
	u.Path = "/auth/register"

	t.Run("successful register", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		registerUser(t, ctx)
	})

	t.Run("bad body", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		resp, err := resty.New().
			R().
			SetHeader("Content-Type", "application/json").
			SetContext(ctx).
			SetBody(`
			{"something": "???"}
		`).
			Post(u.String())
		assert.Nil(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	})
}

func TestBookmarkCrud(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	token := registerUser(t, ctx)
	cl := resty.New().SetHeader("x-token", token).SetHeader("Content-Type", "application/json")

	createURL := AppBaseURL
	createURL.Path = "/bookmark"

	resp, err := cl.R().
		SetContext(ctx).
		SetResult(&BookmarkResp{}).
		SetBody(`{"url": "go.dev", "title": "The Go Programming Language", "tags": ["Lang", "lang"]}`).
		Post(createURL.String())
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	created, ok := resp.Result().(*BookmarkResp)
	assert.True(t, ok)
	assert.Equal(t, "https://go.dev", created.URL)
	assert.Equal(t, []string{"lang"}, created.Tags)

	// Read toggle flips and comes back in the list.
	toggleURL := AppBaseURL
	toggleURL.Path = "/bookmark/" + created.ID + "/read"
	resp, err = cl.R().SetContext(ctx).SetResult(&BookmarkResp{}).Post(toggleURL.String())
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.True(t, resp.Result().(*BookmarkResp).IsRead)

	listURL := AppBaseURL
	listURL.Path = "/bookmark"
	resp, err = cl.R().SetContext(ctx).SetResult(&[]BookmarkResp{}).Get(listURL.String() + "?view=all")
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	list := *resp.Result().(*[]BookmarkResp)
	assert.Len(t, list, 1)

	// Share and fetch through the public surface without the token.
	sharingURL := AppBaseURL
	sharingURL.Path = "/bookmark/" + created.ID + "/sharing"
	resp, err = cl.R().SetContext(ctx).SetResult(&BookmarkResp{}).SetBody(`{"public": true}`).Post(sharingURL.String())
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	shared := resp.Result().(*BookmarkResp)
	assert.True(t, shared.IsPublic)
	assert.NotNil(t, shared.Slug)

	publicURL := AppBaseURL
	publicURL.Path = "/b/" + *shared.Slug
	resp, err = resty.New().R().SetContext(ctx).SetResult(&BookmarkResp{}).Get(publicURL.String())
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, created.ID, resp.Result().(*BookmarkResp).ID)

	deleteURL := AppBaseURL
	deleteURL.Path = "/bookmark/" + created.ID
	resp, err = cl.R().SetContext(ctx).Delete(deleteURL.String())
	assert.Nil(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())
}

func TestCollectionCrud(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	token := registerUser(t, ctx)
	cl := resty.New().SetHeader("x-token", token).SetHeader("Content-Type", "application/json")

	createURL := AppBaseURL
	createURL.Path = "/collection"

	resp, err := cl.R().
		SetContext(ctx).
		SetResult(&CollectionResp{}).
		SetBody(`{"name": "Work"}`).
		Post(createURL.String())
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	col := resp.Result().(*CollectionResp)
	assert.Equal(t, "Work", col.Name)

	bookmarkURL := AppBaseURL
	bookmarkURL.Path = "/bookmark"
	resp, err = cl.R().
		SetContext(ctx).
		SetResult(&BookmarkResp{}).
		SetBody(`{"url": "https://example.com", "title": "Example"}`).
		Post(bookmarkURL.String())
	assert.Nil(t, err)
	bm := resp.Result().(*BookmarkResp)

	moveURL := AppBaseURL
	moveURL.Path = "/bookmark/" + bm.ID + "/move"
	resp, err = cl.R().SetContext(ctx).SetBody(fmt.Sprintf(`{"collection_id": %q}`, col.ID)).Post(moveURL.String())
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	listURL := AppBaseURL
	listURL.Path = "/bookmark"
	resp, err = cl.R().SetContext(ctx).SetResult(&[]BookmarkResp{}).Get(listURL.String() + "?collection=" + col.ID)
	assert.Nil(t, err)
	assert.Len(t, *resp.Result().(*[]BookmarkResp), 1)

	deleteURL := AppBaseURL
	deleteURL.Path = "/collection/" + col.ID
	resp, err = cl.R().SetContext(ctx).Delete(deleteURL.String())
	assert.Nil(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())
}
