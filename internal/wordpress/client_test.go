package wordpress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/pkg/logger"
	"github.com/content-agent/pkg/ratelimit"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(config.WordPressConfig{
		BaseURL:     srv.URL + "/",
		Username:    "editor",
		AppPassword: "xxxx xxxx",
	}, ratelimit.NewMultiLimiter(), logger.Nop())
}

func TestCreatePost(t *testing.T) {
	var got PostRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "editor", user)
		assert.Equal(t, "xxxx xxxx", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":99,"link":"https://blog.example.com/hello","status":"publish"}`))
	}))
	defer srv.Close()

	post, err := newTestClient(srv).CreatePost(context.Background(), PostRequest{
		Title:   "Hello",
		Content: "<p>Hi</p>",
		Meta:    SEOMeta(models.SEOPluginYoast, "Hello | Blog", "Say hi", []string{"hello"}),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99), post.ID)
	assert.Equal(t, "https://blog.example.com/hello", post.Link)
	assert.Equal(t, "publish", got.Status)
	assert.Equal(t, "hello", got.Meta["_yoast_wpseo_focuskw"])
}

func TestCreatePost_WPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"rest_cannot_create","message":"Sorry, you are not allowed to create posts as this user.","data":{"status":401}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreatePost(context.Background(), PostRequest{Title: "x"})
	assert.ErrorContains(t, err, "rest_cannot_create")
}

func TestUploadMedia(t *testing.T) {
	var altSet string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/wp/v2/media":
			assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
			assert.Contains(t, r.Header.Get("Content-Disposition"), `filename="cover.jpg"`)
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "jpegdata", string(body))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":5,"source_url":"https://blog.example.com/cover.jpg"}`))
		case "/wp-json/wp/v2/media/5":
			var payload map[string]string
			_ = json.NewDecoder(r.Body).Decode(&payload)
			altSet = payload["alt_text"]
			_, _ = w.Write([]byte(`{"id":5}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	media, err := newTestClient(srv).UploadMedia(context.Background(), "cover.jpg", "image/jpeg", []byte("jpegdata"), "A cover")
	require.NoError(t, err)
	assert.Equal(t, int64(5), media.ID)
	assert.Equal(t, "A cover", altSet)
}

func TestListPublishedPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		assert.Equal(t, "publish", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`[{"id":1,"title":{"rendered":"One"},"content":{"rendered":"<p>Body</p>"}}]`))
	}))
	defer srv.Close()

	posts, err := newTestClient(srv).ListPublishedPosts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "<p>Body</p>", posts[0].Content.Rendered)
}

func TestSEOMeta(t *testing.T) {
	assert.Nil(t, SEOMeta(models.SEOPluginNone, "t", "d", []string{"k"}))

	rm := SEOMeta(models.SEOPluginRankMath, "t", "d", []string{"a", "b"})
	assert.Equal(t, "a,b", rm["rank_math_focus_keyword"])
	assert.Equal(t, "d", rm["rank_math_description"])

	yoast := SEOMeta(models.SEOPluginYoast, "t", "d", nil)
	assert.Equal(t, "", yoast["_yoast_wpseo_focuskw"])
}
