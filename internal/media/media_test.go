package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/content-agent/internal/media/pexels"
	"github.com/content-agent/internal/media/pixabay"
	"github.com/content-agent/internal/media/unsplash"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/pkg/logger"
	"github.com/content-agent/pkg/ratelimit"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		img.Set(x, h/2, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// stockServer serves one search endpoint and the image it points to
func stockServer(t *testing.T, searchPath string, body func(imageURL string) any) *httptest.Server {
	t.Helper()
	pngData := testPNG(t, 2400, 1200)

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc(searchPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body(srv.URL + "/img.png"))
	})
	mux.HandleFunc("/img.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngData)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(builders map[string]Builder) *Service {
	return NewService(builders, ratelimit.NewMultiLimiter(), logger.Nop())
}

func TestFetch_Pexels(t *testing.T) {
	var gotAuth string
	srv := stockServer(t, "/search", func(imageURL string) any {
		return map[string]any{
			"total_results": 1,
			"photos": []map[string]any{{
				"id": 1, "url": "https://pexels.com/photo/1", "photographer": "Ana", "alt": "A desk",
				"src": map[string]string{"large2x": imageURL},
			}},
		}
	})

	svc := newTestService(map[string]Builder{
		models.ImageProviderPexels: func(apiKey string, _ models.AppSettings) Provider {
			gotAuth = apiKey
			return pexelsProvider{client: pexels.NewClient(apiKey, logger.Nop()).WithBaseURL(srv.URL)}
		},
	})

	settings := models.DefaultSettings()
	settings.PexelsAPIKey = "pk"

	img, err := svc.Fetch(context.Background(), settings, "home office", "")
	require.NoError(t, err)
	require.NotNil(t, img)

	assert.Equal(t, "pk", gotAuth)
	assert.Equal(t, "https://pexels.com/photo/1", img.SourceURL)
	assert.Equal(t, "A desk", img.Alt)
	assert.Equal(t, "Photo by Ana on Pexels", img.Attribution)
	assert.Equal(t, MaxWidth, img.Width)
	assert.Equal(t, 600, img.Height)
	require.True(t, strings.HasPrefix(img.DataURI, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(img.DataURI, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	decoded, err := imaging.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, MaxWidth, decoded.Bounds().Dx())
}

func TestFetch_UnsplashAndPixabay(t *testing.T) {
	unsplashSrv := stockServer(t, "/search/photos", func(imageURL string) any {
		return map[string]any{"total": 1, "results": []map[string]any{{
			"id": "u1", "alt_description": "mountains", "user": map[string]string{"name": "Bo"},
			"urls":  map[string]string{"regular": imageURL},
			"links": map[string]string{"html": "https://unsplash.com/photos/u1"},
		}}}
	})
	pixabaySrv := stockServer(t, "/", func(imageURL string) any {
		return map[string]any{"totalHits": 1, "hits": []map[string]any{{
			"id": 7, "pageURL": "https://pixabay.com/7", "tags": "sea, boat", "largeImageURL": imageURL, "user": "Cy",
		}}}
	})

	svc := newTestService(map[string]Builder{
		models.ImageProviderUnsplash: func(apiKey string, _ models.AppSettings) Provider {
			return unsplashProvider{client: unsplash.NewClient(apiKey, logger.Nop()).WithBaseURL(unsplashSrv.URL)}
		},
		models.ImageProviderPixabay: func(apiKey string, _ models.AppSettings) Provider {
			return pixabayProvider{client: pixabay.NewClient(apiKey, logger.Nop()).WithBaseURL(pixabaySrv.URL + "/")}
		},
	})

	settings := models.DefaultSettings()
	settings.ImageSourceProvider = models.ImageProviderUnsplash
	settings.UnsplashAPIKey = "uk"
	img, err := svc.Fetch(context.Background(), settings, "hiking", "Trail")
	require.NoError(t, err)
	assert.Equal(t, "Trail", img.Alt, "caller alt wins")
	assert.Equal(t, "Photo by Bo on Unsplash", img.Attribution)

	settings.ImageSourceProvider = models.ImageProviderPixabay
	settings.PixabayAPIKey = "xk"
	img, err = svc.Fetch(context.Background(), settings, "sailing", "")
	require.NoError(t, err)
	assert.Equal(t, "sea, boat", img.Alt)
	assert.Equal(t, "https://pixabay.com/7", img.SourceURL)
}

func TestFetch_NoneProvider(t *testing.T) {
	settings := models.DefaultSettings()
	settings.ImageSourceProvider = models.ImageProviderNone

	img, err := newTestService(nil).Fetch(context.Background(), settings, "x", "")
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestFetch_MissingAPIKey(t *testing.T) {
	svc := newTestService(DefaultBuilders(configForTest(), logger.Nop()))
	_, err := svc.Fetch(context.Background(), models.DefaultSettings(), "x", "")
	assert.ErrorIs(t, err, &service.Error{Code: service.CodeMissingAPIKey})
}

type staticProvider struct {
	result *Result
	err    error
}

func (p staticProvider) Find(context.Context, string) (*Result, error) { return p.result, p.err }

func TestFetch_NoResult(t *testing.T) {
	svc := newTestService(map[string]Builder{
		models.ImageProviderPexels: func(string, models.AppSettings) Provider { return staticProvider{} },
	})
	settings := models.DefaultSettings()
	settings.PexelsAPIKey = "k"

	_, err := svc.Fetch(context.Background(), settings, "nothing", "")
	assert.ErrorIs(t, err, &service.Error{Code: service.CodeNoImageFound})
}

func TestFetch_FallbackKeyAndInlineData(t *testing.T) {
	var usedKey string
	svc := newTestService(map[string]Builder{
		models.ImageProviderAI: func(apiKey string, _ models.AppSettings) Provider {
			usedKey = apiKey
			return staticProvider{result: &Result{Data: testPNG(t, 800, 400), Attribution: "AI-generated image"}}
		},
	})
	svc.SetFallbackKey(models.ImageProviderAI, "config-key")

	settings := models.DefaultSettings()
	settings.ImageSourceProvider = models.ImageProviderAI

	img, err := svc.Fetch(context.Background(), settings, "robots", "Robots")
	require.NoError(t, err)
	assert.Equal(t, "config-key", usedKey)
	assert.Equal(t, 800, img.Width, "small images are not upscaled")
}

func TestEncode_RejectsGarbage(t *testing.T) {
	_, _, _, err := Encode([]byte("not an image"))
	assert.Error(t, err)
}

func TestDecodeDataURI(t *testing.T) {
	data, mime, err := DecodeDataURI("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg")))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, []byte("jpeg"), data)

	for _, bad := range []string{"https://example.com/a.jpg", "data:image/png,raw", "data:image/png;base64,!!!"} {
		_, _, err := DecodeDataURI(bad)
		assert.Error(t, err, bad)
	}
}
