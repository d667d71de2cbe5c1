package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/internal/storage/sqlite"
	"github.com/content-agent/pkg/logger"
)

type fakeLicense struct{ active bool }

func (f fakeLicense) IsActive(context.Context) (bool, error) { return f.active, nil }

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestStore_LoadDefaults(t *testing.T) {
	repo := newRepo(t)
	store := NewStore(repo, activity.New(repo, logger.Nop()), nil, false, logger.Nop())

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	store := NewStore(repo, activity.New(repo, logger.Nop()), nil, false, logger.Nop())

	in := models.DefaultSettings()
	in.Mode = models.ModeFullAutomatic
	in.AutoPublish = true
	in.ImageSourceProvider = models.ImageProviderUnsplash
	in.UnsplashAPIKey = "abc"
	in.SEOPlugin = models.SEOPluginYoast
	in.FullAutoDailyPostCount = 3

	saved, err := store.Save(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, saved)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	logs, err := repo.ListActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActivitySettingsUpdated, logs[0].Type)
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	repo := newRepo(t)
	store := NewStore(repo, activity.New(repo, logger.Nop()), nil, false, logger.Nop())

	in := models.DefaultSettings()
	in.SemiAutoIdeaCount = 50

	_, err := store.Save(context.Background(), in)
	assert.ErrorIs(t, err, &service.Error{Code: service.CodeInvalidSetting})
}

func TestStore_FullAutomaticNeedsLicense(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	in := models.DefaultSettings()
	in.Mode = models.ModeFullAutomatic

	locked := NewStore(repo, activity.New(repo, logger.Nop()), fakeLicense{active: false}, true, logger.Nop())
	_, err := locked.Save(ctx, in)
	assert.ErrorIs(t, err, &service.Error{Code: service.CodeLicenseRequired})

	got, err := locked.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ModeManual, got.Mode)

	unlocked := NewStore(repo, activity.New(repo, logger.Nop()), fakeLicense{active: true}, true, logger.Nop())
	_, err = unlocked.Save(ctx, in)
	assert.NoError(t, err)
}
