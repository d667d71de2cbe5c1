package activity

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/storage/sqlite"
	"github.com/content-agent/pkg/logger"
)

func newLog(t *testing.T) *Log {
	t.Helper()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { _ = repo.Close() })
	return New(repo, logger.Nop())
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	l := newLog(t)

	l.Record(ctx, models.ActivityIdeaAdded, "Idea added", models.IconLightbulb)
	l.Recordf(ctx, models.ActivityDraftCreated, models.IconFile, "Draft %q created", "Hello")

	entries, err := l.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	details := []string{entries[0].Details, entries[1].Details}
	assert.ElementsMatch(t, []string{"Idea added", `Draft "Hello" created`}, details)
	for _, e := range entries {
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestListClampsLimit(t *testing.T) {
	ctx := context.Background()
	l := newLog(t)

	for i := 0; i < MaxLimit+5; i++ {
		l.Recordf(ctx, models.ActivityIdeaAdded, models.IconLightbulb, "entry %d", i)
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default", limit: 0, want: DefaultLimit},
		{name: "explicit", limit: 3, want: 3},
		{name: "capped", limit: 1000, want: MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := l.List(ctx, tt.limit)
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
		})
	}
}
