package drafter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/ai"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/internal/settings"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/internal/storage/sqlite"
	"github.com/content-agent/pkg/logger"
)

const draftReply = `{
	"title": "Go Generics Explained",
	"content": "## Why generics\n\nThey remove **duplication**.\n\n<script>alert(1)</script>",
	"metaTitle": "Go Generics",
	"metaDescription": "A practical guide to generics in Go.",
	"focusKeywords": ["go generics"],
	"imageQuery": "code on screen",
	"imageAlt": "Code on a laptop screen"
}`

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(context.Context, string, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeImages struct {
	img   *models.FeaturedImage
	err   error
	query string
	alt   string
}

func (f *fakeImages) Fetch(_ context.Context, _ models.AppSettings, query, alt string) (*models.FeaturedImage, error) {
	f.query, f.alt = query, alt
	return f.img, f.err
}

type fakeTracker struct {
	created []uint
}

func (f *fakeTracker) DraftCreated(_ context.Context, d *models.Draft, _ *models.Idea) error {
	f.created = append(f.created, d.ID)
	return nil
}
func (f *fakeTracker) DraftScheduled(context.Context, *models.Draft) error { return nil }
func (f *fakeTracker) DraftPublished(context.Context, *models.Draft) error { return nil }

type fixture struct {
	agent   *Agent
	repo    *sqlite.Repository
	llm     *fakeCompleter
	images  *fakeImages
	tracker *fakeTracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { _ = repo.Close() })

	log := logger.Nop()
	act := activity.New(repo, log)
	llm := &fakeCompleter{reply: draftReply}
	images := &fakeImages{img: &models.FeaturedImage{Provider: "pexels", DataURI: "data:image/jpeg;base64,AAAA", Alt: "Code"}}
	tr := &fakeTracker{}

	agent := NewAgent(repo, ai.NewGenerator(llm, log), images, settings.NewStore(repo, act, nil, false, log), nil, tr, act, log)
	return &fixture{agent: agent, repo: repo, llm: llm, images: images, tracker: tr}
}

func (f *fixture) idea(t *testing.T, status models.IdeaStatus) *models.Idea {
	t.Helper()
	idea := &models.Idea{Title: "Generics in Go", Keywords: models.StringSlice{"go"}, Status: status}
	require.NoError(t, f.repo.CreateIdea(context.Background(), idea))
	return idea
}

func TestCreateFromIdea(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	idea := f.idea(t, models.IdeaStatusApproved)

	draft, err := f.agent.CreateFromIdea(ctx, idea.ID)
	require.NoError(t, err)

	assert.Equal(t, "Go Generics Explained", draft.Title)
	assert.Equal(t, "go-generics-explained", draft.Slug)
	assert.Contains(t, draft.Content, "<strong>duplication</strong>")
	assert.Contains(t, draft.Content, "Why generics</h2>")
	assert.NotContains(t, draft.Content, "<script")
	assert.Equal(t, models.StringSlice{"go generics"}, draft.FocusKeywords)
	require.NotNil(t, draft.FeaturedImage)
	assert.Equal(t, "code on screen", f.images.query)
	assert.Equal(t, "Code on a laptop screen", f.images.alt)

	stored, err := f.repo.GetIdeaByID(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaStatusDraftCreated, stored.Status)
	require.NotNil(t, stored.PostID)
	assert.Equal(t, draft.ID, *stored.PostID)

	assert.Equal(t, []uint{draft.ID}, f.tracker.created)
}

func TestCreateFromIdea_ImageFailureDegrades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.images.img = nil
	f.images.err = service.New(service.CodeMissingAPIKey, 400, "no API key configured for pexels")
	idea := f.idea(t, models.IdeaStatusPending)

	draft, err := f.agent.CreateFromIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Nil(t, draft.FeaturedImage)

	logs, err := f.repo.ListActivity(ctx, 5)
	require.NoError(t, err)
	var types []string
	for _, l := range logs {
		types = append(types, l.Type)
	}
	assert.Contains(t, types, models.ActivityImageFailed)
	assert.Contains(t, types, models.ActivityDraftCreated)
}

func TestCreateFromIdea_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown idea", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.agent.CreateFromIdea(ctx, 404)
		assert.ErrorIs(t, err, &service.Error{Code: service.CodeNotFound})
	})

	for _, status := range []models.IdeaStatus{models.IdeaStatusRejected, models.IdeaStatusDraftCreated} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			idea := f.idea(t, status)
			_, err := f.agent.CreateFromIdea(ctx, idea.ID)
			assert.ErrorIs(t, err, &service.Error{Code: service.CodeInvalidTransition})
			assert.Zero(t, f.llm.calls, "AI must not be called")
		})
	}

	t.Run("ai failure leaves idea untouched", func(t *testing.T) {
		f := newFixture(t)
		f.llm.err = errors.New("overloaded")
		idea := f.idea(t, models.IdeaStatusPending)

		_, err := f.agent.CreateFromIdea(ctx, idea.ID)
		assert.ErrorIs(t, err, &service.Error{Code: service.CodeAIError})

		stored, err := f.repo.GetIdeaByID(ctx, idea.ID)
		require.NoError(t, err)
		assert.Equal(t, models.IdeaStatusPending, stored.Status)

		drafts, err := f.repo.ListDrafts(ctx, storage.DefaultDraftFilter())
		require.NoError(t, err)
		assert.Empty(t, drafts)
	})
}

func TestCreateManual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft, err := f.agent.CreateManual(ctx, DraftInput{
		Title:   "  My Post ",
		Content: `<p onclick="x()">Hello</p>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "My Post", draft.Title)
	assert.Equal(t, "<p>Hello</p>", draft.Content)
	assert.Nil(t, draft.IdeaID)

	_, err = f.agent.CreateManual(ctx, DraftInput{Title: " "})
	assert.ErrorIs(t, err, &service.Error{Code: service.CodeInvalidTitle})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	draft, err := f.agent.CreateManual(ctx, DraftInput{Title: "Old Title"})
	require.NoError(t, err)

	title := "New Title"
	content := "<p>Body</p><iframe src=x></iframe>"
	keywords := []string{"a", "b"}
	updated, err := f.agent.Update(ctx, draft.ID, DraftPatch{Title: &title, Content: &content, FocusKeywords: &keywords})
	require.NoError(t, err)
	assert.Equal(t, "new-title", updated.Slug)
	assert.Equal(t, "<p>Body</p>", updated.Content)
	assert.Equal(t, models.StringSlice{"a", "b"}, updated.FocusKeywords)

	published := models.DraftStatusPublished
	_, err = f.agent.Update(ctx, draft.ID, DraftPatch{Status: &published})
	assert.ErrorIs(t, err, &service.Error{Code: service.CodeInvalidTransition})

	updated.Status = models.DraftStatusPublished
	require.NoError(t, f.repo.UpdateDraft(ctx, updated))

	back := models.DraftStatusDraft
	_, err = f.agent.Update(ctx, draft.ID, DraftPatch{Status: &back})
	assert.ErrorIs(t, err, &service.Error{Code: service.CodeInvalidTransition})

	renamed := "Renamed After Publish"
	got, err := f.agent.Update(ctx, draft.ID, DraftPatch{Title: &renamed, Status: &published})
	require.NoError(t, err)
	assert.Equal(t, "new-title", got.Slug, "published slug is stable")

	bogus := models.DraftStatus("trash")
	_, err = f.agent.Update(ctx, draft.ID, DraftPatch{Status: &bogus})
	assert.ErrorIs(t, err, &service.Error{Code: service.CodeInvalidStatus})
}

func TestGetDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	draft, err := f.agent.CreateManual(ctx, DraftInput{Title: "Temp"})
	require.NoError(t, err)

	got, err := f.agent.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Temp", got.Title)

	require.NoError(t, f.agent.Delete(ctx, draft.ID))
	_, err = f.agent.Get(ctx, draft.ID)
	assert.ErrorIs(t, err, &service.Error{Code: service.CodeNotFound})
}

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  ", ""},
		{"table", "| a |\n|---|\n| 1 |", "<table>"},
		{"raw html stripped", "<img src=x onerror=alert(1)>text", "text"},
		{"link kept", "[Go](https://go.dev)", `href="https://go.dev"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderMarkdown(tt.in)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.want)
			assert.NotContains(t, got, "onerror")
		})
	}
}
