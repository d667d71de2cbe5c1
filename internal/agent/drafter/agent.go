package drafter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/ai"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/internal/textutil"
	"github.com/content-agent/internal/tracker"
	"github.com/content-agent/pkg/logger"
)

// ImageFetcher finds a featured image for a query
type ImageFetcher interface {
	Fetch(ctx context.Context, settings models.AppSettings, query, alt string) (*models.FeaturedImage, error)
}

// SettingsLoader provides the current settings
type SettingsLoader interface {
	Load(ctx context.Context) (models.AppSettings, error)
}

// StyleGuides provides the current style guide
type StyleGuides interface {
	Get(ctx context.Context) (*models.StyleGuide, error)
}

// Agent turns ideas into drafts and manages them
type Agent struct {
	repository storage.Repository
	generator  *ai.Generator
	images     ImageFetcher
	settings   SettingsLoader
	styles     StyleGuides
	tracker    tracker.Tracker
	activity   *activity.Log
	log        *logger.Logger
}

// NewAgent creates a drafter. images, styles and tr may be nil.
func NewAgent(
	repo storage.Repository,
	gen *ai.Generator,
	images ImageFetcher,
	settings SettingsLoader,
	styles StyleGuides,
	tr tracker.Tracker,
	act *activity.Log,
	log *logger.Logger,
) *Agent {
	return &Agent{
		repository: repo,
		generator:  gen,
		images:     images,
		settings:   settings,
		styles:     styles,
		tracker:    tr,
		activity:   act,
		log:        log.WithComponent("drafter"),
	}
}

// CreateFromIdea writes a full draft for a pending or approved idea
func (a *Agent) CreateFromIdea(ctx context.Context, ideaID uint) (*models.Draft, error) {
	idea, err := a.repository.GetIdeaByID(ctx, ideaID)
	if err != nil {
		return nil, service.FromStorage(err, "idea", ideaID)
	}
	if !idea.CanDraft() {
		return nil, service.InvalidTransition("idea %d is %s and cannot be drafted", ideaID, idea.Status)
	}

	settings, err := a.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	var guide *models.StyleGuide
	if a.styles != nil {
		if guide, err = a.styles.Get(ctx); err != nil {
			return nil, err
		}
	}

	log := a.log.WithIdeaID(ideaID)
	log.Info().Str("title", idea.Title).Msg("Generating draft")

	generated, err := a.generator.GenerateDraft(ctx, idea.Title, idea.Keywords, guide)
	if err != nil {
		return nil, service.AIError(err)
	}

	content, err := RenderMarkdown(generated.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to render draft: %w", err)
	}

	draft := &models.Draft{
		IdeaID:          &idea.ID,
		Title:           strings.TrimSpace(generated.Title),
		Slug:            textutil.Slugify(generated.Title),
		Content:         content,
		MetaTitle:       generated.MetaTitle,
		MetaDescription: generated.MetaDescription,
		FocusKeywords:   models.StringSlice(generated.FocusKeywords),
		Status:          models.DraftStatusDraft,
	}
	draft.FeaturedImage = a.featuredImage(ctx, settings, generated, draft.Title)

	if err := a.repository.CreateDraftForIdea(ctx, draft, idea); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, service.InvalidTransition("idea %d was drafted concurrently", ideaID)
		}
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	log.WithDraftID(draft.ID).Info().
		Bool("has_image", draft.FeaturedImage != nil).
		Msg("Draft created")
	a.activity.Recordf(ctx, models.ActivityDraftCreated, models.IconFile, "Draft %q created", draft.Title)
	a.track(ctx, draft, idea)

	return draft, nil
}

// featuredImage sources an image; any failure leaves the draft without one
func (a *Agent) featuredImage(ctx context.Context, settings models.AppSettings, generated *ai.GeneratedDraft, title string) *models.FeaturedImage {
	if a.images == nil {
		return nil
	}

	query := firstNonEmpty(generated.ImageQuery, title)
	alt := firstNonEmpty(generated.ImageAlt, title)

	img, err := a.images.Fetch(ctx, settings, query, alt)
	if err != nil {
		a.log.Warn().Err(err).Str("query", query).Msg("Featured image failed, continuing without image")
		_, code, msg := service.StatusOf(err)
		a.activity.Recordf(ctx, models.ActivityImageFailed, models.IconImage,
			"No featured image for %q (%s: %s)", title, code, msg)
		return nil
	}
	return img
}

// DraftInput is a manually written draft
type DraftInput struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	FocusKeywords   []string `json:"focusKeywords"`
}

// CreateManual stores a draft that did not come from an idea
func (a *Agent) CreateManual(ctx context.Context, in DraftInput) (*models.Draft, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, service.New(service.CodeInvalidTitle, http.StatusBadRequest, "title is required")
	}

	draft := &models.Draft{
		Title:           title,
		Slug:            textutil.Slugify(title),
		Content:         SanitizeHTML(in.Content),
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		FocusKeywords:   models.StringSlice(in.FocusKeywords),
		Status:          models.DraftStatusDraft,
	}
	if draft.FocusKeywords == nil {
		draft.FocusKeywords = models.StringSlice{}
	}

	if err := a.repository.CreateDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	a.activity.Recordf(ctx, models.ActivityDraftCreated, models.IconFile, "Draft %q created manually", draft.Title)
	a.track(ctx, draft, nil)
	return draft, nil
}

// List returns drafts matching the filter
func (a *Agent) List(ctx context.Context, filter storage.DraftFilter) ([]*models.Draft, error) {
	drafts, err := a.repository.ListDrafts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return drafts, nil
}

// Get returns one draft
func (a *Agent) Get(ctx context.Context, id uint) (*models.Draft, error) {
	draft, err := a.repository.GetDraftByID(ctx, id)
	if err != nil {
		return nil, service.FromStorage(err, "draft", id)
	}
	return draft, nil
}

// DraftPatch holds the editable fields; nil fields are left unchanged
type DraftPatch struct {
	Title           *string             `json:"title"`
	Content         *string             `json:"content"`
	MetaTitle       *string             `json:"metaTitle"`
	MetaDescription *string             `json:"metaDescription"`
	FocusKeywords   *[]string           `json:"focusKeywords"`
	Status          *models.DraftStatus `json:"status"`
}

// Update applies an edit. Status can only be restated; publishing goes
// through the publisher and a published draft never returns to draft.
func (a *Agent) Update(ctx context.Context, id uint, patch DraftPatch) (*models.Draft, error) {
	draft, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Status == models.DraftStatusPublishing {
		return nil, service.New(service.CodeAlreadyPublished, http.StatusConflict, "draft %d is being published", id)
	}

	if patch.Status != nil && *patch.Status != draft.Status {
		switch *patch.Status {
		case models.DraftStatusDraft, models.DraftStatusPublishing, models.DraftStatusPublished:
			return nil, service.InvalidTransition("draft %d cannot move from %s to %s", id, draft.Status, *patch.Status)
		default:
			return nil, service.New(service.CodeInvalidStatus, http.StatusBadRequest, "unknown draft status %q", *patch.Status)
		}
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, service.New(service.CodeInvalidTitle, http.StatusBadRequest, "title cannot be empty")
		}
		draft.Title = title
		if !draft.IsPublished() {
			draft.Slug = textutil.Slugify(title)
		}
	}
	if patch.Content != nil {
		draft.Content = SanitizeHTML(*patch.Content)
	}
	if patch.MetaTitle != nil {
		draft.MetaTitle = *patch.MetaTitle
	}
	if patch.MetaDescription != nil {
		draft.MetaDescription = *patch.MetaDescription
	}
	if patch.FocusKeywords != nil {
		draft.FocusKeywords = models.StringSlice(*patch.FocusKeywords)
	}

	if err := a.repository.UpdateDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}

	a.activity.Recordf(ctx, models.ActivityDraftUpdated, models.IconFile, "Draft %q updated", draft.Title)
	return draft, nil
}

// Delete removes a draft
func (a *Agent) Delete(ctx context.Context, id uint) error {
	draft, err := a.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := a.repository.DeleteDraft(ctx, id); err != nil {
		return service.FromStorage(err, "draft", id)
	}
	a.activity.Recordf(ctx, models.ActivityDraftDeleted, models.IconTrash, "Draft %q deleted", draft.Title)
	return nil
}

func (a *Agent) track(ctx context.Context, draft *models.Draft, idea *models.Idea) {
	if a.tracker == nil {
		return
	}
	if err := a.tracker.DraftCreated(ctx, draft, idea); err != nil {
		a.log.Warn().Err(err).Uint("draft_id", draft.ID).Msg("Failed to track draft")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
