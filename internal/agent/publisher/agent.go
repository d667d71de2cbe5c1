package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/content-agent/internal/activity"
	"github.com/content-agent/internal/media"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/service"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/internal/tracker"
	"github.com/content-agent/internal/wordpress"
	"github.com/content-agent/pkg/logger"
)

// Site is the remote WordPress site posts are pushed to
type Site interface {
	UploadMedia(ctx context.Context, filename, mimeType string, data []byte, alt string) (*wordpress.Media, error)
	CreatePost(ctx context.Context, post wordpress.PostRequest) (*wordpress.Post, error)
}

// SettingsLoader provides the current settings
type SettingsLoader interface {
	Load(ctx context.Context) (models.AppSettings, error)
}

// Agent publishes and schedules drafts
type Agent struct {
	repository storage.Repository
	site       Site
	settings   SettingsLoader
	tracker    tracker.Tracker
	activity   *activity.Log
	log        *logger.Logger
	now        func() time.Time
}

// NewAgent creates a publisher. With a nil site the local record is the
// published post.
func NewAgent(
	repo storage.Repository,
	site Site,
	settings SettingsLoader,
	tr tracker.Tracker,
	act *activity.Log,
	log *logger.Logger,
) *Agent {
	return &Agent{
		repository: repo,
		site:       site,
		settings:   settings,
		tracker:    tr,
		activity:   act,
		log:        log.WithComponent("publisher"),
		now:        time.Now,
	}
}

// Publish makes a draft a live post
func (a *Agent) Publish(ctx context.Context, draftID uint) (*models.Draft, error) {
	draft, err := a.repository.GetDraftByID(ctx, draftID)
	if err != nil {
		return nil, service.FromStorage(err, "draft", draftID)
	}
	if draft.IsPublished() {
		return nil, alreadyPublished(draftID)
	}

	log := a.log.WithDraftID(draftID)

	if err := a.repository.ClaimDraftForPublish(ctx, draftID); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, service.New(service.CodeAlreadyPublished, http.StatusConflict,
				"draft %d is already published or being published", draftID)
		}
		return nil, fmt.Errorf("failed to claim draft: %w", err)
	}
	log.Info().Str("title", draft.Title).Msg("Publishing draft")

	if a.site != nil {
		if err := a.push(ctx, draft); err != nil {
			// Saving the row with its loaded draft status releases the claim.
			draft.ErrorMessage = err.Error()
			if uerr := a.repository.UpdateDraft(ctx, draft); uerr != nil {
				log.Warn().Err(uerr).Msg("Failed to record publish error, draft left in publishing")
			}
			log.Error().Err(err).Msg("Failed to publish draft")
			a.activity.Recordf(ctx, models.ActivityError, models.IconAlert, "Publishing %q failed: %v", draft.Title, err)
			return nil, service.Wrap(err, service.CodeUpstream, http.StatusBadGateway, "failed to publish to WordPress")
		}
	}

	now := a.now().UTC()
	draft.Status = models.DraftStatusPublished
	draft.PublishedAt = &now
	draft.ScheduledFor = nil
	draft.ErrorMessage = ""

	if err := a.repository.UpdateDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to save published draft: %w", err)
	}

	log.Info().
		Int64("remote_id", draft.RemoteID).
		Str("remote_url", draft.RemoteURL).
		Msg("Draft published successfully")
	a.activity.Recordf(ctx, models.ActivityDraftPublished, models.IconSend, "Published %q", draft.Title)

	if a.tracker != nil {
		if err := a.tracker.DraftPublished(ctx, draft); err != nil {
			log.Warn().Err(err).Msg("Failed to track publish")
		}
	}

	return draft, nil
}

// push creates the post on the remote site and records its id and URL
func (a *Agent) push(ctx context.Context, draft *models.Draft) error {
	settings, err := a.settings.Load(ctx)
	if err != nil {
		return err
	}

	var featuredMedia int64
	if img := draft.FeaturedImage; img != nil && img.DataURI != "" {
		featuredMedia = a.uploadImage(ctx, draft, img)
	}

	metaTitle := draft.MetaTitle
	if metaTitle == "" {
		metaTitle = draft.Title
	}

	post, err := a.site.CreatePost(ctx, wordpress.PostRequest{
		Title:         draft.Title,
		Content:       draft.Content,
		Slug:          draft.Slug,
		Excerpt:       draft.MetaDescription,
		FeaturedMedia: featuredMedia,
		Meta:          wordpress.SEOMeta(settings.SEOPlugin, metaTitle, draft.MetaDescription, draft.FocusKeywords),
	})
	if err != nil {
		return err
	}

	draft.RemoteID = post.ID
	draft.RemoteURL = post.Link
	return nil
}

// uploadImage uploads the featured image. Failures publish without one.
func (a *Agent) uploadImage(ctx context.Context, draft *models.Draft, img *models.FeaturedImage) int64 {
	data, mimeType, err := media.DecodeDataURI(img.DataURI)
	if err == nil {
		var uploaded *wordpress.Media
		if uploaded, err = a.site.UploadMedia(ctx, imageFilename(draft), mimeType, data, img.Alt); err == nil {
			return uploaded.ID
		}
	}
	a.log.WithDraftID(draft.ID).Warn().Err(err).Msg("Featured image upload failed, publishing without it")
	return 0
}

// Schedule sets a future publish time for a draft
func (a *Agent) Schedule(ctx context.Context, draftID uint, at time.Time) (*models.Draft, error) {
	if at.IsZero() || !at.After(a.now()) {
		return nil, service.New(service.CodeInvalidDate, http.StatusBadRequest, "scheduled time must be in the future")
	}

	draft, err := a.repository.GetDraftByID(ctx, draftID)
	if err != nil {
		return nil, service.FromStorage(err, "draft", draftID)
	}
	if draft.Status != models.DraftStatusDraft {
		return nil, alreadyPublished(draftID)
	}

	at = at.UTC()
	draft.ScheduledFor = &at
	if err := a.repository.UpdateDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to schedule draft: %w", err)
	}

	a.log.WithDraftID(draftID).Info().Time("scheduled_for", at).Msg("Draft scheduled")
	a.activity.Recordf(ctx, models.ActivityDraftScheduled, models.IconClock,
		"%q scheduled for %s", draft.Title, at.Format(time.RFC3339))

	if a.tracker != nil {
		if err := a.tracker.DraftScheduled(ctx, draft); err != nil {
			a.log.Warn().Err(err).Uint("draft_id", draftID).Msg("Failed to track schedule")
		}
	}

	return draft, nil
}

// ProcessScheduled publishes every due draft, oldest first. Failures are
// collected and do not stop the remaining drafts.
func (a *Agent) ProcessScheduled(ctx context.Context) (int, []error) {
	drafts, err := a.repository.GetDueDrafts(ctx, a.now())
	if err != nil {
		return 0, []error{fmt.Errorf("failed to load due drafts: %w", err)}
	}

	var errs []error
	published := 0

	for _, draft := range drafts {
		if _, err := a.Publish(ctx, draft.ID); err != nil {
			errs = append(errs, fmt.Errorf("draft %d: %w", draft.ID, err))
			continue
		}
		published++
	}

	if len(drafts) > 0 {
		a.log.Info().
			Int("due", len(drafts)).
			Int("published", published).
			Int("failed", len(errs)).
			Msg("Processed scheduled drafts")
	}

	return published, errs
}

func imageFilename(draft *models.Draft) string {
	name := draft.Slug
	if name == "" {
		name = fmt.Sprintf("draft-%d", draft.ID)
	}
	return name + ".jpg"
}

func alreadyPublished(id uint) error {
	return service.New(service.CodeAlreadyPublished, http.StatusConflict, "draft %d is already published", id)
}
