package storage

import (
	"context"
	"time"

	"github.com/content-agent/internal/models"
)

// Repository defines the interface for data persistence
type Repository interface {
	// Idea operations
	CreateIdea(ctx context.Context, idea *models.Idea) error
	GetIdeaByID(ctx context.Context, id uint) (*models.Idea, error)
	ListIdeas(ctx context.Context, filter IdeaFilter) ([]*models.Idea, error)
	ListIdeaTitles(ctx context.Context) ([]string, error)
	UpdateIdea(ctx context.Context, idea *models.Idea) error
	DeleteIdea(ctx context.Context, id uint) error

	// Draft operations
	CreateDraft(ctx context.Context, draft *models.Draft) error
	CreateDraftForIdea(ctx context.Context, draft *models.Draft, idea *models.Idea) error
	GetDraftByID(ctx context.Context, id uint) (*models.Draft, error)
	ListDrafts(ctx context.Context, filter DraftFilter) ([]*models.Draft, error)
	UpdateDraft(ctx context.Context, draft *models.Draft) error
	DeleteDraft(ctx context.Context, id uint) error
	GetDueDrafts(ctx context.Context, before time.Time) ([]*models.Draft, error)
	ClaimDraftForPublish(ctx context.Context, id uint) error

	// Cluster operations
	CreateCluster(ctx context.Context, cluster *models.ContentCluster) error
	GetClusterByID(ctx context.Context, id uint) (*models.ContentCluster, error)
	ListClusters(ctx context.Context, limit, offset int) ([]*models.ContentCluster, error)
	DeleteCluster(ctx context.Context, id uint) error
	PromoteClusterItem(ctx context.Context, item *models.ClusterItem, idea *models.Idea) error

	// Activity log operations
	CreateActivity(ctx context.Context, entry *models.ActivityLog) error
	ListActivity(ctx context.Context, limit int) ([]*models.ActivityLog, error)

	// Option operations. Values are stored as JSON.
	GetOption(ctx context.Context, name string, dst any) (bool, error)
	SetOption(ctx context.Context, name string, value any) error

	// OAuth token operations
	SaveToken(ctx context.Context, token *models.OAuthToken) error
	GetToken(ctx context.Context, provider string) (*models.OAuthToken, error)
	DeleteToken(ctx context.Context, provider string) error

	// Maintenance
	Close() error
	Migrate() error
}

// IdeaFilter defines filtering options for ideas
type IdeaFilter struct {
	Status    *models.IdeaStatus
	Source    *models.IdeaSource
	Limit     int
	Offset    int
	OrderBy   string // "created_at", "title"
	OrderDesc bool
}

// DraftFilter defines filtering options for drafts
type DraftFilter struct {
	Status    *models.DraftStatus
	IdeaID    *uint
	Limit     int
	Offset    int
	OrderBy   string // "created_at", "published_at", "scheduled_for"
	OrderDesc bool
}

// DefaultIdeaFilter returns a filter with sensible defaults
func DefaultIdeaFilter() IdeaFilter {
	return IdeaFilter{
		Limit:     50,
		OrderBy:   "created_at",
		OrderDesc: true,
	}
}

// DefaultDraftFilter returns a filter with sensible defaults
func DefaultDraftFilter() DraftFilter {
	return DraftFilter{
		Limit:     50,
		OrderBy:   "created_at",
		OrderDesc: true,
	}
}
