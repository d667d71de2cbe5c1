package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

var _ storage.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.Idea{},
		&models.Draft{},
		&models.ContentCluster{},
		&models.ClusterItem{},
		&models.ActivityLog{},
		&models.Option{},
		&models.OAuthToken{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// order applies the column ordering with id as a tie breaker, since rows
// created in one batch can share a timestamp.
func order(query *gorm.DB, col string, desc bool) *gorm.DB {
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	return query.Order(col + dir).Order("id" + dir)
}

func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// Idea operations

func (r *Repository) CreateIdea(ctx context.Context, idea *models.Idea) error {
	return r.db.WithContext(ctx).Create(idea).Error
}

func (r *Repository) GetIdeaByID(ctx context.Context, id uint) (*models.Idea, error) {
	var idea models.Idea
	if err := r.db.WithContext(ctx).First(&idea, id).Error; err != nil {
		return nil, err
	}
	return &idea, nil
}

func (r *Repository) ListIdeas(ctx context.Context, filter storage.IdeaFilter) ([]*models.Idea, error) {
	var ideas []*models.Idea
	query := r.db.WithContext(ctx).Model(&models.Idea{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Source != nil {
		query = query.Where("source = ?", *filter.Source)
	}

	orderCol := "created_at"
	if filter.OrderBy != "" {
		orderCol = filter.OrderBy
	}
	query = order(query, orderCol, filter.OrderDesc)
	query = paginate(query, filter.Limit, filter.Offset)

	if err := query.Find(&ideas).Error; err != nil {
		return nil, err
	}
	return ideas, nil
}

func (r *Repository) ListIdeaTitles(ctx context.Context) ([]string, error) {
	var titles []string
	if err := r.db.WithContext(ctx).Model(&models.Idea{}).Order("id ASC").Pluck("title", &titles).Error; err != nil {
		return nil, err
	}
	return titles, nil
}

func (r *Repository) UpdateIdea(ctx context.Context, idea *models.Idea) error {
	return r.db.WithContext(ctx).Save(idea).Error
}

func (r *Repository) DeleteIdea(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Idea{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Draft operations

func (r *Repository) CreateDraft(ctx context.Context, draft *models.Draft) error {
	return r.db.WithContext(ctx).Create(draft).Error
}

// CreateDraftForIdea inserts the draft and links the idea to it atomically.
// The idea row is only updated while it can still be drafted, so two
// concurrent requests cannot both draft the same idea.
func (r *Repository) CreateDraftForIdea(ctx context.Context, draft *models.Draft, idea *models.Idea) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		draft.IdeaID = &idea.ID
		if err := tx.Create(draft).Error; err != nil {
			return fmt.Errorf("insert draft: %w", err)
		}

		res := tx.Model(&models.Idea{}).
			Where("id = ? AND status IN ?", idea.ID, []models.IdeaStatus{models.IdeaStatusPending, models.IdeaStatusApproved}).
			Updates(map[string]any{
				"status":     models.IdeaStatusDraftCreated,
				"post_id":    draft.ID,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("link idea: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return storage.ErrConflict
		}

		idea.Status = models.IdeaStatusDraftCreated
		idea.PostID = &draft.ID
		return nil
	})
}

func (r *Repository) GetDraftByID(ctx context.Context, id uint) (*models.Draft, error) {
	var draft models.Draft
	if err := r.db.WithContext(ctx).First(&draft, id).Error; err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *Repository) ListDrafts(ctx context.Context, filter storage.DraftFilter) ([]*models.Draft, error) {
	var drafts []*models.Draft
	query := r.db.WithContext(ctx).Model(&models.Draft{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IdeaID != nil {
		query = query.Where("idea_id = ?", *filter.IdeaID)
	}

	orderCol := "created_at"
	if filter.OrderBy != "" {
		orderCol = filter.OrderBy
	}
	query = order(query, orderCol, filter.OrderDesc)
	query = paginate(query, filter.Limit, filter.Offset)

	if err := query.Find(&drafts).Error; err != nil {
		return nil, err
	}
	return drafts, nil
}

func (r *Repository) UpdateDraft(ctx context.Context, draft *models.Draft) error {
	return r.db.WithContext(ctx).Save(draft).Error
}

func (r *Repository) DeleteDraft(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Draft{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) GetDueDrafts(ctx context.Context, before time.Time) ([]*models.Draft, error) {
	var drafts []*models.Draft
	if err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?", models.DraftStatusDraft, before.UTC()).
		Order("scheduled_for ASC").
		Order("id ASC").
		Find(&drafts).Error; err != nil {
		return nil, err
	}
	return drafts, nil
}

// ClaimDraftForPublish moves a draft from draft to publishing. Only one
// caller wins the claim; the others get ErrConflict. The claim ends with the
// next UpdateDraft of the row.
func (r *Repository) ClaimDraftForPublish(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Draft{}).
		Where("id = ? AND status = ?", id, models.DraftStatusDraft).
		Updates(map[string]any{
			"status":     models.DraftStatusPublishing,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrConflict
	}
	return nil
}

// Cluster operations

func (r *Repository) CreateCluster(ctx context.Context, cluster *models.ContentCluster) error {
	return r.db.WithContext(ctx).Create(cluster).Error
}

func (r *Repository) GetClusterByID(ctx context.Context, id uint) (*models.ContentCluster, error) {
	var cluster models.ContentCluster
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&cluster, id).Error; err != nil {
		return nil, err
	}
	return &cluster, nil
}

func (r *Repository) ListClusters(ctx context.Context, limit, offset int) ([]*models.ContentCluster, error) {
	var clusters []*models.ContentCluster
	query := r.db.WithContext(ctx).Model(&models.ContentCluster{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
	query = order(query, "created_at", true)
	query = paginate(query, limit, offset)

	if err := query.Find(&clusters).Error; err != nil {
		return nil, err
	}
	return clusters, nil
}

// DeleteCluster removes the cluster and its items. SQLite only enforces
// ON DELETE CASCADE with the foreign_keys pragma, so items go explicitly.
func (r *Repository) DeleteCluster(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cluster_id = ?", id).Delete(&models.ClusterItem{}).Error; err != nil {
			return fmt.Errorf("delete cluster items: %w", err)
		}
		res := tx.Delete(&models.ContentCluster{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// PromoteClusterItem creates the idea and links the cluster item to it
func (r *Repository) PromoteClusterItem(ctx context.Context, item *models.ClusterItem, idea *models.Idea) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(idea).Error; err != nil {
			return fmt.Errorf("insert idea: %w", err)
		}
		res := tx.Model(&models.ClusterItem{}).
			Where("id = ? AND idea_id IS NULL", item.ID).
			Update("idea_id", idea.ID)
		if res.Error != nil {
			return fmt.Errorf("link cluster item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return storage.ErrConflict
		}
		item.IdeaID = &idea.ID
		return nil
	})
}

// Activity log operations

func (r *Repository) CreateActivity(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) ListActivity(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	var entries []*models.ActivityLog
	query := order(r.db.WithContext(ctx).Model(&models.ActivityLog{}), "created_at", true)
	query = paginate(query, limit, 0)
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Option operations

func (r *Repository) GetOption(ctx context.Context, name string, dst any) (bool, error) {
	var opt models.Option
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(opt.Value), dst); err != nil {
		return true, fmt.Errorf("decode option %s: %w", name, err)
	}
	return true, nil
}

func (r *Repository) SetOption(ctx context.Context, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode option %s: %w", name, err)
	}

	// Upsert - update if exists, create if not
	opt := models.Option{Name: name, Value: string(raw)}
	var existing models.Option
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err == nil {
		opt.ID = existing.ID
	}
	return r.db.WithContext(ctx).Save(&opt).Error
}

// OAuth token operations

func (r *Repository) SaveToken(ctx context.Context, token *models.OAuthToken) error {
	// Upsert - update if exists, create if not
	var existing models.OAuthToken
	if err := r.db.WithContext(ctx).Where("provider = ?", token.Provider).First(&existing).Error; err == nil {
		token.ID = existing.ID
		token.CreatedAt = existing.CreatedAt
	}
	return r.db.WithContext(ctx).Save(token).Error
}

func (r *Repository) GetToken(ctx context.Context, provider string) (*models.OAuthToken, error) {
	var token models.OAuthToken
	if err := r.db.WithContext(ctx).Where("provider = ?", provider).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *Repository) DeleteToken(ctx context.Context, provider string) error {
	return r.db.WithContext(ctx).Where("provider = ?", provider).Delete(&models.OAuthToken{}).Error
}
