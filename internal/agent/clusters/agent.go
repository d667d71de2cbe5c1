package clusters

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
	"github.com/content-agent/pkg/logger"
)

const (
	DefaultItems = 5
	MaxItems     = 15
)

// Agent plans topic clusters around pillar topics
type Agent struct {
	repository storage.Repository
	generator  *ai.Generator
	activity   *activity.Log
	log        *logger.Logger
}

// NewAgent creates a clusters agent
func NewAgent(repo storage.Repository, gen *ai.Generator, act *activity.Log, log *logger.Logger) *Agent {
	return &Agent{
		repository: repo,
		generator:  gen,
		activity:   act,
		log:        log.WithComponent("clusters"),
	}
}

// Generate breaks a pillar topic into subtopic items
func (a *Agent) Generate(ctx context.Context, topic string, count int) (*models.ContentCluster, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, service.InvalidParam("topic is required")
	}
	if count <= 0 {
		count = DefaultItems
	}
	count = min(count, MaxItems)

	generated, err := a.generator.GenerateCluster(ctx, topic, count)
	if err != nil {
		return nil, service.AIError(err)
	}

	cluster := &models.ContentCluster{Topic: topic}
	seen := map[string]bool{textutil.TitleKey(topic): true}
	for _, g := range generated {
		if len(cluster.Items) == count {
			break
		}
		title := strings.TrimSpace(g.Title)
		key := textutil.TitleKey(title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		cluster.Items = append(cluster.Items, models.ClusterItem{
			Title:    title,
			Keywords: models.StringSlice(g.Keywords),
		})
	}
	if len(cluster.Items) == 0 {
		return nil, service.Wrap(errors.New("no usable subtopics"), service.CodeAIError, http.StatusBadGateway, "AI returned no subtopics")
	}

	if err := a.repository.CreateCluster(ctx, cluster); err != nil {
		return nil, fmt.Errorf("failed to save cluster: %w", err)
	}

	a.log.Info().
		Uint("cluster_id", cluster.ID).
		Str("topic", topic).
		Int("items", len(cluster.Items)).
		Msg("Cluster created")
	a.activity.Recordf(ctx, models.ActivityClusterCreated, models.IconLayers,
		"Cluster %q planned with %d subtopics", topic, len(cluster.Items))

	return cluster, nil
}

// List returns clusters with their items, newest first
func (a *Agent) List(ctx context.Context, limit, offset int) ([]*models.ContentCluster, error) {
	clusters, err := a.repository.ListClusters(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	return clusters, nil
}

// Get returns one cluster with its items
func (a *Agent) Get(ctx context.Context, id uint) (*models.ContentCluster, error) {
	cluster, err := a.repository.GetClusterByID(ctx, id)
	if err != nil {
		return nil, service.FromStorage(err, "cluster", id)
	}
	return cluster, nil
}

// Delete removes a cluster and its items. Promoted ideas stay.
func (a *Agent) Delete(ctx context.Context, id uint) error {
	if err := a.repository.DeleteCluster(ctx, id); err != nil {
		return service.FromStorage(err, "cluster", id)
	}
	a.log.Info().Uint("cluster_id", id).Msg("Cluster deleted")
	return nil
}

// PromoteToIdeas creates pending ideas for items not yet promoted
func (a *Agent) PromoteToIdeas(ctx context.Context, id uint) ([]*models.Idea, error) {
	cluster, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := a.repository.ListIdeaTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list idea titles: %w", err)
	}
	seen := textutil.KeySet(existing)

	ideas := make([]*models.Idea, 0, len(cluster.Items))
	for i := range cluster.Items {
		item := &cluster.Items[i]
		if item.IdeaID != nil {
			continue
		}
		if seen[textutil.TitleKey(item.Title)] {
			a.log.Debug().Str("title", item.Title).Msg("Idea already exists, skipping item")
			continue
		}

		idea := &models.Idea{
			Title:    item.Title,
			Keywords: item.Keywords,
			Status:   models.IdeaStatusPending,
			Source:   models.IdeaSourceAI,
		}
		if err := a.repository.PromoteClusterItem(ctx, item, idea); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				continue
			}
			return ideas, fmt.Errorf("failed to promote item %d: %w", item.ID, err)
		}
		seen[textutil.TitleKey(item.Title)] = true
		ideas = append(ideas, idea)
	}

	if len(ideas) > 0 {
		a.activity.Recordf(ctx, models.ActivityIdeaAdded, models.IconLayers,
			"Added %d ideas from cluster %q", len(ideas), cluster.Topic)
	}
	return ideas, nil
}
