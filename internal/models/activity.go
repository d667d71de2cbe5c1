package models

import "time"

// Activity types recorded in the audit trail
const (
	ActivityIdeasGenerated  = "ideas_generated"
	ActivityIdeaAdded       = "idea_added"
	ActivityIdeaStatus      = "idea_status_changed"
	ActivityIdeaDeleted     = "idea_deleted"
	ActivityDraftCreated    = "draft_created"
	ActivityDraftUpdated    = "draft_updated"
	ActivityDraftDeleted    = "draft_deleted"
	ActivityDraftScheduled  = "draft_scheduled"
	ActivityDraftPublished  = "draft_published"
	ActivityImageFailed     = "image_failed"
	ActivityStyleAnalyzed   = "style_analyzed"
	ActivityStyleUpdated    = "style_updated"
	ActivitySettingsUpdated = "settings_updated"
	ActivityClusterCreated  = "cluster_created"
	ActivityLicenseVerified = "license_verified"
	ActivityAutomationRun   = "automation_run"
	ActivityError           = "error"
)

// Icon tags understood by the admin SPA
const (
	IconLightbulb = "lightbulb"
	IconFile      = "file-text"
	IconSend      = "send"
	IconClock     = "clock"
	IconPalette   = "palette"
	IconSettings  = "settings"
	IconCheck     = "check"
	IconTrash     = "trash"
	IconImage     = "image"
	IconLayers    = "layers"
	IconKey       = "key"
	IconBot       = "bot"
	IconAlert     = "alert-triangle"
)

// ActivityLog is one append-only audit trail entry
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"size:50;index;not null" json:"type"`
	Details   string    `gorm:"type:text" json:"details"`
	Icon      string    `gorm:"size:50" json:"icon"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (ActivityLog) TableName() string { return "logs" }
