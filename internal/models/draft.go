package models

import (
	"time"
)

// DraftStatus represents the current state of a draft
type DraftStatus string

const (
	DraftStatusDraft      DraftStatus = "draft"
	DraftStatusPublishing DraftStatus = "publishing" // claimed by a publish in flight
	DraftStatusPublished  DraftStatus = "published"
)

// FeaturedImage is the sourced image attached to a draft
type FeaturedImage struct {
	Provider    string `json:"provider"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	DataURI     string `json:"dataUri,omitempty"`
	Alt         string `json:"alt"`
	Attribution string `json:"attribution,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Draft is an idea expanded into full article content, pending publish.
// Once published it is the site post.
type Draft struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	IdeaID          *uint          `gorm:"index" json:"ideaId,omitempty"` // Nullable for manual drafts
	Title           string         `gorm:"size:500;not null" json:"title"`
	Slug            string         `gorm:"size:200;index" json:"slug"`
	Content         string         `gorm:"type:text" json:"content"` // sanitized HTML
	MetaTitle       string         `gorm:"size:255" json:"metaTitle"`
	MetaDescription string         `gorm:"size:500" json:"metaDescription"`
	FocusKeywords   StringSlice    `gorm:"type:text" json:"focusKeywords"`
	FeaturedImage   *FeaturedImage `gorm:"serializer:json;type:text" json:"featuredImage,omitempty"`
	Status          DraftStatus    `gorm:"size:20;default:'draft';index" json:"status"`
	ScheduledFor    *time.Time     `gorm:"index" json:"scheduledFor,omitempty"`
	PublishedAt     *time.Time     `json:"publishedAt,omitempty"`
	RemoteID        int64          `json:"remoteId,omitempty"`
	RemoteURL       string         `gorm:"size:500" json:"remoteUrl,omitempty"`
	ErrorMessage    string         `gorm:"type:text" json:"errorMessage,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName mirrors the site's post table
func (Draft) TableName() string { return "posts" }

// IsPublished returns true once the draft has become a site post
func (d *Draft) IsPublished() bool {
	return d.Status == DraftStatusPublished
}

// IsDue returns true if the draft is scheduled at or before now
func (d *Draft) IsDue(now time.Time) bool {
	return d.Status == DraftStatusDraft && d.ScheduledFor != nil && !d.ScheduledFor.After(now)
}
