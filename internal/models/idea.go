package models

import (
	"time"
)

// IdeaStatus represents the current state of a content idea
type IdeaStatus string

const (
	IdeaStatusPending      IdeaStatus = "pending"
	IdeaStatusApproved     IdeaStatus = "approved"
	IdeaStatusDraftCreated IdeaStatus = "draft_created"
	IdeaStatusRejected     IdeaStatus = "rejected"
)

// Valid reports whether s is one of the four idea states
func (s IdeaStatus) Valid() bool {
	switch s {
	case IdeaStatusPending, IdeaStatusApproved, IdeaStatusDraftCreated, IdeaStatusRejected:
		return true
	}
	return false
}

// ideaTransitions lists the status changes a user may make. Rejected ideas
// can only be restored to pending. draft_created is set only when a draft is
// created and is terminal.
var ideaTransitions = map[IdeaStatus][]IdeaStatus{
	IdeaStatusPending:      {IdeaStatusApproved, IdeaStatusRejected},
	IdeaStatusApproved:     {IdeaStatusRejected},
	IdeaStatusRejected:     {IdeaStatusPending},
	IdeaStatusDraftCreated: nil,
}

// CanTransition reports whether an idea may move from s to next
func (s IdeaStatus) CanTransition(next IdeaStatus) bool {
	for _, allowed := range ideaTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IdeaSource records where an idea came from
type IdeaSource string

const (
	IdeaSourceAI            IdeaSource = "ai_generated"
	IdeaSourceManual        IdeaSource = "manual"
	IdeaSourceSearchConsole IdeaSource = "gsc_integration"
)

// Idea is a proposed article topic awaiting approval
type Idea struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Title     string      `gorm:"size:500;not null" json:"title"`
	Keywords  StringSlice `gorm:"type:text" json:"keywords"`
	Status    IdeaStatus  `gorm:"size:20;default:'pending';index" json:"status"`
	Source    IdeaSource  `gorm:"size:30;default:'ai_generated';index" json:"source"`
	PostID    *uint       `gorm:"index" json:"postId,omitempty"` // Draft created from this idea
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName keeps the table name stable across renames of the struct
func (Idea) TableName() string { return "ideas" }

// CanDraft returns true if a draft may still be created from the idea
func (i *Idea) CanDraft() bool {
	return i.Status == IdeaStatusPending || i.Status == IdeaStatusApproved
}
