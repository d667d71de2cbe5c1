package models

import "time"

// ContentCluster groups subtopic articles around a pillar topic
type ContentCluster struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Topic     string        `gorm:"size:500;not null" json:"topic"`
	Items     []ClusterItem `gorm:"foreignKey:ClusterID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ContentCluster) TableName() string { return "clusters" }

// ClusterItem is one subtopic of a cluster, optionally promoted to an idea
type ClusterItem struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ClusterID uint        `gorm:"index;not null" json:"clusterId"`
	Title     string      `gorm:"size:500;not null" json:"title"`
	Keywords  StringSlice `gorm:"type:text" json:"keywords"`
	IdeaID    *uint       `gorm:"index" json:"ideaId,omitempty"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"createdAt"`
}

func (ClusterItem) TableName() string { return "cluster_items" }
