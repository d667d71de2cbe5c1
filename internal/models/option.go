package models

import "time"

// Option names for singleton records
const (
	OptionSettings        = "aca_settings"
	OptionStyleGuide      = "aca_style_guide"
	OptionAutomationState = "aca_automation_state"
	OptionLicense         = "aca_license"
)

// Option is a named, JSON-serialized singleton row
type Option struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:191;uniqueIndex;not null" json:"name"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Option) TableName() string { return "options" }

// AutomationState remembers when each automated job last ran
type AutomationState struct {
	LastIdeaRun       *time.Time `json:"lastIdeaRun,omitempty"`
	LastFullAutoRun   *time.Time `json:"lastFullAutoRun,omitempty"`
	LastStyleAnalysis *time.Time `json:"lastStyleAnalysis,omitempty"`
	LastTick          *time.Time `json:"lastTick,omitempty"`
}

// License states
const (
	LicenseActive   = "active"
	LicenseInactive = "inactive"
)

// LicenseStatus is the stored result of the last verification
type LicenseStatus struct {
	Status     string     `json:"status"`
	KeySuffix  string     `json:"keySuffix,omitempty"`
	Email      string     `json:"email,omitempty"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

// IsActive returns true if the last verification succeeded
func (l *LicenseStatus) IsActive() bool {
	return l != nil && l.Status == LicenseActive
}
