package models

import "time"

// StyleGuide is the AI-derived description of the site's writing voice
type StyleGuide struct {
	Tone               string     `json:"tone"`
	SentenceStructure  string     `json:"sentenceStructure"`
	ParagraphLength    string     `json:"paragraphLength"`
	FormattingStyle    string     `json:"formattingStyle"`
	CustomInstructions string     `json:"customInstructions"`
	LastAnalyzed       *time.Time `json:"lastAnalyzed,omitempty"`
}

// IsEmpty returns true if no guideline has been set
func (g *StyleGuide) IsEmpty() bool {
	return g == nil || (g.Tone == "" && g.SentenceStructure == "" && g.ParagraphLength == "" &&
		g.FormattingStyle == "" && g.CustomInstructions == "")
}
