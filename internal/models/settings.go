package models

import (
	"fmt"
	"time"
)

// AutomationMode controls how much of the pipeline runs unattended
type AutomationMode string

const (
	ModeManual        AutomationMode = "manual"
	ModeSemiAutomatic AutomationMode = "semi-automatic"
	ModeFullAutomatic AutomationMode = "full-automatic"
)

// Image providers
const (
	ImageProviderPexels   = "pexels"
	ImageProviderUnsplash = "unsplash"
	ImageProviderPixabay  = "pixabay"
	ImageProviderAI       = "ai"
	ImageProviderNone     = "none"
)

// AI image styles
const (
	ImageStylePhotorealistic = "photorealistic"
	ImageStyleDigitalArt     = "digital_art"
)

// SEO plugin integrations
const (
	SEOPluginNone     = "none"
	SEOPluginYoast    = "yoast"
	SEOPluginRankMath = "rank_math"
)

// Frequencies
const (
	FrequencyManual  = "manual"
	FrequencyHourly  = "hourly"
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// FrequencyInterval returns the interval for a named frequency; manual and
// unknown values return 0.
func FrequencyInterval(freq string) time.Duration {
	switch freq {
	case FrequencyHourly:
		return time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// AppSettings is the singleton configuration record edited from the admin SPA
type AppSettings struct {
	Mode                    AutomationMode `json:"mode"`
	AutoPublish             bool           `json:"autoPublish"`
	ImageSourceProvider     string         `json:"imageSourceProvider"`
	AIImageStyle            string         `json:"aiImageStyle"`
	PexelsAPIKey            string         `json:"pexelsApiKey"`
	UnsplashAPIKey          string         `json:"unsplashApiKey"`
	PixabayAPIKey           string         `json:"pixabayApiKey"`
	OpenAIAPIKey            string         `json:"openaiApiKey"`
	SEOPlugin               string         `json:"seoPlugin"`
	SemiAutoIdeaFrequency   string         `json:"semiAutoIdeaFrequency"`
	SemiAutoIdeaCount       int            `json:"semiAutoIdeaCount"`
	FullAutoDailyPostCount  int            `json:"fullAutoDailyPostCount"`
	AnalyzeContentFrequency string         `json:"analyzeContentFrequency"`
	SearchConsoleSiteURL    string         `json:"searchConsoleSiteUrl"`
}

// DefaultSettings returns the settings used before anything is saved
func DefaultSettings() AppSettings {
	return AppSettings{
		Mode:                    ModeManual,
		AutoPublish:             false,
		ImageSourceProvider:     ImageProviderPexels,
		AIImageStyle:            ImageStylePhotorealistic,
		SEOPlugin:               SEOPluginNone,
		SemiAutoIdeaFrequency:   FrequencyWeekly,
		SemiAutoIdeaCount:       5,
		FullAutoDailyPostCount:  1,
		AnalyzeContentFrequency: FrequencyManual,
	}
}

// APIKeyFor returns the stored key for an image provider
func (s *AppSettings) APIKeyFor(provider string) string {
	switch provider {
	case ImageProviderPexels:
		return s.PexelsAPIKey
	case ImageProviderUnsplash:
		return s.UnsplashAPIKey
	case ImageProviderPixabay:
		return s.PixabayAPIKey
	case ImageProviderAI:
		return s.OpenAIAPIKey
	}
	return ""
}

// Validate checks enum fields and numeric ranges
func (s *AppSettings) Validate() error {
	switch s.Mode {
	case ModeManual, ModeSemiAutomatic, ModeFullAutomatic:
	default:
		return fmt.Errorf("mode: unknown value %q", s.Mode)
	}
	switch s.ImageSourceProvider {
	case ImageProviderPexels, ImageProviderUnsplash, ImageProviderPixabay, ImageProviderAI, ImageProviderNone:
	default:
		return fmt.Errorf("imageSourceProvider: unknown value %q", s.ImageSourceProvider)
	}
	switch s.AIImageStyle {
	case ImageStylePhotorealistic, ImageStyleDigitalArt:
	default:
		return fmt.Errorf("aiImageStyle: unknown value %q", s.AIImageStyle)
	}
	switch s.SEOPlugin {
	case SEOPluginNone, SEOPluginYoast, SEOPluginRankMath:
	default:
		return fmt.Errorf("seoPlugin: unknown value %q", s.SEOPlugin)
	}
	if FrequencyInterval(s.SemiAutoIdeaFrequency) == 0 {
		return fmt.Errorf("semiAutoIdeaFrequency: unknown value %q", s.SemiAutoIdeaFrequency)
	}
	switch s.AnalyzeContentFrequency {
	case FrequencyManual, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("analyzeContentFrequency: unknown value %q", s.AnalyzeContentFrequency)
	}
	if s.SemiAutoIdeaCount < 1 || s.SemiAutoIdeaCount > 20 {
		return fmt.Errorf("semiAutoIdeaCount: must be between 1 and 20")
	}
	if s.FullAutoDailyPostCount < 1 || s.FullAutoDailyPostCount > 10 {
		return fmt.Errorf("fullAutoDailyPostCount: must be between 1 and 10")
	}
	return nil
}
