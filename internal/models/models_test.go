package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestIdeaStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from IdeaStatus
		to   IdeaStatus
		want bool
	}{
		{IdeaStatusPending, IdeaStatusApproved, true},
		{IdeaStatusPending, IdeaStatusRejected, true},
		{IdeaStatusPending, IdeaStatusDraftCreated, false},
		{IdeaStatusApproved, IdeaStatusDraftCreated, false},
		{IdeaStatusApproved, IdeaStatusRejected, true},
		{IdeaStatusApproved, IdeaStatusPending, false},
		{IdeaStatusRejected, IdeaStatusPending, true},
		{IdeaStatusRejected, IdeaStatusApproved, false},
		{IdeaStatusDraftCreated, IdeaStatusPending, false},
		{IdeaStatusDraftCreated, IdeaStatusRejected, false},
		{IdeaStatusPending, IdeaStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestIdea_CanDraft(t *testing.T) {
	tests := []struct {
		status IdeaStatus
		want   bool
	}{
		{IdeaStatusPending, true},
		{IdeaStatusApproved, true},
		{IdeaStatusRejected, false},
		{IdeaStatusDraftCreated, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, (&Idea{Status: tt.status}).CanDraft())
		})
	}
}

func TestIdeaStatus_Valid(t *testing.T) {
	for _, s := range []IdeaStatus{IdeaStatusPending, IdeaStatusApproved, IdeaStatusDraftCreated, IdeaStatusRejected} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, IdeaStatus("archived").Valid())
	assert.False(t, IdeaStatus("").Valid())
}

func TestStringSlice_Scan(t *testing.T) {
	var s StringSlice
	require.NoError(t, s.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringSlice{"a", "b"}, s)

	require.NoError(t, s.Scan(`["c"]`))
	assert.Equal(t, StringSlice{"c"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	assert.Error(t, s.Scan(42))

	v, err := StringSlice(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestDraft_IsDue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	assert.False(t, (&Draft{}).IsDue(now))
	assert.True(t, (&Draft{ScheduledFor: &past, Status: DraftStatusDraft}).IsDue(now))
	assert.False(t, (&Draft{ScheduledFor: &future, Status: DraftStatusDraft}).IsDue(now))
	assert.False(t, (&Draft{ScheduledFor: &past, Status: DraftStatusPublishing}).IsDue(now))
	assert.False(t, (&Draft{ScheduledFor: &past, Status: DraftStatusPublished}).IsDue(now))
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *AppSettings)
		wantErr bool
	}{
		{name: "defaults", mutate: func(s *AppSettings) {}},
		{name: "full automatic", mutate: func(s *AppSettings) { s.Mode = ModeFullAutomatic; s.AutoPublish = true }},
		{name: "bad mode", mutate: func(s *AppSettings) { s.Mode = "turbo" }, wantErr: true},
		{name: "bad provider", mutate: func(s *AppSettings) { s.ImageSourceProvider = "flickr" }, wantErr: true},
		{name: "bad style", mutate: func(s *AppSettings) { s.AIImageStyle = "oil" }, wantErr: true},
		{name: "bad seo plugin", mutate: func(s *AppSettings) { s.SEOPlugin = "aioseo" }, wantErr: true},
		{name: "manual idea frequency", mutate: func(s *AppSettings) { s.SemiAutoIdeaFrequency = FrequencyManual }, wantErr: true},
		{name: "hourly analysis", mutate: func(s *AppSettings) { s.AnalyzeContentFrequency = FrequencyHourly }, wantErr: true},
		{name: "zero idea count", mutate: func(s *AppSettings) { s.SemiAutoIdeaCount = 0 }, wantErr: true},
		{name: "too many posts", mutate: func(s *AppSettings) { s.FullAutoDailyPostCount = 11 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			if tt.wantErr {
				assert.Error(t, s.Validate())
			} else {
				assert.NoError(t, s.Validate())
			}
		})
	}
}

func TestAppSettings_APIKeyFor(t *testing.T) {
	s := AppSettings{PexelsAPIKey: "p", UnsplashAPIKey: "u", PixabayAPIKey: "x", OpenAIAPIKey: "o"}
	assert.Equal(t, "p", s.APIKeyFor(ImageProviderPexels))
	assert.Equal(t, "u", s.APIKeyFor(ImageProviderUnsplash))
	assert.Equal(t, "x", s.APIKeyFor(ImageProviderPixabay))
	assert.Equal(t, "o", s.APIKeyFor(ImageProviderAI))
	assert.Equal(t, "", s.APIKeyFor(ImageProviderNone))
}

func TestFrequencyInterval(t *testing.T) {
	assert.Equal(t, time.Hour, FrequencyInterval(FrequencyHourly))
	assert.Equal(t, 24*time.Hour, FrequencyInterval(FrequencyDaily))
	assert.Equal(t, 7*24*time.Hour, FrequencyInterval(FrequencyWeekly))
	assert.Equal(t, time.Duration(0), FrequencyInterval(FrequencyManual))
}

func TestOAuthToken_FromOAuth2TokenKeepsRefreshToken(t *testing.T) {
	tok := &OAuthToken{RefreshToken: "keep"}
	tok.FromOAuth2Token(&oauth2.Token{AccessToken: "new", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)})
	assert.Equal(t, "new", tok.AccessToken)
	assert.Equal(t, "keep", tok.RefreshToken)
	assert.False(t, tok.NeedsRefresh())
}
