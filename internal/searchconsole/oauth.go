// Package searchconsole connects to Google Search Console over OAuth 2.0 and
// reads the site's top search queries.
package searchconsole

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/pkg/logger"
)

// Provider is the oauth_tokens row key
const Provider = "google"

// stateTTL bounds how long an authorization URL stays usable
const stateTTL = 10 * time.Minute

var (
	// ErrNotConnected is returned when no Google token is stored
	ErrNotConnected = errors.New("search console is not connected")

	// ErrInvalidState is returned when a callback state was not issued or expired
	ErrInvalidState = errors.New("invalid or expired oauth state")
)

// OAuthManager handles the Google OAuth 2.0 flow
type OAuthManager struct {
	config     *oauth2.Config
	repository storage.Repository
	log        *logger.Logger

	mu           sync.RWMutex
	currentToken *models.OAuthToken
	states       map[string]time.Time
}

// NewOAuthManager creates a new OAuth manager
func NewOAuthManager(cfg config.SearchConsoleConfig, repo storage.Repository, log *logger.Logger) *OAuthManager {
	return &OAuthManager{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		repository: repo,
		log:        log.WithComponent("gsc_oauth"),
		states:     make(map[string]time.Time),
	}
}

// WithEndpoint overrides the Google OAuth endpoints
func (m *OAuthManager) WithEndpoint(endpoint oauth2.Endpoint) *OAuthManager {
	m.config.Endpoint = endpoint
	return m
}

// GenerateState creates a random state for OAuth CSRF protection
func GenerateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// AuthURL issues a new state and returns the authorization URL for it
func (m *OAuthManager) AuthURL() (string, string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}

	m.mu.Lock()
	now := time.Now()
	for s, issued := range m.states {
		if now.Sub(issued) > stateTTL {
			delete(m.states, s)
		}
	}
	m.states[state] = now
	m.mu.Unlock()

	// prompt=consent makes Google return a refresh token on every grant
	url := m.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	return url, state, nil
}

// CheckState consumes a state issued by AuthURL
func (m *OAuthManager) CheckState(state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	issued, ok := m.states[state]
	if !ok || time.Since(issued) > stateTTL {
		return ErrInvalidState
	}
	delete(m.states, state)
	return nil
}

// Exchange exchanges the authorization code for tokens and stores them
func (m *OAuthManager) Exchange(ctx context.Context, code string) (*models.OAuthToken, error) {
	m.log.Info().Msg("Exchanging authorization code for token")

	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		m.log.Error().Err(err).Msg("Failed to exchange code")
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	scope, _ := token.Extra("scope").(string)
	oauthToken := &models.OAuthToken{
		Provider: Provider,
		Scope:    scope,
	}
	oauthToken.FromOAuth2Token(token)

	if err := m.repository.SaveToken(ctx, oauthToken); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	m.mu.Lock()
	m.currentToken = oauthToken
	m.mu.Unlock()

	m.log.Info().
		Time("expires_at", token.Expiry).
		Msg("Token saved successfully")

	return oauthToken, nil
}

// GetValidToken returns a valid access token, refreshing if necessary
func (m *OAuthManager) GetValidToken(ctx context.Context) (*models.OAuthToken, error) {
	m.mu.RLock()
	token := m.currentToken
	m.mu.RUnlock()

	if token == nil {
		dbToken, err := m.repository.GetToken(ctx, Provider)
		if storage.IsNotFound(err) {
			return nil, ErrNotConnected
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load token: %w", err)
		}
		m.mu.Lock()
		m.currentToken = dbToken
		m.mu.Unlock()
		token = dbToken
	}

	if token.NeedsRefresh() {
		m.log.Info().Msg("Token expiring soon, refreshing")
		return m.refreshToken(ctx, token)
	}

	return token, nil
}

// refreshToken refreshes an expired token
func (m *OAuthManager) refreshToken(ctx context.Context, token *models.OAuthToken) (*models.OAuthToken, error) {
	if token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token available, please reconnect", ErrNotConnected)
	}

	// Only the refresh token is passed so the source cannot hand back the
	// still-valid access token
	newToken, err := m.config.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken}).Token()
	if err != nil {
		m.log.Error().Err(err).Msg("Failed to refresh token")
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	refreshed := *token
	refreshed.FromOAuth2Token(newToken)

	if err := m.repository.SaveToken(ctx, &refreshed); err != nil {
		m.log.Warn().Err(err).Msg("Failed to save refreshed token to database")
	}

	m.mu.Lock()
	m.currentToken = &refreshed
	m.mu.Unlock()

	m.log.Info().
		Time("expires_at", newToken.Expiry).
		Msg("Token refreshed successfully")

	return &refreshed, nil
}

// TokenSource returns an oauth2.TokenSource backed by the stored token
func (m *OAuthManager) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := m.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return m.config.TokenSource(ctx, token.ToOAuth2Token()), nil
}

// IsConnected reports whether a usable token is stored
func (m *OAuthManager) IsConnected(ctx context.Context) bool {
	token, err := m.GetValidToken(ctx)
	return err == nil && token != nil
}

// Disconnect forgets the stored token
func (m *OAuthManager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	m.currentToken = nil
	m.mu.Unlock()
	return m.repository.DeleteToken(ctx, Provider)
}
