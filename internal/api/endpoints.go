package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dev-dhiraj01/FeelInsight/internal/domain"
)

// AuthResponse is the payload returned by login and registration.
type AuthResponse struct {
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	User        domain.UserProfile `json:"user"`
}

// AnalyzeResponse wraps an analysis result with the server's status message.
type AnalyzeResponse struct {
	Analysis domain.AnalysisResult `json:"analysis"`
	Message  string                `json:"message"`
}

// HealthStatus is the unauthenticated connectivity probe response.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account and returns the issued token and profile.
func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	ctx, cancel := c.withAuthTimeout(ctx)
	defer cancel()

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", registerRequest{Email: email, Password: password, Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	ctx, cancel := c.withAuthTimeout(ctx)
	defer cancel()

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me fetches the profile of the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (*domain.UserProfile, error) {
	ctx, cancel := c.withAuthTimeout(ctx)
	defer cancel()

	var user domain.UserProfile
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Analyze submits text for sentiment analysis.
func (c *Client) Analyze(ctx context.Context, req domain.AnalysisRequest) (*AnalyzeResponse, error) {
	var resp AnalyzeResponse
	if err := c.do(ctx, http.MethodPost, "/sentiment/analyze", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History fetches up to limit past analyses, newest first (server-assigned order).
func (c *Client) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sentiment/history?limit=%d", limit), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Stats fetches the aggregate sentiment statistics.
func (c *Client) Stats(ctx context.Context) (*domain.StatsSnapshot, error) {
	var stats domain.StatsSnapshot
	if err := c.do(ctx, http.MethodGet, "/sentiment/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health probes server availability. Requires no authentication.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
