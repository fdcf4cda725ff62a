// Package workflow orchestrates analysis submissions: local validation,
// single-in-flight admission control, result retention, and the dependent
// history/stats refreshes after a successful analysis.
package workflow

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dev-dhiraj01/FeelInsight/internal/api"
	"github.com/dev-dhiraj01/FeelInsight/internal/domain"
	apierrors "github.com/dev-dhiraj01/FeelInsight/internal/errors"
	"github.com/dev-dhiraj01/FeelInsight/internal/metrics"
)

// AnalysisAPI is the subset of gateway operations the controller needs.
type AnalysisAPI interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*api.AnalyzeResponse, error)
}

// SessionInvalidator triggers the forced-logout path on session expiry.
type SessionInvalidator interface {
	Invalidate()
}

// Refresher re-fetches the dependent read models after a successful analysis.
type Refresher interface {
	RefreshHistory(ctx context.Context) error
	RefreshStats(ctx context.Context) error
}

// Controller submits text for analysis. At most one submission is outstanding
// per instance; a second Submit while one is pending is rejected without side
// effects.
type Controller struct {
	analysisAPI AnalysisAPI
	session     SessionInvalidator
	refresher   Refresher

	mu         sync.Mutex
	submitting bool
	result     *domain.AnalysisResult

	refreshWG sync.WaitGroup
}

// NewController creates a workflow controller.
func NewController(analysisAPI AnalysisAPI, session SessionInvalidator, refresher Refresher) *Controller {
	return &Controller{
		analysisAPI: analysisAPI,
		session:     session,
		refresher:   refresher,
	}
}

// Submit validates text locally, then issues an authenticated analysis request
// with emotions included. On success the result is stored, and history and
// stats refreshes are started in the background; their failures do not affect
// the returned result. On failure the previous result, if any, is kept.
// No automatic retry: the caller decides whether to resubmit.
func (c *Controller) Submit(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	trimmed := strings.TrimSpace(text)
	if err := validateText(trimmed); err != nil {
		metrics.AnalysisSubmissionsTotal.WithLabelValues("rejected_validation").Inc()
		return nil, err
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		metrics.AnalysisSubmissionsTotal.WithLabelValues("rejected_in_flight").Inc()
		return nil, domain.ErrSubmissionInFlight
	}
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	resp, err := c.analysisAPI.Analyze(ctx, domain.AnalysisRequest{
		Text:            trimmed,
		IncludeEmotions: true,
	})
	if err != nil {
		if apierrors.IsKind(err, apierrors.KindSessionExpired) {
			c.session.Invalidate()
		}
		metrics.AnalysisSubmissionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	result := resp.Analysis
	c.mu.Lock()
	c.result = &result
	c.mu.Unlock()
	metrics.AnalysisSubmissionsTotal.WithLabelValues("accepted").Inc()

	c.triggerRefresh(ctx)
	return &result, nil
}

// Result returns the most recent successful analysis, if any.
func (c *Controller) Result() (*domain.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.result != nil
}

// ClearResult drops the held analysis, e.g. when navigating away.
func (c *Controller) ClearResult() {
	c.mu.Lock()
	c.result = nil
	c.mu.Unlock()
}

// WaitForRefresh blocks until in-flight background refreshes settle. Intended
// for shutdown and tests.
func (c *Controller) WaitForRefresh() {
	c.refreshWG.Wait()
}

// triggerRefresh starts the history and stats refreshes. They are independent,
// unordered, and detached from the submission's cancellation: a refresh is
// idempotent and always replaces state wholesale, so a late completion is
// harmless.
func (c *Controller) triggerRefresh(ctx context.Context) {
	refreshCtx := context.WithoutCancel(ctx)

	c.refreshWG.Add(2)
	go func() {
		defer c.refreshWG.Done()
		if err := c.refresher.RefreshHistory(refreshCtx); err != nil {
			slog.WarnContext(refreshCtx, "History refresh after analysis failed", "error", err)
		}
	}()
	go func() {
		defer c.refreshWG.Done()
		if err := c.refresher.RefreshStats(refreshCtx); err != nil {
			slog.WarnContext(refreshCtx, "Stats refresh after analysis failed", "error", err)
		}
	}()
}

func validateText(trimmed string) error {
	if trimmed == "" {
		return apierrors.Validation("text is required")
	}
	if utf8.RuneCountInString(trimmed) < domain.MinAnalysisTextLen {
		return apierrors.Validation("text must be at least 10 characters")
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxAnalysisTextLen {
		return apierrors.Validation("text must be at most 1000 characters")
	}
	return nil
}
