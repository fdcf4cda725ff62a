// Package insights holds the read models derived from past analyses: the
// history list and the aggregate statistics. Snapshots are replaced wholesale
// on every refresh, never merged, so the held state always reflects one
// consistent server response.
package insights

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dev-dhiraj01/FeelInsight/internal/domain"
	apierrors "github.com/dev-dhiraj01/FeelInsight/internal/errors"
	"github.com/dev-dhiraj01/FeelInsight/internal/metrics"
)

// ReadAPI is the subset of gateway operations the aggregator needs.
type ReadAPI interface {
	History(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
	Stats(ctx context.Context) (*domain.StatsSnapshot, error)
}

// SessionState exposes the session checks the aggregator needs: forcing a
// logout on expiry, and validating that a response is still relevant.
type SessionState interface {
	Invalidate()
	Snapshot() domain.Session
}

// Aggregator fetches and holds the history and stats read models. History and
// stats refreshes are independent; a failure in one never blocks the other.
type Aggregator struct {
	readAPI      ReadAPI
	session      SessionState
	clock        clockwork.Clock
	historyLimit int

	mu               sync.RWMutex
	history          []domain.HistoryEntry
	historyFetchedAt time.Time
	stats            *domain.StatsSnapshot
	statsFetchedAt   time.Time
}

// NewAggregator creates an aggregator fetching up to historyLimit entries.
func NewAggregator(readAPI ReadAPI, session SessionState, clock clockwork.Clock, historyLimit int) *Aggregator {
	return &Aggregator{
		readAPI:      readAPI,
		session:      session,
		clock:        clock,
		historyLimit: historyLimit,
	}
}

// RefreshHistory re-fetches the history and replaces the held snapshot. On
// session expiry the forced-logout path runs and the held data is unchanged.
// A response arriving after the session became anonymous is dropped.
func (a *Aggregator) RefreshHistory(ctx context.Context) error {
	entries, err := a.readAPI.History(ctx, a.historyLimit)
	if err != nil {
		a.handleError(err)
		metrics.SnapshotRefreshesTotal.WithLabelValues("history", string(apierrors.KindOf(err))).Inc()
		return err
	}

	if !a.session.Snapshot().Authenticated() {
		metrics.SnapshotRefreshesTotal.WithLabelValues("history", "stale_dropped").Inc()
		return nil
	}

	a.mu.Lock()
	a.history = entries
	a.historyFetchedAt = a.clock.Now()
	a.mu.Unlock()

	metrics.SnapshotRefreshesTotal.WithLabelValues("history", "ok").Inc()
	return nil
}

// RefreshStats re-fetches the statistics and replaces the held snapshot, with
// the same expiry and staleness handling as RefreshHistory.
func (a *Aggregator) RefreshStats(ctx context.Context) error {
	stats, err := a.readAPI.Stats(ctx)
	if err != nil {
		a.handleError(err)
		metrics.SnapshotRefreshesTotal.WithLabelValues("stats", string(apierrors.KindOf(err))).Inc()
		return err
	}

	if !a.session.Snapshot().Authenticated() {
		metrics.SnapshotRefreshesTotal.WithLabelValues("stats", "stale_dropped").Inc()
		return nil
	}

	a.mu.Lock()
	a.stats = stats
	a.statsFetchedAt = a.clock.Now()
	a.mu.Unlock()

	metrics.SnapshotRefreshesTotal.WithLabelValues("stats", "ok").Inc()
	return nil
}

// History returns the held history snapshot and when it was fetched.
func (a *Aggregator) History() ([]domain.HistoryEntry, time.Time) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.history, a.historyFetchedAt
}

// Stats returns the held stats snapshot, or false when none has been fetched.
func (a *Aggregator) Stats() (*domain.StatsSnapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats, a.stats != nil
}

// Clear drops both snapshots, e.g. after logout.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	a.history = nil
	a.historyFetchedAt = time.Time{}
	a.stats = nil
	a.statsFetchedAt = time.Time{}
	a.mu.Unlock()
}

func (a *Aggregator) handleError(err error) {
	if apierrors.IsKind(err, apierrors.KindSessionExpired) {
		a.session.Invalidate()
	}
}
