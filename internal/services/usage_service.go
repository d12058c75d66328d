package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/WisemanUCE/omegaai-backend/internal/config"
	"github.com/WisemanUCE/omegaai-backend/internal/models"
	apperrors "github.com/WisemanUCE/omegaai-backend/internal/pkg/errors"
)

// UsageStore tracks per-subscriber per-model call counts against the monthly
// ceilings. Reserve admits or rejects a call before the upstream request is
// made; Commit converts the reservation into a counted call once upstream
// succeeds; Release returns the reservation when upstream fails, so a failed
// call never consumes quota. Reservations are part of the admission check,
// which keeps two concurrent requests at ceiling-1 from both passing.
type UsageStore interface {
	Reserve(ctx context.Context, subscriberID, model string) error
	Commit(ctx context.Context, subscriberID, model string) error
	Release(ctx context.Context, subscriberID, model string) error
	Stats(ctx context.Context, subscriberID string) ([]UsageStats, error)
}

// UsageStats describes a subscriber's standing for one model in the current
// billing period.
type UsageStats struct {
	Model             string    `json:"model"`
	CurrentCount      int       `json:"used"`
	Limit             int       `json:"limit"`
	RemainingRequests int       `json:"remaining"`
	PeriodEnd         time.Time `json:"period_end"`
}

type usageEntry struct {
	periodStart time.Time
	used        map[string]int
	pending     map[string]int
}

// memoryUsageStore is the default store: a guarded process-wide map, lost on
// restart. Counts reset when the UTC calendar month rolls over.
type memoryUsageStore struct {
	mu     sync.Mutex
	quotas *config.QuotaConfig
	subs   map[string]*usageEntry
	now    func() time.Time
}

func NewMemoryUsageStore(quotas *config.QuotaConfig) UsageStore {
	return &memoryUsageStore{
		quotas: quotas,
		subs:   make(map[string]*usageEntry),
		now:    time.Now,
	}
}

func (s *memoryUsageStore) Reserve(ctx context.Context, subscriberID, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(subscriberID)
	limit := s.quotas.Limit(model)
	if entry.used[model]+entry.pending[model] >= limit {
		return fmt.Errorf("%w: %s at %d/%d for %s", apperrors.ErrQuotaExceeded, subscriberID, entry.used[model], limit, model)
	}
	entry.pending[model]++
	return nil
}

func (s *memoryUsageStore) Commit(ctx context.Context, subscriberID, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(subscriberID)
	if entry.pending[model] > 0 {
		entry.pending[model]--
	}
	entry.used[model]++
	return nil
}

func (s *memoryUsageStore) Release(ctx context.Context, subscriberID, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(subscriberID)
	if entry.pending[model] > 0 {
		entry.pending[model]--
	}
	return nil
}

func (s *memoryUsageStore) Stats(ctx context.Context, subscriberID string) ([]UsageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entry(subscriberID)
	_, periodEnd := currentPeriod(s.now())

	stats := make([]UsageStats, 0, len(models.SupportedModels()))
	for _, model := range models.SupportedModels() {
		limit := s.quotas.Limit(model)
		used := entry.used[model]
		stats = append(stats, UsageStats{
			Model:             model,
			CurrentCount:      used,
			Limit:             limit,
			RemainingRequests: limit - used - entry.pending[model],
			PeriodEnd:         periodEnd,
		})
	}
	return stats, nil
}

// entry returns the subscriber's record for the current period, creating it
// lazily and discarding counts from a previous month. Callers hold s.mu.
func (s *memoryUsageStore) entry(subscriberID string) *usageEntry {
	periodStart, _ := currentPeriod(s.now())

	entry, ok := s.subs[subscriberID]
	if !ok || !entry.periodStart.Equal(periodStart) {
		entry = &usageEntry{
			periodStart: periodStart,
			used:        make(map[string]int),
			pending:     make(map[string]int),
		}
		s.subs[subscriberID] = entry
	}
	return entry
}

func currentPeriod(now time.Time) (time.Time, time.Time) {
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0).Add(-time.Second)
	return periodStart, periodEnd
}
