package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/WisemanUCE/omegaai-backend/internal/models"
	apperrors "github.com/WisemanUCE/omegaai-backend/internal/pkg/errors"
)

// EntitlementService decides which subscription entry, if any, grants access
// to a requested model.
type EntitlementService interface {
	MatchEntitlement(entries []models.SubscriptionEntry, model string) (*models.SubscriptionEntry, error)
}

type entitlementService struct {
	now func() time.Time
}

func NewEntitlementService() EntitlementService {
	return &entitlementService{now: time.Now}
}

// MatchEntitlement selects the most recently purchased entry for the product
// mapped to model whose expiration lies strictly in the future. A receipt can
// carry several records for the same product across renewals; the latest
// purchase is authoritative for expiration. Ties keep their receipt order.
func (s *entitlementService) MatchEntitlement(entries []models.SubscriptionEntry, model string) (*models.SubscriptionEntry, error) {
	product, ok := models.ProductForModel(model)
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q", apperrors.ErrNoActiveSubscription, model)
	}

	sorted := make([]models.SubscriptionEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PurchaseTime().After(sorted[j].PurchaseTime())
	})

	now := s.now()
	for _, entry := range sorted {
		if entry.ProductID == product && entry.ActiveAt(now) {
			matched := entry
			return &matched, nil
		}
	}

	return nil, fmt.Errorf("%w: no unexpired entry for %s", apperrors.ErrNoActiveSubscription, product)
}
