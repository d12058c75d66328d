package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/WisemanUCE/omegaai-backend/internal/logger"
	"github.com/WisemanUCE/omegaai-backend/internal/models"
	apperrors "github.com/WisemanUCE/omegaai-backend/internal/pkg/errors"
)

// ChatResult is the outcome of an admitted and forwarded chat request.
type ChatResult struct {
	Reply        string
	SubscriberID string
}

// ChatService runs the admission pipeline: receipt verification, entitlement
// matching, quota reservation, upstream completion, usage commit. The stages
// run strictly in order and the first failure ends the request; quota is only
// consumed when the upstream call succeeds.
type ChatService interface {
	Chat(ctx context.Context, receipt, prompt, model string) (*ChatResult, error)
	Usage(ctx context.Context, receipt string) (string, []UsageStats, error)
}

type chatService struct {
	verifier     ReceiptVerifier
	entitlements EntitlementService
	usage        UsageStore
	completions  CompletionProvider
}

func NewChatService(
	verifier ReceiptVerifier,
	entitlements EntitlementService,
	usage UsageStore,
	completions CompletionProvider,
) ChatService {
	return &chatService{
		verifier:     verifier,
		entitlements: entitlements,
		usage:        usage,
		completions:  completions,
	}
}

func (s *chatService) Chat(ctx context.Context, receipt, prompt, model string) (*ChatResult, error) {
	verified, err := s.verifier.Verify(ctx, receipt)
	if err != nil {
		return nil, err
	}

	entry, err := s.entitlements.MatchEntitlement(verified.LatestReceiptInfo, model)
	if err != nil {
		return nil, err
	}

	// The original transaction id survives renewals, so it identifies the
	// subscriber rather than a single purchase.
	subscriberID := entry.OriginalTransactionID

	if err := s.usage.Reserve(ctx, subscriberID, model); err != nil {
		return nil, err
	}

	reply, err := s.completions.Complete(ctx, model, prompt)
	if err != nil {
		if relErr := s.usage.Release(ctx, subscriberID, model); relErr != nil {
			logger.LogEvent(logrus.WarnLevel, "Failed to release quota reservation", logrus.Fields{
				"subscriber": subscriberID,
				"model":      model,
				"error":      relErr,
			})
		}
		return nil, err
	}

	if err := s.usage.Commit(ctx, subscriberID, model); err != nil {
		logger.LogEvent(logrus.WarnLevel, "Failed to commit quota usage", logrus.Fields{
			"subscriber": subscriberID,
			"model":      model,
			"error":      err,
		})
	}

	return &ChatResult{Reply: reply, SubscriberID: subscriberID}, nil
}

// Usage verifies the receipt and reports the subscriber's standing for every
// supported model. Any active entitlement is enough to see the report.
func (s *chatService) Usage(ctx context.Context, receipt string) (string, []UsageStats, error) {
	verified, err := s.verifier.Verify(ctx, receipt)
	if err != nil {
		return "", nil, err
	}

	var entry *models.SubscriptionEntry
	for _, model := range models.SupportedModels() {
		if matched, matchErr := s.entitlements.MatchEntitlement(verified.LatestReceiptInfo, model); matchErr == nil {
			entry = matched
			break
		}
	}
	if entry == nil {
		return "", nil, apperrors.ErrNoActiveSubscription
	}

	stats, err := s.usage.Stats(ctx, entry.OriginalTransactionID)
	if err != nil {
		return "", nil, err
	}
	return entry.OriginalTransactionID, stats, nil
}
