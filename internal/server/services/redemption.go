package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/dealkeeper/internal/common"
	"github.com/dmitrijs2005/dealkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/deals"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/redemptions"
)

// RedemptionService applies usage caps to deal redemptions. It holds no
// state of its own: correctness under concurrent redemptions rests
// entirely on the repository's atomic conditional increment.
type RedemptionService struct {
	deals       deals.Repository
	redemptions redemptions.Repository
}

func NewRedemptionService(d deals.Repository, r redemptions.Repository) *RedemptionService {
	return &RedemptionService{deals: d, redemptions: r}
}

// Redeem consumes one use of a deal for a user and returns the new count.
// The deal must exist (common.ErrorDealNotFound otherwise; no record is
// created for unknown deals). A counter at the deal's cap yields
// common.ErrorRedemptionLimit and stays put.
func (s *RedemptionService) Redeem(ctx context.Context, userID, dealID string) (int32, error) {
	if _, err := s.deals.GetByID(ctx, dealID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			metrics.RedemptionsTotal.WithLabelValues("not_found").Inc()
			return 0, common.ErrorDealNotFound
		}
		metrics.RedemptionsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	if err := s.redemptions.EnsureRecord(ctx, userID, dealID); err != nil {
		metrics.RedemptionsTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	uses, err := s.redemptions.TryIncrement(ctx, userID, dealID)
	if err != nil {
		if errors.Is(err, common.ErrorRedemptionLimit) {
			metrics.RedemptionsTotal.WithLabelValues("limit").Inc()
		} else {
			metrics.RedemptionsTotal.WithLabelValues("error").Inc()
		}
		return 0, err
	}

	metrics.RedemptionsTotal.WithLabelValues("ok").Inc()
	return uses, nil
}

// ListForUser returns the user's redemption records.
func (s *RedemptionService) ListForUser(ctx context.Context, userID string) ([]*models.Redemption, error) {
	return s.redemptions.ListForUser(ctx, userID)
}
