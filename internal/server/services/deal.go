package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/dealkeeper/internal/common"
	"github.com/dmitrijs2005/dealkeeper/internal/server/models"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/deals"
	"github.com/google/uuid"
)

// DealService is thin catalog plumbing around the deals repository.
type DealService struct {
	repo deals.Repository
}

func NewDealService(repo deals.Repository) *DealService {
	return &DealService{repo: repo}
}

// Create validates and stores a new deal. usageCap == nil means unlimited.
func (s *DealService) Create(ctx context.Context, title, description string, usageCap *int32) (*models.Deal, error) {
	if title == "" {
		return nil, common.ErrorValidation
	}
	if usageCap != nil && *usageCap < 0 {
		return nil, common.ErrorValidation
	}

	deal := &models.Deal{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		UsageCap:    usageCap,
	}

	if err := s.repo.Create(ctx, deal); err != nil {
		return nil, err
	}

	return deal, nil
}

func (s *DealService) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	deal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorDealNotFound
		}
		return nil, err
	}
	return deal, nil
}

func (s *DealService) List(ctx context.Context) ([]*models.Deal, error) {
	return s.repo.List(ctx)
}

func (s *DealService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorDealNotFound
		}
		return err
	}
	return nil
}
