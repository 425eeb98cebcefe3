package service

import (
	"context"

	"github.com/google/uuid"

	"rentdesk-backend/internal/clock"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type organizationService struct {
	orgRepo repository.OrganizationRepository
	clk     clock.Clock
}

func NewOrganizationService(orgRepo repository.OrganizationRepository, clk clock.Clock) OrganizationService {
	return &organizationService{orgRepo: orgRepo, clk: clk}
}

func (s *organizationService) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	org.CreatedOn = s.clk.Now()
	return s.orgRepo.Create(ctx, org)
}

func (s *organizationService) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	return s.orgRepo.GetByID(ctx, id)
}

func (s *organizationService) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return s.orgRepo.List(ctx)
}
