package service

import (
	"context"

	"github.com/google/uuid"

	"rentdesk-backend/internal/clock"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type productService struct {
	productRepo repository.ProductRepository
	clk         clock.Clock
}

func NewProductService(productRepo repository.ProductRepository, clk clock.Clock) ProductService {
	return &productService{productRepo: productRepo, clk: clk}
}

func (s *productService) AddProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	if in.DefaultRent.IsNegative() {
		return nil, domain.ErrNegativeAmount
	}
	product := &domain.Product{
		ID:          uuid.NewString(),
		OrgID:       in.OrgID,
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		DefaultRent: in.DefaultRent,
		Active:      true,
		CreatedOn:   s.clk.Now(),
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, orgID, id string) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, orgID, id)
}

func (s *productService) UpdateProduct(ctx context.Context, orgID, id string, patch UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		product.CategoryID = patch.CategoryID
	}
	if patch.DefaultRent != nil {
		if patch.DefaultRent.IsNegative() {
			return nil, domain.ErrNegativeAmount
		}
		product.DefaultRent = *patch.DefaultRent
	}
	if patch.Active != nil {
		product.Active = *patch.Active
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) DeactivateProduct(ctx context.Context, orgID, id string) error {
	return s.productRepo.Deactivate(ctx, orgID, id, s.clk.Now())
}

func (s *productService) ListProducts(ctx context.Context, orgID string, page, pageSize int32) ([]domain.Product, int32, error) {
	return s.productRepo.ListByOrg(ctx, orgID, page, pageSize)
}
