package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/byterize/byterize-backend/internal/config"
	"github.com/byterize/byterize-backend/internal/models"
	"github.com/byterize/byterize-backend/internal/repository"
)

// Catalog defaults applied to fields the request leaves unset.
const (
	defaultCategory = "Computers"
	defaultStockQty = 10
)

// ProductService handles catalog management.
type ProductService struct {
	products repository.ProductRepository
	cache    repository.Cache
	config   *config.Config
	logger   *slog.Logger
}

func NewProductService(
	products repository.ProductRepository,
	cache repository.Cache,
	cfg *config.Config,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products: products,
		cache:    cache,
		config:   cfg,
		logger:   logger.With("component", "product-service"),
	}
}

// Create adds a product to the catalog with server-side timestamps.
func (s *ProductService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if err := ValidateCreateProductRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:          newID("prod"),
		Title:       req.Title,
		Description: req.Description,
		Price:       *req.Price,
		Category:    defaultCategory,
		Image:       req.Image,
		InStock:     true,
		StockQty:    defaultStockQty,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}
	if req.StockQty != nil {
		product.StockQty = *req.StockQty
	}

	if err := s.products.Insert(ctx, product); err != nil {
		return nil, err
	}

	if s.config.Features.EnableOrderCaching {
		s.cache.InvalidateProductList(ctx)
	}

	return product, nil
}

// List returns the catalog, cache first.
func (s *ProductService) List(ctx context.Context) ([]*models.Product, error) {
	if s.config.Features.EnableOrderCaching {
		if products, err := s.cache.GetProductList(ctx); err == nil && products != nil {
			return products, nil
		}
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.config.Features.EnableOrderCaching {
		if err := s.cache.SetProductList(ctx, products); err != nil {
			s.logger.Error("Failed to cache product list", "error", err)
		}
	}
	return products, nil
}

// Delete removes a product from the catalog.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	if s.config.Features.EnableOrderCaching {
		s.cache.InvalidateProductList(ctx)
	}

	s.logger.Info("Product removed", "product_id", id)
	return nil
}
