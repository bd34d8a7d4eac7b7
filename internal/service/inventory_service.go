package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Domenicogestionale/gestionale-domenico/internal/cache"
	"github.com/Domenicogestionale/gestionale-domenico/internal/domain"
	"github.com/Domenicogestionale/gestionale-domenico/internal/repository"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductExists     = errors.New("product already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
	ErrStoreUnavailable  = errors.New("product store unavailable")
)

// ProductRepository is the remote store surface the service needs.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	FindByBarcode(ctx context.Context, code string) (*domain.Product, error)
	UpdateFields(ctx context.Context, productID string, fields map[string]interface{}) (*domain.Product, error)
	AdjustQuantity(ctx context.Context, productID string, delta int) (*domain.Product, error)
}

// InventoryService implements the lookup-and-update workflow: resolve a
// barcode (cache first, then a remote scan), apply guarded quantity
// changes, and keep the cache in sync with every write. It owns the
// cache for the lifetime of the process.
type InventoryService struct {
	repo   ProductRepository
	cache  *cache.ProductCache
	logger *zap.Logger
}

func NewInventoryService(repo ProductRepository, productCache *cache.ProductCache, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		repo:   repo,
		cache:  productCache,
		logger: logger,
	}
}

// FindByBarcode resolves a barcode to a product. Empty input resolves to
// not-found without touching the store; a cache hit skips the remote
// scan; a miss that the store resolves populates the cache.
func (s *InventoryService) FindByBarcode(ctx context.Context, code string) (*domain.Product, error) {
	normalized := domain.NormalizeBarcode(code)
	if normalized == "" {
		return nil, ErrProductNotFound
	}

	if cached, ok := s.cache.Get(normalized); ok {
		return &cached, nil
	}

	product, err := s.repo.FindByBarcode(ctx, normalized)
	if err != nil {
		return nil, s.translate(err)
	}

	s.cache.Put(*product)
	return product, nil
}

// AdjustQuantity applies a signed stock change for the product with the
// given barcode. The record is always resolved by a fresh remote scan,
// never from the cache, so the write targets the store's current state.
// A decrease beyond current stock is rejected with ErrInsufficientStock
// and changes nothing; on that failure the returned response still
// carries the stock observed by the resolving scan.
func (s *InventoryService) AdjustQuantity(ctx context.Context, code string, magnitude int, direction domain.AdjustDirection) (*domain.QuantityAdjustmentResponse, error) {
	normalized := domain.NormalizeBarcode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty barcode", ErrInvalidInput)
	}
	if direction != domain.DirectionIncrease && direction != domain.DirectionDecrease {
		return nil, fmt.Errorf("%w: direction must be increase or decrease", ErrInvalidInput)
	}
	if magnitude < 1 {
		magnitude = 1
	}

	current, err := s.repo.FindByBarcode(ctx, normalized)
	if err != nil {
		return nil, s.translate(err)
	}

	delta := magnitude
	if direction == domain.DirectionDecrease {
		delta = -magnitude
	}

	updated, err := s.repo.AdjustQuantity(ctx, current.ID, delta)
	if err != nil {
		result := &domain.QuantityAdjustmentResponse{
			ProductID:        current.ID,
			Barcode:          normalized,
			Direction:        direction,
			Adjusted:         magnitude,
			PreviousQuantity: current.Quantity,
			NewQuantity:      current.Quantity,
		}
		return result, s.translate(err)
	}

	s.cache.Put(*updated)

	s.logger.Info("stock adjusted",
		zap.String("product_id", updated.ID),
		zap.String("barcode", normalized),
		zap.String("direction", string(direction)),
		zap.Int("adjusted", magnitude),
		zap.Int("new_quantity", updated.Quantity))

	return &domain.QuantityAdjustmentResponse{
		ProductID:        updated.ID,
		Barcode:          normalized,
		Direction:        direction,
		Adjusted:         magnitude,
		PreviousQuantity: updated.Quantity - delta,
		NewQuantity:      updated.Quantity,
	}, nil
}

// AddProduct validates and persists a new product. The barcode is stored
// normalized; createdAt and updatedAt are stamped with the same instant.
// Duplicate barcodes are pre-checked here on every path. The check is
// not transactional, so two concurrent creates for the same barcode can
// still both pass it.
func (s *InventoryService) AddProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	normalized := domain.NormalizeBarcode(req.Barcode)
	name := strings.TrimSpace(req.Name)

	if normalized == "" {
		return nil, fmt.Errorf("%w: empty barcode", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidInput)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}

	existing, err := s.repo.FindByBarcode(ctx, normalized)
	if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
		return nil, s.translate(err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: barcode %s", ErrProductExists, normalized)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uuid.NewString(),
		Barcode:   normalized,
		Name:      name,
		Quantity:  req.Quantity,
		Price:     req.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		s.logger.Error("failed to save product",
			zap.String("product_id", product.ID),
			zap.String("barcode", normalized),
			zap.Error(err))
		return nil, s.translate(err)
	}

	s.cache.Put(*product)

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("barcode", normalized),
		zap.Int("initial_quantity", product.Quantity))

	return product, nil
}

// EditProduct applies a sparse set of field edits to the product with
// the given id. Name and barcode must be non-empty when present, a
// negative quantity is clamped to zero, and a barcode change is checked
// for collision with another record before persisting.
func (s *InventoryService) EditProduct(ctx context.Context, productID string, req domain.UpdateProductRequest) (*domain.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, fmt.Errorf("%w: empty product id", ErrInvalidInput)
	}
	if req.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	current, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, s.translate(err)
	}
	previousCode := domain.NormalizeBarcode(current.Barcode)

	fields := make(map[string]interface{})

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidInput)
		}
		fields["name"] = name
	}

	if req.Barcode != nil {
		normalized := domain.NormalizeBarcode(*req.Barcode)
		if normalized == "" {
			return nil, fmt.Errorf("%w: empty barcode", ErrInvalidInput)
		}
		if normalized != previousCode {
			other, err := s.repo.FindByBarcode(ctx, normalized)
			if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
				return nil, s.translate(err)
			}
			if other != nil && other.ID != productID {
				return nil, fmt.Errorf("%w: barcode %s", ErrProductExists, normalized)
			}
		}
		fields["barcode"] = normalized
	}

	if req.Quantity != nil {
		quantity := *req.Quantity
		if quantity < 0 {
			quantity = 0
		}
		fields["quantity"] = quantity
	}

	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
		}
		fields["price"] = *req.Price
	}

	updated, err := s.repo.UpdateFields(ctx, productID, fields)
	if err != nil {
		s.logger.Error("failed to update product",
			zap.String("product_id", productID),
			zap.Error(err))
		return nil, s.translate(err)
	}

	s.cache.Replace(previousCode, *updated)

	s.logger.Info("product updated",
		zap.String("product_id", productID),
		zap.Int("fields", len(fields)))

	return updated, nil
}

// ListProducts returns the full collection for table browsing; callers
// filter and sort on their side.
func (s *InventoryService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, s.translate(err)
	}
	return products, nil
}

// translate maps repository sentinels onto the service taxonomy so
// callers never import the repository package for error checks.
func (s *InventoryService) translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrInsufficientStock):
		return ErrInsufficientStock
	case errors.Is(err, repository.ErrStoreUnavailable):
		s.logger.Error("remote store failure", zap.Error(err))
		return ErrStoreUnavailable
	default:
		return err
	}
}
