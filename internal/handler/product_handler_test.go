package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Domenicogestionale/gestionale-domenico/internal/cache"
	"github.com/Domenicogestionale/gestionale-domenico/internal/domain"
	"github.com/Domenicogestionale/gestionale-domenico/internal/repository"
	"github.com/Domenicogestionale/gestionale-domenico/internal/service"
)

// memoryRepo is an in-memory stand-in for the DynamoDB repository with
// the same sentinel-error contract.
type memoryRepo struct {
	products map[string]domain.Product
	failWith error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[string]domain.Product)}
}

func (m *memoryRepo) CreateProduct(_ context.Context, product *domain.Product) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.products[product.ID] = *product
	return nil
}

func (m *memoryRepo) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *memoryRepo) ListProducts(_ context.Context) ([]domain.Product, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryRepo) FindByBarcode(_ context.Context, code string) (*domain.Product, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, p := range m.products {
		if domain.NormalizeBarcode(p.Barcode) == code {
			found := p
			return &found, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *memoryRepo) UpdateFields(_ context.Context, productID string, fields map[string]interface{}) (*domain.Product, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	for name, value := range fields {
		switch name {
		case "name":
			p.Name = value.(string)
		case "barcode":
			p.Barcode = value.(string)
		case "quantity":
			p.Quantity = value.(int)
		case "price":
			price := value.(float64)
			p.Price = &price
		}
	}
	p.UpdatedAt = time.Now().UTC()
	m.products[productID] = p
	return &p, nil
}

func (m *memoryRepo) AdjustQuantity(_ context.Context, productID string, delta int) (*domain.Product, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if delta < 0 && p.Quantity < -delta {
		return nil, repository.ErrInsufficientStock
	}
	p.Quantity += delta
	p.UpdatedAt = time.Now().UTC()
	m.products[productID] = p
	return &p, nil
}

func newTestRouter(repo *memoryRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	inventory := service.NewInventoryService(repo, cache.NewProductCache(), logger)
	h := NewProductHandler(inventory, logger)

	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seed(repo *memoryRepo, id, barcode, name string, quantity int) {
	now := time.Now().UTC()
	repo.products[id] = domain.Product{
		ID: id, Barcode: barcode, Name: name, Quantity: quantity,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestCreateProduct(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router := newTestRouter(newMemoryRepo())

		w := doJSON(router, http.MethodPost, "/api/v1/products", gin.H{
			"barcode": "A1", "name": "Widget", "quantity": 5,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp domain.ProductResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "A1", resp.Barcode)
		assert.Equal(t, 5, resp.Quantity)
	})

	t.Run("duplicate barcode conflicts", func(t *testing.T) {
		repo := newMemoryRepo()
		seed(repo, "p1", "A1", "Widget", 5)
		router := newTestRouter(repo)

		w := doJSON(router, http.MethodPost, "/api/v1/products", gin.H{
			"barcode": "a1", "name": "Other",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing fields rejected by binding", func(t *testing.T) {
		router := newTestRouter(newMemoryRepo())

		w := doJSON(router, http.MethodPost, "/api/v1/products", gin.H{"barcode": "A1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		router := newTestRouter(newMemoryRepo())

		w := doJSON(router, http.MethodPost, "/api/v1/products", gin.H{
			"barcode": "A1", "name": "Widget", "quantity": -1,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store outage maps to 503", func(t *testing.T) {
		repo := newMemoryRepo()
		repo.failWith = repository.ErrStoreUnavailable
		router := newTestRouter(repo)

		w := doJSON(router, http.MethodPost, "/api/v1/products", gin.H{
			"barcode": "A1", "name": "Widget",
		})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestGetProductByBarcode(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo := newMemoryRepo()
		seed(repo, "p1", "0001", "Widget", 10)
		router := newTestRouter(repo)

		w := doJSON(router, http.MethodGet, "/api/v1/products/barcode/0001", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp domain.ProductResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "p1", resp.ID)
	})

	t.Run("unknown barcode is 404", func(t *testing.T) {
		router := newTestRouter(newMemoryRepo())

		w := doJSON(router, http.MethodGet, "/api/v1/products/barcode/9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListProducts(t *testing.T) {
	repo := newMemoryRepo()
	seed(repo, "p1", "0001", "Widget", 10)
	seed(repo, "p2", "0002", "Gadget", 3)
	router := newTestRouter(repo)

	w := doJSON(router, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Products []domain.ProductResponse `json:"products"`
		Count    int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Products, 2)
}

func TestUpdateProduct(t *testing.T) {
	t.Run("renames", func(t *testing.T) {
		repo := newMemoryRepo()
		seed(repo, "p1", "0001", "Widget", 10)
		router := newTestRouter(repo)

		w := doJSON(router, http.MethodPatch, "/api/v1/products/p1", gin.H{"name": "Renamed"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp domain.ProductResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Renamed", resp.Name)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		router := newTestRouter(newMemoryRepo())

		w := doJSON(router, http.MethodPatch, "/api/v1/products/missing", gin.H{"name": "X"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("barcode collision is 409", func(t *testing.T) {
		repo := newMemoryRepo()
		seed(repo, "p1", "0001", "Widget", 10)
		seed(repo, "p2", "0002", "Gadget", 3)
		router := newTestRouter(repo)

		w := doJSON(router, http.MethodPatch, "/api/v1/products/p1", gin.H{"barcode": "0002"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("no fields is 400", func(t *testing.T) {
		repo := newMemoryRepo()
		seed(repo, "p1", "0001", "Widget", 10)
		router := newTestRouter(repo)

		w := doJSON(router, http.MethodPatch, "/api/v1/products/p1", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdjustQuantity(t *testing.T) {
	t.Run("decrease", func(t *testing.T) {
		repo := newMemoryRepo()
		seed(repo, "p1", "0001", "Widget", 10)
		router := newTestRouter(repo)

		w := doJSON(router, http.MethodPost, "/api/v1/products/barcode/0001/adjust", gin.H{
			"quantity": 3, "direction": "decrease",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp domain.QuantityAdjustmentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 10, resp.PreviousQuantity)
		assert.Equal(t, 7, resp.NewQuantity)
	})

	t.Run("increase", func(t *testing.T) {
		repo := newMemoryRepo()
		seed(repo, "p1", "0001", "Widget", 7)
		router := newTestRouter(repo)

		w := doJSON(router, http.MethodPost, "/api/v1/products/barcode/0001/adjust", gin.H{
			"quantity": 5, "direction": "increase",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp domain.QuantityAdjustmentResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 12, resp.NewQuantity)
	})

	t.Run("insufficient stock is 422 with context", func(t *testing.T) {
		repo := newMemoryRepo()
		seed(repo, "p1", "0001", "Widget", 5)
		router := newTestRouter(repo)

		w := doJSON(router, http.MethodPost, "/api/v1/products/barcode/0001/adjust", gin.H{
			"quantity": 9, "direction": "decrease",
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(5), resp["available"])
		assert.Equal(t, float64(9), resp["requested"])
	})

	t.Run("unknown barcode is 404", func(t *testing.T) {
		router := newTestRouter(newMemoryRepo())

		w := doJSON(router, http.MethodPost, "/api/v1/products/barcode/9999/adjust", gin.H{
			"quantity": 1, "direction": "decrease",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad direction rejected by binding", func(t *testing.T) {
		repo := newMemoryRepo()
		seed(repo, "p1", "0001", "Widget", 5)
		router := newTestRouter(repo)

		w := doJSON(router, http.MethodPost, "/api/v1/products/barcode/0001/adjust", gin.H{
			"quantity": 1, "direction": "sideways",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealth(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	w := doJSON(router, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
