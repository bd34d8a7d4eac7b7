package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Domenicogestionale/gestionale-domenico/internal/domain"
	"github.com/Domenicogestionale/gestionale-domenico/internal/service"
)

type ProductHandler struct {
	inventory *service.InventoryService
	logger    *zap.Logger
}

func NewProductHandler(inventory *service.InventoryService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// RegisterRoutes mounts the inventory API under the given group.
func (h *ProductHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.POST("/products", h.CreateProduct)
	v1.GET("/products", h.ListProducts)
	v1.GET("/products/barcode/:code", h.GetProductByBarcode)
	v1.PATCH("/products/:id", h.UpdateProduct)
	v1.POST("/products/barcode/:code/adjust", h.AdjustQuantity)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req domain.CreateProductRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	product, err := h.inventory.AddProduct(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrProductExists):
			c.JSON(http.StatusConflict, gin.H{"error": "A product with this barcode already exists"})
		case errors.Is(err, service.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Product store unavailable"})
		default:
			h.logger.Error("failed to create product",
				zap.String("barcode", req.Barcode),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		}
		return
	}

	c.JSON(http.StatusCreated, domain.NewProductResponse(product))
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.inventory.ListProducts(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Product store unavailable"})
			return
		}
		h.logger.Error("failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}

	responses := make([]domain.ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, domain.NewProductResponse(&products[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"products": responses,
		"count":    len(responses),
	})
}

func (h *ProductHandler) GetProductByBarcode(c *gin.Context) {
	code := c.Param("code")

	product, err := h.inventory.FindByBarcode(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, service.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Product store unavailable"})
		default:
			h.logger.Error("failed to look up product",
				zap.String("barcode", code),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up product"})
		}
		return
	}

	c.JSON(http.StatusOK, domain.NewProductResponse(product))
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID := c.Param("id")

	var req domain.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	product, err := h.inventory.EditProduct(c.Request.Context(), productID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, service.ErrProductExists):
			c.JSON(http.StatusConflict, gin.H{"error": "A product with this barcode already exists"})
		case errors.Is(err, service.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Product store unavailable"})
		default:
			h.logger.Error("failed to update product",
				zap.String("product_id", productID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		}
		return
	}

	c.JSON(http.StatusOK, domain.NewProductResponse(product))
}

func (h *ProductHandler) AdjustQuantity(c *gin.Context) {
	code := c.Param("code")

	var req domain.AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.inventory.AdjustQuantity(c.Request.Context(), code, req.Quantity, req.Direction)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, service.ErrInsufficientStock):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":     "Insufficient stock",
				"available": result.PreviousQuantity,
				"requested": req.Quantity,
			})
		case errors.Is(err, service.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Product store unavailable"})
		default:
			h.logger.Error("failed to adjust quantity",
				zap.String("barcode", code),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust quantity"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
