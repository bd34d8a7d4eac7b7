package domain

import (
	"strings"
	"time"
)

// Product is the single inventory entity. The remote store assigns ID on
// creation; Barcode is the lookup key and is stored normalized.
type Product struct {
	ID        string    `dynamodbav:"product_id" json:"id"`
	Barcode   string    `dynamodbav:"barcode"    json:"barcode"`
	Name      string    `dynamodbav:"name"       json:"name"`
	Quantity  int       `dynamodbav:"quantity"   json:"quantity"`
	Price     *float64  `dynamodbav:"price,omitempty" json:"price,omitempty"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// AdjustDirection selects whether an adjustment loads or unloads stock.
type AdjustDirection string

const (
	DirectionIncrease AdjustDirection = "increase"
	DirectionDecrease AdjustDirection = "decrease"
)

// NormalizeBarcode is the single normalization rule applied before every
// comparison and before storage: trim surrounding whitespace, uppercase.
func NormalizeBarcode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type CreateProductRequest struct {
	Barcode  string   `json:"barcode" binding:"required"`
	Name     string   `json:"name"    binding:"required"`
	Quantity int      `json:"quantity"`
	Price    *float64 `json:"price,omitempty"`
}

type AdjustQuantityRequest struct {
	Quantity  int             `json:"quantity" binding:"required"`
	Direction AdjustDirection `json:"direction" binding:"required,oneof=increase decrease"`
}

// UpdateProductRequest carries a sparse set of field edits. Nil means
// "leave unchanged".
type UpdateProductRequest struct {
	Barcode  *string  `json:"barcode,omitempty"`
	Name     *string  `json:"name,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

func (r UpdateProductRequest) Empty() bool {
	return r.Barcode == nil && r.Name == nil && r.Quantity == nil && r.Price == nil
}

type ProductResponse struct {
	ID        string    `json:"id"`
	Barcode   string    `json:"barcode"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     *float64  `json:"price,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Barcode:   p.Barcode,
		Name:      p.Name,
		Quantity:  p.Quantity,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type QuantityAdjustmentResponse struct {
	ProductID        string          `json:"product_id"`
	Barcode          string          `json:"barcode"`
	Direction        AdjustDirection `json:"direction"`
	Adjusted         int             `json:"adjusted"`
	PreviousQuantity int             `json:"previous_quantity"`
	NewQuantity      int             `json:"new_quantity"`
}
