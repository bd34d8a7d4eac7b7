package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBarcode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normalized", "0001", "0001"},
		{"surrounding whitespace", "  0001 ", "0001"},
		{"lowercase letters", "abc123", "ABC123"},
		{"mixed", "\t a1-B2 \n", "A1-B2"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBarcode(tt.in))
		})
	}
}

func TestUpdateProductRequestEmpty(t *testing.T) {
	assert.True(t, UpdateProductRequest{}.Empty())

	name := "Widget"
	assert.False(t, UpdateProductRequest{Name: &name}.Empty())

	qty := 0
	assert.False(t, UpdateProductRequest{Quantity: &qty}.Empty())
}
