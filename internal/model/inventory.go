package model

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks on-hand medication stock.
type InventoryItem struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	Threshold float64   `json:"threshold"`
	CreatedAt time.Time `json:"createdAt"`
}

// LowStock is the sole inventory alerting rule: at or below threshold.
func (i *InventoryItem) LowStock() bool {
	return i.Quantity <= i.Threshold
}

// CreateInventoryItemRequest represents inventory creation parameters
type CreateInventoryItemRequest struct {
	Name      string  `json:"name" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"min=0"`
	Unit      string  `json:"unit" binding:"required,oneof=UI mg co ml"`
	Threshold float64 `json:"threshold" binding:"min=0"`
}

// UpdateInventoryItemRequest represents inventory update parameters
type UpdateInventoryItemRequest struct {
	Name      *string  `json:"name"`
	Quantity  *float64 `json:"quantity" binding:"omitempty,min=0"`
	Unit      *string  `json:"unit" binding:"omitempty,oneof=UI mg co ml"`
	Threshold *float64 `json:"threshold" binding:"omitempty,min=0"`
}
