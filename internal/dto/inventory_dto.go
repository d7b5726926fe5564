package dto

import "time"

type UpsertInventoryRequest struct {
	ProductName  string `json:"product_name"  validate:"required,min=1,max=120"`
	InitialStock int    `json:"initial_stock" validate:"min=0"`
	Reason       string `json:"reason"        validate:"max=200"`
}

type InventoryMovementRequest struct {
	ProductName string `json:"product_name" validate:"required,max=120"`
	Kind        string `json:"kind"         validate:"required,oneof=entry exit"`
	Quantity    int    `json:"quantity"     validate:"required,gt=0"`
	Reason      string `json:"reason"       validate:"max=200"`
}

type InventoryMovementResponse struct {
	ID           string    `json:"id"`
	ProductName  string    `json:"product_name"`
	Kind         string    `json:"kind"`
	Quantity     int       `json:"quantity"`
	StockBefore  int       `json:"stock_before"`
	StockAfter   int       `json:"stock_after"`
	Reason       string    `json:"reason"`
	BusinessDate *string   `json:"business_date,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type InventoryMovementListResponse struct {
	Data       []InventoryMovementResponse `json:"data"`
	Total      int64                       `json:"total"`
	Page       int                         `json:"page"`
	Limit      int                         `json:"limit"`
	TotalPages int                         `json:"total_pages"`
}
