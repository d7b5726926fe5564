package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegisterTransactionRequest struct {
	Type          string          `json:"type"           validate:"required,oneof=income expense"`
	Category      string          `json:"category"       validate:"required,min=2,max=80"`
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash debit credit transfer"`
	Description   string          `json:"description"    validate:"max=500"`
	// Date defaults to the server clock; backdating is allowed for corrections.
	Date *time.Time `json:"date"`
}

type TransactionResponse struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Description   string          `json:"description"`
}

type TransactionListResponse struct {
	Date  string                `json:"date"`
	Data  []TransactionResponse `json:"data"`
	Total int                   `json:"total"`
}
