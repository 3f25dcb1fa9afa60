package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shestoi/yamoney-gateway/internal/repository"
	"github.com/shestoi/yamoney-gateway/internal/yamoney"
)

// InitiateRequest тело POST /yamoney/transactions
type InitiateRequest struct {
	UID     string            `json:"uid" validate:"max=64"`
	OrderID string            `json:"order_id" validate:"required,max=128"`
	Mail    string            `json:"mail" validate:"omitempty,email"`
	Amount  decimal.Decimal   `json:"amount"`
	Data    map[string]string `json:"data"`
}

// TransactionResponse транзакция в ответах API
type TransactionResponse struct {
	ID        int64             `json:"id"`
	YMID      string            `json:"ymid"`
	UID       string            `json:"uid"`
	OrderID   string            `json:"order_id"`
	Amount    string            `json:"amount"`
	Status    string            `json:"status"`
	Mail      string            `json:"mail,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Data      map[string]string `json:"data,omitempty"`
}

// InitiateResponse транзакция и форма для отправки в шлюз
type InitiateResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Action      string              `json:"action"`
	Mode        string              `json:"mode"`
	Params      *yamoney.Params     `json:"params"`
}

// FormResponse форма без транзакции (пожертвование)
type FormResponse struct {
	Action string          `json:"action"`
	Params *yamoney.Params `json:"params"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toTransactionResponse(tx repository.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        tx.ID,
		YMID:      tx.YMID,
		UID:       tx.UID,
		OrderID:   tx.OrderID,
		Amount:    yamoney.FormatAmount(tx.Amount),
		Status:    string(tx.Status),
		Mail:      tx.Mail,
		CreatedAt: tx.CreatedAt,
		Data:      tx.Data,
	}
}
