package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"payments-engine/internal/domain"
	"payments-engine/internal/errors"
	"payments-engine/internal/service"
)

type TransactionHandler struct {
	ledgerService *service.LedgerService
}

func NewTransactionHandler(ledgerService *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
	}
}

type TransactionRequest struct {
	Type          string `json:"type"`
	ClientID      uint16 `json:"client"`
	TransactionID uint32 `json:"tx"`
	Amount        string `json:"amount,omitempty"`
}

type TransactionResponse struct {
	Type          string `json:"type"`
	ClientID      uint16 `json:"client"`
	TransactionID uint32 `json:"tx"`
	Status        string `json:"status"`
}

// Submit applies a single transaction record to the ledger.
func (h *TransactionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	txType, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid transaction type").WithDetails(err.Error()))
		return
	}

	tx := domain.Transaction{
		Type:          txType,
		ClientID:      domain.ClientID(req.ClientID),
		TransactionID: domain.TransactionID(req.TransactionID),
	}

	if txType.HasAmount() {
		if req.Amount == "" {
			writeError(w, errors.NewAppErrorf(errors.InvalidInput, "%s requires an amount", txType))
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
			return
		}
		tx.Amount = amount
	}

	if err := h.ledgerService.Apply(tx); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TransactionResponse{
		Type:          string(tx.Type),
		ClientID:      uint16(tx.ClientID),
		TransactionID: uint32(tx.TransactionID),
		Status:        "applied",
	})
}
