package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"payments-engine/internal/domain"
	"payments-engine/internal/errors"
	"payments-engine/internal/service"
)

type AccountHandler struct {
	ledgerService *service.LedgerService
}

func NewAccountHandler(ledgerService *service.LedgerService) *AccountHandler {
	return &AccountHandler{
		ledgerService: ledgerService,
	}
}

type AccountResponse struct {
	ClientID  uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

func accountResponse(report domain.AccountReport) AccountResponse {
	return AccountResponse{
		ClientID:  uint16(report.ClientID),
		Available: report.Available.StringFixed(4),
		Held:      report.Held.StringFixed(4),
		Total:     report.Total.StringFixed(4),
		Locked:    report.Locked,
	}
}

// ListAccounts returns the snapshot of every account ever touched.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	reports := h.ledgerService.Snapshot()

	responses := make([]AccountResponse, 0, len(reports))
	for _, report := range reports {
		responses = append(responses, accountResponse(report))
	}

	writeJSON(w, http.StatusOK, responses)
}

// GetAccount returns a single account's state.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	clientID, err := strconv.ParseUint(vars["client_id"], 10, 16)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid client id"))
		return
	}

	report, err := h.ledgerService.Account(domain.ClientID(clientID))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accountResponse(report))
}

// PersistSnapshot writes the current snapshot to the audit store.
func (h *AccountHandler) PersistSnapshot(w http.ResponseWriter, r *http.Request) {
	if !h.ledgerService.AuditEnabled() {
		writeError(w, errors.NewAppError(errors.InvalidInput, "no audit store configured"))
		return
	}

	runID, err := h.ledgerService.PersistSnapshot()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"run_id": runID.String()})
}
