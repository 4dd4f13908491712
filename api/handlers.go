/*
handlers.go - HTTP API handlers for the billing engine

PURPOSE:
  Exposes the billing service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every billing decision to the service.

ENDPOINTS:
  Contracts:
    GET    /api/contracts                    List contracts
    POST   /api/contracts                    Create contract + schedule
    GET    /api/contracts/{id}               Get contract
    GET    /api/contracts/{id}/installments  Get installment schedule
    PUT    /api/contracts/{id}/installments  Change installment count
    POST   /api/contracts/{id}/payments      Record manual payment
    POST   /api/contracts/{id}/installments/{number}/settle
                                             Mark one installment paid

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (invalid schedule)
  - 404: Contract/installment not found
  - 409: Conflict (overpayment, unacknowledged destructive regeneration,
         already-paid installment)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - billing/service.go: The façade behind every handler
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carebill/billing-engine/billing"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *billing.Service
}

// NewHandler creates a new handler around the billing service.
func NewHandler(service *billing.Service) *Handler {
	return &Handler{Service: service}
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// ListContracts returns all contracts, newest first.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.Service.ListContracts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}

	dtos := make([]ContractDTO, len(contracts))
	for i, c := range contracts {
		dtos[i] = toContractDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetContract returns a single contract.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id := billing.ContractID(chi.URLParam(r, "id"))

	contract, err := h.Service.GetContract(r.Context(), id)
	if err != nil {
		writeBillingError(w, "Failed to get contract", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(contract))
}

// GetInstallments returns a contract's installment schedule.
func (h *Handler) GetInstallments(w http.ResponseWriter, r *http.Request) {
	id := billing.ContractID(chi.URLParam(r, "id"))

	if _, err := h.Service.GetContract(r.Context(), id); err != nil {
		writeBillingError(w, "Failed to get contract", err)
		return
	}
	installments, err := h.Service.Installments(r.Context(), id)
	if err != nil {
		writeBillingError(w, "Failed to load installments", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallmentDTOs(installments))
}

// CreateContract creates a contract with its generated, classified, and
// reconciled installment schedule.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "client_id is required", nil)
		return
	}

	total, err := billing.ParseMoney(req.TotalAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid total_amount", err)
		return
	}

	var firstDue billing.Date
	if req.FirstDueDate != "" {
		firstDue, err = billing.ParseDate(req.FirstDueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid first_due_date", err)
			return
		}
	}

	cadence, err := parseCadence(req.Cadence, req.CadenceDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cadence", err)
		return
	}

	contract, installments, err := h.Service.CreateContract(r.Context(), billing.CreateContractInput{
		ClientID:         billing.ClientID(req.ClientID),
		Description:      req.Description,
		TotalAmount:      total,
		Arrangement:      billing.Arrangement(req.Arrangement),
		InstallmentCount: req.InstallmentCount,
		Cadence:          cadence,
		FirstDueDate:     firstDue,
		ManualFirstPaid:  req.ManualFirstPaid,
	})
	if err != nil {
		writeBillingError(w, "Failed to create contract", err)
		return
	}

	contractsCreated.Inc()
	writeJSON(w, http.StatusCreated, ContractResponse{
		Contract:     toContractDTO(contract),
		Installments: toInstallmentDTOs(installments),
	})
}

// ChangeInstallmentCount regenerates a contract's schedule with a new
// count. Destructive when paid history exists; the caller must
// acknowledge or the request fails with 409.
func (h *Handler) ChangeInstallmentCount(w http.ResponseWriter, r *http.Request) {
	id := billing.ContractID(chi.URLParam(r, "id"))

	var req ChangeInstallmentCountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Service.ChangeInstallmentCount(r.Context(), id, req.InstallmentCount, req.AcknowledgeDestructive)
	if err != nil {
		writeBillingError(w, "Failed to change installment count", err)
		return
	}

	schedulesRegenerated.Inc()
	resp := ContractResponse{
		Contract:     toContractDTO(result.Contract),
		Installments: toInstallmentDTOs(result.Installments),
	}
	if result.Warning != nil {
		resp.Warning = result.Warning.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecordPayment records a contract-level manual payment, allocated to the
// earliest unpaid installments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id := billing.ContractID(chi.URLParam(r, "id"))

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := billing.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	contract, err := h.Service.RecordManualPayment(r.Context(), id, amount)
	if err != nil {
		writeBillingError(w, "Failed to record payment", err)
		return
	}

	paymentsRecorded.Inc()
	writeJSON(w, http.StatusOK, toContractDTO(contract))
}

// SettleInstallment marks a single installment fully paid.
func (h *Handler) SettleInstallment(w http.ResponseWriter, r *http.Request) {
	id := billing.ContractID(chi.URLParam(r, "id"))
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid installment number", err)
		return
	}

	contract, installment, err := h.Service.SettleInstallment(r.Context(), id, number)
	if err != nil {
		writeBillingError(w, "Failed to settle installment", err)
		return
	}

	paymentsRecorded.Inc()
	writeJSON(w, http.StatusOK, struct {
		Contract    ContractDTO    `json:"contract"`
		Installment InstallmentDTO `json:"installment"`
	}{
		Contract:    toContractDTO(contract),
		Installment: toInstallmentDTO(installment),
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseCadence(kind string, days int) (billing.Cadence, error) {
	if kind == "" {
		// Monthly is the dashboard's default spacing.
		return billing.Monthly(), nil
	}
	c := billing.Cadence{Kind: billing.CadenceKind(kind), Days: days}
	return c, c.Validate()
}

// writeBillingError maps billing errors to HTTP statuses.
func writeBillingError(w http.ResponseWriter, message string, err error) {
	switch {
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, billing.ErrOverpayment),
		errors.Is(err, billing.ErrDestructiveRegeneration),
		errors.Is(err, billing.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, message, err)
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
