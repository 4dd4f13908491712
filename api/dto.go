/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the billing domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Handlers validate and translate; DTOs are pure data carriers. Amounts
  cross the wire as decimal strings ("1000.00"), never as floats, and
  dates as ISO YYYY-MM-DD.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/types.go: The domain model behind them
*/
package api

import (
	"time"

	"github.com/carebill/billing-engine/billing"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ContractDTO represents a contract in API responses.
type ContractDTO struct {
	ID               string `json:"id"`
	ClientID         string `json:"client_id"`
	Description      string `json:"description,omitempty"`
	TotalAmount      string `json:"total_amount"`
	Arrangement      string `json:"arrangement"`
	InstallmentCount int    `json:"installment_count"`
	Cadence          string `json:"cadence,omitempty"`
	CadenceDays      int    `json:"cadence_days,omitempty"`
	FirstDueDate     string `json:"first_due_date"`
	AmountReceived   string `json:"amount_received"`
	AmountPending    string `json:"amount_pending"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// InstallmentDTO represents one installment in API responses.
type InstallmentDTO struct {
	ID                string  `json:"id"`
	ContractID        string  `json:"contract_id"`
	Number            int     `json:"number"`
	TotalInstallments int     `json:"total_installments"`
	Amount            string  `json:"amount"`
	AmountPaid        string  `json:"amount_paid"`
	DueDate           string  `json:"due_date"`
	Status            string  `json:"status"`
	PaidAt            *string `json:"paid_at,omitempty"`
}

// CreateContractRequest is the request to create a contract.
type CreateContractRequest struct {
	ClientID         string `json:"client_id"`
	Description      string `json:"description,omitempty"`
	TotalAmount      string `json:"total_amount"`
	Arrangement      string `json:"arrangement"`
	InstallmentCount int    `json:"installment_count,omitempty"`
	Cadence          string `json:"cadence,omitempty"`
	CadenceDays      int    `json:"cadence_days,omitempty"`
	FirstDueDate     string `json:"first_due_date,omitempty"`
	ManualFirstPaid  bool   `json:"manual_first_paid,omitempty"`
}

// ContractResponse bundles a contract with its installment set.
type ContractResponse struct {
	Contract     ContractDTO      `json:"contract"`
	Installments []InstallmentDTO `json:"installments"`
	Warning      string           `json:"warning,omitempty"`
}

// ChangeInstallmentCountRequest regenerates a contract's schedule.
// AcknowledgeDestructive must be true when the current schedule carries
// payments; otherwise the request is rejected with 409.
type ChangeInstallmentCountRequest struct {
	InstallmentCount       int  `json:"installment_count"`
	AcknowledgeDestructive bool `json:"acknowledge_destructive,omitempty"`
}

// RecordPaymentRequest records a contract-level manual payment.
type RecordPaymentRequest struct {
	Amount string `json:"amount"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toContractDTO(c billing.Contract) ContractDTO {
	dto := ContractDTO{
		ID:               string(c.ID),
		ClientID:         string(c.ClientID),
		Description:      c.Description,
		TotalAmount:      c.TotalAmount.StringFixed(),
		Arrangement:      string(c.Arrangement),
		InstallmentCount: c.InstallmentCount,
		FirstDueDate:     c.FirstDueDate.String(),
		AmountReceived:   c.AmountReceived.StringFixed(),
		AmountPending:    c.AmountPending.StringFixed(),
	}
	if c.InstallmentCount > 1 {
		dto.Cadence = string(c.Cadence.Kind)
		if c.Cadence.Kind == billing.CadenceCustom {
			dto.CadenceDays = c.Cadence.Days
		}
	}
	if !c.CreatedAt.IsZero() {
		dto.CreatedAt = c.CreatedAt.Format(time.RFC3339)
	}
	if !c.UpdatedAt.IsZero() {
		dto.UpdatedAt = c.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func toInstallmentDTO(inst billing.Installment) InstallmentDTO {
	dto := InstallmentDTO{
		ID:                string(inst.ID),
		ContractID:        string(inst.ContractID),
		Number:            inst.Number,
		TotalInstallments: inst.TotalInstallments,
		Amount:            inst.Amount.StringFixed(),
		AmountPaid:        inst.AmountPaid.StringFixed(),
		DueDate:           inst.DueDate.String(),
		Status:            string(inst.Status),
	}
	if inst.PaidAt != nil {
		s := inst.PaidAt.Format(time.RFC3339)
		dto.PaidAt = &s
	}
	return dto
}

func toInstallmentDTOs(installments []billing.Installment) []InstallmentDTO {
	dtos := make([]InstallmentDTO, len(installments))
	for i, inst := range installments {
		dtos[i] = toInstallmentDTO(inst)
	}
	return dtos
}
