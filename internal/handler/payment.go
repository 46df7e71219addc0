package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/allocation"
	"github.com/wisanuit/deptapp-sub002/internal/domain"
	"github.com/wisanuit/deptapp-sub002/internal/interest"
	"github.com/wisanuit/deptapp-sub002/internal/logging"
	"github.com/wisanuit/deptapp-sub002/internal/service"
)

type ledgerService interface {
	RecordPayment(ctx context.Context, req service.RecordPaymentRequest) (*service.RecordPaymentResult, error)
	DeletePayment(ctx context.Context, paymentID uuid.UUID) error
	RefreshAccrual(ctx context.Context, loanID uuid.UUID) (*interest.Result, error)
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*service.RecordPaymentResult, error)
}

type PaymentHandler struct {
	ledger ledgerService
}

func NewPaymentHandler(ledger ledgerService) *PaymentHandler {
	return &PaymentHandler{ledger: ledger}
}

type manualAllocationRequest struct {
	LoanID        uuid.UUID       `json:"loan_id"`
	PrincipalPaid decimal.Decimal `json:"principal_paid"`
	InterestPaid  decimal.Decimal `json:"interest_paid"`
}

type recordPaymentRequest struct {
	WorkspaceID uuid.UUID                 `json:"workspace_id"`
	Amount      decimal.Decimal           `json:"amount"`
	PaymentDate string                    `json:"payment_date"`
	Method      string                    `json:"method"`
	Note        *string                   `json:"note"`
	Allocations []manualAllocationRequest `json:"allocations"`
}

func (r recordPaymentRequest) Validate() []FieldError {
	var errs []FieldError

	if r.WorkspaceID == uuid.Nil {
		errs = append(errs, FieldError{Field: "workspace_id", Message: "required"})
	}

	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}

	if r.PaymentDate == "" {
		errs = append(errs, FieldError{Field: "payment_date", Message: "required"})
	} else if _, err := time.Parse("2006-01-02", r.PaymentDate); err != nil {
		errs = append(errs, FieldError{Field: "payment_date", Message: "must be YYYY-MM-DD"})
	}

	if len(r.Allocations) == 0 && !domain.AllocationMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "method", Message: "must be interest_first, principal_first, or fifo"})
	}

	return errs
}

type allocationDTO struct {
	ID            uuid.UUID       `json:"id"`
	LoanID        uuid.UUID       `json:"loan_id"`
	PrincipalPaid decimal.Decimal `json:"principal_paid"`
	InterestPaid  decimal.Decimal `json:"interest_paid"`
}

type paymentDTO struct {
	ID          uuid.UUID       `json:"id"`
	WorkspaceID uuid.UUID       `json:"workspace_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Note        *string         `json:"note,omitempty"`
	Allocations []allocationDTO `json:"allocations"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toPaymentDTO(res *service.RecordPaymentResult) paymentDTO {
	dto := paymentDTO{
		ID:          res.Payment.ID,
		WorkspaceID: res.Payment.WorkspaceID,
		Amount:      res.Payment.Amount,
		PaymentDate: res.Payment.PaymentDate.Format("2006-01-02"),
		Note:        res.Payment.Note,
		Allocations: make([]allocationDTO, 0, len(res.Allocations)),
		CreatedAt:   res.Payment.CreatedAt,
	}
	for _, a := range res.Allocations {
		dto.Allocations = append(dto.Allocations, allocationDTO{
			ID:            a.ID,
			LoanID:        a.LoanID,
			PrincipalPaid: a.PrincipalPaid,
			InterestPaid:  a.InterestPaid,
		})
	}
	return dto
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	paymentDate, _ := time.Parse("2006-01-02", req.PaymentDate)

	manual := make([]allocation.Item, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		manual = append(manual, allocation.Item{
			LoanID:        a.LoanID,
			PrincipalPaid: a.PrincipalPaid,
			InterestPaid:  a.InterestPaid,
		})
	}

	res, err := h.ledger.RecordPayment(r.Context(), service.RecordPaymentRequest{
		WorkspaceID: req.WorkspaceID,
		Amount:      req.Amount,
		PaymentDate: paymentDate,
		Note:        req.Note,
		Method:      domain.AllocationMethod(req.Method),
		Manual:      manual,
	})
	if err != nil {
		log.Warn("payment recording failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/payments/%s", res.Payment.ID))
	RespondSuccess(w, http.StatusCreated, toPaymentDTO(res))
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	res, err := h.ledger.GetPayment(r.Context(), paymentID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPaymentDTO(res))
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	paymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := h.ledger.DeletePayment(r.Context(), paymentID); err != nil {
		log.Warn("payment deletion failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"deleted": paymentID})
}

type breakdownDTO struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Days      int             `json:"days"`
	Principal decimal.Decimal `json:"principal"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
}

type accrualDTO struct {
	Total     decimal.Decimal `json:"total"`
	Breakdown []breakdownDTO  `json:"breakdown"`
}

func toAccrualDTO(res *interest.Result) accrualDTO {
	dto := accrualDTO{Total: res.Total, Breakdown: make([]breakdownDTO, 0, len(res.Breakdown))}
	for _, b := range res.Breakdown {
		dto.Breakdown = append(dto.Breakdown, breakdownDTO{
			From:      b.From.Format("2006-01-02"),
			To:        b.To.Format("2006-01-02"),
			Days:      b.Days,
			Principal: b.Principal,
			Rate:      b.Rate,
			Amount:    b.Amount,
		})
	}
	return dto
}

func (h *PaymentHandler) RefreshAccrual(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	loanID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	res, err := h.ledger.RefreshAccrual(r.Context(), loanID)
	if err != nil {
		log.Warn("accrual refresh failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccrualDTO(res))
}
