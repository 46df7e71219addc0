package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wisanuit/deptapp-sub002/internal/domain"
	"github.com/wisanuit/deptapp-sub002/internal/logging"
)

type loanStore interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
}

type LoanHandler struct {
	loans loanStore
}

func NewLoanHandler(loans loanStore) *LoanHandler {
	return &LoanHandler{loans: loans}
}

type createLoanRequest struct {
	WorkspaceID uuid.UUID       `json:"workspace_id"`
	PolicyID    *uuid.UUID      `json:"policy_id"`
	Type        string          `json:"type"`
	Principal   decimal.Decimal `json:"principal"`
	StartDate   string          `json:"start_date"`
	DueDate     *string         `json:"due_date"`
}

func (r createLoanRequest) Validate() []FieldError {
	var errs []FieldError

	if r.WorkspaceID == uuid.Nil {
		errs = append(errs, FieldError{Field: "workspace_id", Message: "required"})
	}
	if t := domain.LoanType(r.Type); t != domain.LoanTypeReceivable && t != domain.LoanTypePayable {
		errs = append(errs, FieldError{Field: "type", Message: "must be receivable or payable"})
	}
	if r.Principal.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "principal", Message: "must be greater than 0"})
	}
	if r.StartDate == "" {
		errs = append(errs, FieldError{Field: "start_date", Message: "required"})
	} else if _, err := time.Parse("2006-01-02", r.StartDate); err != nil {
		errs = append(errs, FieldError{Field: "start_date", Message: "must be YYYY-MM-DD"})
	}
	if r.DueDate != nil {
		if _, err := time.Parse("2006-01-02", *r.DueDate); err != nil {
			errs = append(errs, FieldError{Field: "due_date", Message: "must be YYYY-MM-DD"})
		}
	}

	return errs
}

type loanDTO struct {
	ID                 uuid.UUID       `json:"id"`
	WorkspaceID        uuid.UUID       `json:"workspace_id"`
	PolicyID           *uuid.UUID      `json:"policy_id,omitempty"`
	Type               string          `json:"type"`
	Principal          decimal.Decimal `json:"principal"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	AccruedInterest    decimal.Decimal `json:"accrued_interest"`
	StartDate          string          `json:"start_date"`
	DueDate            *string         `json:"due_date,omitempty"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
}

func toLoanDTO(l *domain.Loan) loanDTO {
	dto := loanDTO{
		ID:                 l.ID,
		WorkspaceID:        l.WorkspaceID,
		PolicyID:           l.PolicyID,
		Type:               string(l.Type),
		Principal:          l.Principal,
		RemainingPrincipal: l.RemainingPrincipal,
		AccruedInterest:    l.AccruedInterest,
		StartDate:          l.StartDate.Format("2006-01-02"),
		Status:             string(l.Status),
		CreatedAt:          l.CreatedAt,
	}
	if l.DueDate != nil {
		d := l.DueDate.Format("2006-01-02")
		dto.DueDate = &d
	}
	return dto
}

func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	startDate, _ := time.Parse("2006-01-02", req.StartDate)
	var dueDate *time.Time
	if req.DueDate != nil {
		d, _ := time.Parse("2006-01-02", *req.DueDate)
		dueDate = &d
	}

	now := time.Now().UTC()
	loan := domain.Loan{
		ID:                 uuid.New(),
		WorkspaceID:        req.WorkspaceID,
		PolicyID:           req.PolicyID,
		Type:               domain.LoanType(req.Type),
		Principal:          req.Principal,
		RemainingPrincipal: req.Principal,
		AccruedInterest:    decimal.Zero,
		StartDate:          startDate,
		DueDate:            dueDate,
		Status:             domain.LoanStatusOpen,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := h.loans.Create(r.Context(), &loan); err != nil {
		log.Warn("loan creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/loans/%s", loan.ID))
	RespondSuccess(w, http.StatusCreated, toLoanDTO(&loan))
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	loan, err := h.loans.GetByID(r.Context(), loanID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("loan lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toLoanDTO(loan))
}
