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
	"github.com/wisanuit/deptapp-sub002/internal/service"
)

type installmentService interface {
	CreatePlan(ctx context.Context, req service.CreatePlanRequest) (*service.PlanResult, error)
	PayInstallment(ctx context.Context, installmentID uuid.UUID, amount decimal.Decimal) (*domain.Installment, error)
	CorrectInstallment(ctx context.Context, installmentID uuid.UUID, amount decimal.Decimal) (*domain.Installment, error)
	GetPlan(ctx context.Context, planID uuid.UUID) (*service.PlanResult, error)
}

type InstallmentHandler struct {
	plans installmentService
}

func NewInstallmentHandler(plans installmentService) *InstallmentHandler {
	return &InstallmentHandler{plans: plans}
}

type createPlanRequest struct {
	WorkspaceID   uuid.UUID       `json:"workspace_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DownPayment   decimal.Decimal `json:"down_payment"`
	NumberOfTerms int             `json:"number_of_terms"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	StartDate     string          `json:"start_date"`
}

func (r createPlanRequest) Validate() []FieldError {
	var errs []FieldError

	if r.WorkspaceID == uuid.Nil {
		errs = append(errs, FieldError{Field: "workspace_id", Message: "required"})
	}
	if r.TotalAmount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "total_amount", Message: "must be greater than 0"})
	}
	if r.DownPayment.IsNegative() {
		errs = append(errs, FieldError{Field: "down_payment", Message: "cannot be negative"})
	}
	if r.NumberOfTerms <= 0 {
		errs = append(errs, FieldError{Field: "number_of_terms", Message: "must be greater than 0"})
	}
	if r.InterestRate.IsNegative() {
		errs = append(errs, FieldError{Field: "interest_rate", Message: "cannot be negative"})
	}
	if r.StartDate == "" {
		errs = append(errs, FieldError{Field: "start_date", Message: "required"})
	} else if _, err := time.Parse("2006-01-02", r.StartDate); err != nil {
		errs = append(errs, FieldError{Field: "start_date", Message: "must be YYYY-MM-DD"})
	}

	return errs
}

type installmentDTO struct {
	ID              uuid.UUID       `json:"id"`
	TermNumber      int             `json:"term_number"`
	DueDate         string          `json:"due_date"`
	Amount          decimal.Decimal `json:"amount"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestAmount  decimal.Decimal `json:"interest_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Status          string          `json:"status"`
}

type planDTO struct {
	ID            uuid.UUID        `json:"id"`
	WorkspaceID   uuid.UUID        `json:"workspace_id"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	DownPayment   decimal.Decimal  `json:"down_payment"`
	NumberOfTerms int              `json:"number_of_terms"`
	TermAmount    decimal.Decimal  `json:"term_amount"`
	InterestRate  decimal.Decimal  `json:"interest_rate"`
	StartDate     string           `json:"start_date"`
	Status        string           `json:"status"`
	Installments  []installmentDTO `json:"installments"`
}

func toInstallmentDTO(inst *domain.Installment) installmentDTO {
	return installmentDTO{
		ID:              inst.ID,
		TermNumber:      inst.TermNumber,
		DueDate:         inst.DueDate.Format("2006-01-02"),
		Amount:          inst.Amount,
		PrincipalAmount: inst.PrincipalAmount,
		InterestAmount:  inst.InterestAmount,
		PaidAmount:      inst.PaidAmount,
		Status:          string(inst.Status),
	}
}

func toPlanDTO(res *service.PlanResult) planDTO {
	dto := planDTO{
		ID:            res.Plan.ID,
		WorkspaceID:   res.Plan.WorkspaceID,
		TotalAmount:   res.Plan.TotalAmount,
		DownPayment:   res.Plan.DownPayment,
		NumberOfTerms: res.Plan.NumberOfTerms,
		TermAmount:    res.Plan.TermAmount,
		InterestRate:  res.Plan.InterestRate,
		StartDate:     res.Plan.StartDate.Format("2006-01-02"),
		Status:        string(res.Plan.Status),
		Installments:  make([]installmentDTO, 0, len(res.Installments)),
	}
	for i := range res.Installments {
		dto.Installments = append(dto.Installments, toInstallmentDTO(&res.Installments[i]))
	}
	return dto
}

func (h *InstallmentHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	startDate, _ := time.Parse("2006-01-02", req.StartDate)

	res, err := h.plans.CreatePlan(r.Context(), service.CreatePlanRequest{
		WorkspaceID:   req.WorkspaceID,
		TotalAmount:   req.TotalAmount,
		DownPayment:   req.DownPayment,
		NumberOfTerms: req.NumberOfTerms,
		InterestRate:  req.InterestRate,
		StartDate:     startDate,
	})
	if err != nil {
		log.Warn("plan creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/installment-plans/%s", res.Plan.ID))
	RespondSuccess(w, http.StatusCreated, toPlanDTO(res))
}

func (h *InstallmentHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	res, err := h.plans.GetPlan(r.Context(), planID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("plan lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPlanDTO(res))
}

type payInstallmentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Correct bool            `json:"correct"`
}

func (h *InstallmentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	installmentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req payInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var inst *domain.Installment
	if req.Correct {
		inst, err = h.plans.CorrectInstallment(r.Context(), installmentID, req.Amount)
	} else {
		inst, err = h.plans.PayInstallment(r.Context(), installmentID, req.Amount)
	}
	if err != nil {
		log.Warn("installment payment failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toInstallmentDTO(inst))
}
