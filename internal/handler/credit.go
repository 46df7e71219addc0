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

type creditService interface {
	CreateCredit(ctx context.Context, workspaceID uuid.UUID, limit decimal.Decimal) (*domain.CustomerCredit, error)
	ApplyCredit(ctx context.Context, creditID uuid.UUID, amount decimal.Decimal, note *string) (*domain.CustomerCredit, error)
	RestoreCredit(ctx context.Context, creditID uuid.UUID, amount decimal.Decimal, note *string) (*domain.CustomerCredit, error)
	GetCredit(ctx context.Context, creditID uuid.UUID) (*domain.CustomerCredit, []domain.CreditHistory, error)
}

type CreditHandler struct {
	credits creditService
}

func NewCreditHandler(credits creditService) *CreditHandler {
	return &CreditHandler{credits: credits}
}

type createCreditRequest struct {
	WorkspaceID uuid.UUID       `json:"workspace_id"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

type creditDTO struct {
	ID              uuid.UUID       `json:"id"`
	WorkspaceID     uuid.UUID       `json:"workspace_id"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	UsedCredit      decimal.Decimal `json:"used_credit"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	RiskLevel       string          `json:"risk_level"`
	CreatedAt       time.Time       `json:"created_at"`
}

type creditHistoryDTO struct {
	ID         uuid.UUID       `json:"id"`
	Action     string          `json:"action"`
	Amount     decimal.Decimal `json:"amount"`
	UsedBefore decimal.Decimal `json:"used_before"`
	UsedAfter  decimal.Decimal `json:"used_after"`
	Note       *string         `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toCreditDTO(c *domain.CustomerCredit) creditDTO {
	return creditDTO{
		ID:              c.ID,
		WorkspaceID:     c.WorkspaceID,
		CreditLimit:     c.CreditLimit,
		UsedCredit:      c.UsedCredit,
		AvailableCredit: c.AvailableCredit,
		RiskLevel:       string(c.RiskLevel),
		CreatedAt:       c.CreatedAt,
	}
}

func (h *CreditHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req createCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var fields []FieldError
	if req.WorkspaceID == uuid.Nil {
		fields = append(fields, FieldError{Field: "workspace_id", Message: "required"})
	}
	if req.CreditLimit.LessThanOrEqual(decimal.Zero) {
		fields = append(fields, FieldError{Field: "credit_limit", Message: "must be greater than 0"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	credit, err := h.credits.CreateCredit(r.Context(), req.WorkspaceID, req.CreditLimit)
	if err != nil {
		log.Warn("credit creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/credits/%s", credit.ID))
	RespondSuccess(w, http.StatusCreated, toCreditDTO(credit))
}

type creditMutationRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   *string         `json:"note"`
}

func (h *CreditHandler) Apply(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.credits.ApplyCredit)
}

func (h *CreditHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.credits.RestoreCredit)
}

func (h *CreditHandler) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, decimal.Decimal, *string) (*domain.CustomerCredit, error)) {
	log := logging.FromContext(r.Context())

	creditID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req creditMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be greater than 0"}})
		return
	}

	credit, err := op(r.Context(), creditID, req.Amount, req.Note)
	if err != nil {
		log.Warn("credit mutation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCreditDTO(credit))
}

func (h *CreditHandler) Get(w http.ResponseWriter, r *http.Request) {
	creditID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	credit, history, err := h.credits.GetCredit(r.Context(), creditID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("credit lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	historyDTOs := make([]creditHistoryDTO, 0, len(history))
	for _, entry := range history {
		historyDTOs = append(historyDTOs, creditHistoryDTO{
			ID:         entry.ID,
			Action:     string(entry.Action),
			Amount:     entry.Amount,
			UsedBefore: entry.UsedBefore,
			UsedAfter:  entry.UsedAfter,
			Note:       entry.Note,
			CreatedAt:  entry.CreatedAt,
		})
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"credit":  toCreditDTO(credit),
		"history": historyDTOs,
	})
}
