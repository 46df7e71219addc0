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
	"github.com/wisanuit/deptapp-sub002/internal/interest"
	"github.com/wisanuit/deptapp-sub002/internal/logging"
)

type policyStore interface {
	Create(ctx context.Context, p *domain.InterestPolicy) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InterestPolicy, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PolicyHandler struct {
	policies policyStore
}

func NewPolicyHandler(policies policyStore) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

type createPolicyRequest struct {
	WorkspaceID uuid.UUID       `json:"workspace_id"`
	Name        string          `json:"name"`
	Mode        string          `json:"mode"`
	Rate        decimal.Decimal `json:"rate"`
	AnchorDay   int             `json:"anchor_day"`
	GraceDays   int             `json:"grace_days"`
}

func (r createPolicyRequest) Validate() []FieldError {
	var errs []FieldError

	if r.WorkspaceID == uuid.Nil {
		errs = append(errs, FieldError{Field: "workspace_id", Message: "required"})
	}
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !domain.InterestMode(r.Mode).IsValid() {
		errs = append(errs, FieldError{Field: "mode", Message: "must be daily or monthly"})
	}
	if r.Rate.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "rate", Message: "must be greater than 0"})
	}
	if domain.InterestMode(r.Mode) == domain.InterestModeMonthly && (r.AnchorDay < 1 || r.AnchorDay > 31) {
		errs = append(errs, FieldError{Field: "anchor_day", Message: "must be between 1 and 31"})
	}
	if r.GraceDays < 0 {
		errs = append(errs, FieldError{Field: "grace_days", Message: "cannot be negative"})
	}

	return errs
}

type policyDTO struct {
	ID          uuid.UUID       `json:"id"`
	WorkspaceID uuid.UUID       `json:"workspace_id"`
	Name        string          `json:"name"`
	Mode        string          `json:"mode"`
	Rate        decimal.Decimal `json:"rate"`
	AnchorDay   int             `json:"anchor_day"`
	GraceDays   int             `json:"grace_days"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toPolicyDTO(p *domain.InterestPolicy) policyDTO {
	return policyDTO{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		Name:        p.Name,
		Mode:        string(p.Mode),
		Rate:        p.Rate,
		AnchorDay:   p.AnchorDay,
		GraceDays:   p.GraceDays,
		CreatedAt:   p.CreatedAt,
	}
}

func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req createPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	now := time.Now().UTC()
	policy := domain.InterestPolicy{
		ID:          uuid.New(),
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Mode:        domain.InterestMode(req.Mode),
		Rate:        req.Rate,
		AnchorDay:   req.AnchorDay,
		GraceDays:   req.GraceDays,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.policies.Create(r.Context(), &policy); err != nil {
		log.Warn("policy creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/policies/%s", policy.ID))
	RespondSuccess(w, http.StatusCreated, toPolicyDTO(&policy))
}

func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	policyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	policy, err := h.policies.GetByID(r.Context(), policyID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("policy lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPolicyDTO(policy))
}

func (h *PolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	policyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := h.policies.Delete(r.Context(), policyID); err != nil {
		log.Warn("policy deletion failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"deleted": policyID})
}

type checkRateRequest struct {
	Rate decimal.Decimal `json:"rate"`
	Mode string          `json:"mode"`
}

type checkRateDTO struct {
	IsLegal    bool            `json:"is_legal"`
	Annualized decimal.Decimal `json:"annualized"`
	Message    string          `json:"message"`
}

// CheckRate reports whether a rate is within the statutory annual ceiling
// without persisting anything.
func (h *PolicyHandler) CheckRate(w http.ResponseWriter, r *http.Request) {
	var req checkRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	res, err := interest.CheckRateLegality(req.Rate, domain.InterestMode(req.Mode))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "mode", Message: "must be daily or monthly"}})
		return
	}

	RespondSuccess(w, http.StatusOK, checkRateDTO{
		IsLegal:    res.IsLegal,
		Annualized: res.Annualized,
		Message:    res.Message,
	})
}
