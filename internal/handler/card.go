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

type cardService interface {
	CreateCard(ctx context.Context, req service.CreateCardRequest) (*domain.CreditCard, error)
	AddTransaction(ctx context.Context, cardID uuid.UUID, amount decimal.Decimal) (*domain.CreditCard, error)
	GenerateStatement(ctx context.Context, cardID uuid.UUID, statementDate time.Time) (*domain.CreditCardStatement, error)
	PayStatement(ctx context.Context, statementID uuid.UUID, amount decimal.Decimal) (*domain.CreditCardStatement, error)
	ListStatements(ctx context.Context, cardID uuid.UUID) ([]domain.CreditCardStatement, error)
}

type CardHandler struct {
	cards cardService
}

func NewCardHandler(cards cardService) *CardHandler {
	return &CardHandler{cards: cards}
}

type createCardRequest struct {
	WorkspaceID       uuid.UUID        `json:"workspace_id"`
	Name              string           `json:"name"`
	CreditLimit       decimal.Decimal  `json:"credit_limit"`
	InterestRate      decimal.Decimal  `json:"interest_rate"`
	StatementCutDay   int              `json:"statement_cut_day"`
	PaymentDueDays    int              `json:"payment_due_days"`
	MinPaymentPercent decimal.Decimal  `json:"min_payment_percent"`
	MinPaymentFixed   *decimal.Decimal `json:"min_payment_fixed"`
}

func (r createCardRequest) Validate() []FieldError {
	var errs []FieldError

	if r.WorkspaceID == uuid.Nil {
		errs = append(errs, FieldError{Field: "workspace_id", Message: "required"})
	}
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.CreditLimit.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "credit_limit", Message: "must be greater than 0"})
	}
	if r.StatementCutDay < 1 || r.StatementCutDay > 31 {
		errs = append(errs, FieldError{Field: "statement_cut_day", Message: "must be between 1 and 31"})
	}
	if r.PaymentDueDays < 0 {
		errs = append(errs, FieldError{Field: "payment_due_days", Message: "cannot be negative"})
	}

	return errs
}

type cardDTO struct {
	ID                uuid.UUID        `json:"id"`
	WorkspaceID       uuid.UUID        `json:"workspace_id"`
	Name              string           `json:"name"`
	CreditLimit       decimal.Decimal  `json:"credit_limit"`
	CurrentBalance    decimal.Decimal  `json:"current_balance"`
	InterestRate      decimal.Decimal  `json:"interest_rate"`
	StatementCutDay   int              `json:"statement_cut_day"`
	PaymentDueDays    int              `json:"payment_due_days"`
	MinPaymentPercent decimal.Decimal  `json:"min_payment_percent"`
	MinPaymentFixed   *decimal.Decimal `json:"min_payment_fixed,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

func toCardDTO(c *domain.CreditCard) cardDTO {
	return cardDTO{
		ID:                c.ID,
		WorkspaceID:       c.WorkspaceID,
		Name:              c.Name,
		CreditLimit:       c.CreditLimit,
		CurrentBalance:    c.CurrentBalance,
		InterestRate:      c.InterestRate,
		StatementCutDay:   c.StatementCutDay,
		PaymentDueDays:    c.PaymentDueDays,
		MinPaymentPercent: c.MinPaymentPercent,
		MinPaymentFixed:   c.MinPaymentFixed,
		CreatedAt:         c.CreatedAt,
	}
}

type statementDTO struct {
	ID              uuid.UUID       `json:"id"`
	CardID          uuid.UUID       `json:"card_id"`
	StatementDate   string          `json:"statement_date"`
	DueDate         string          `json:"due_date"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	ClosingBalance  decimal.Decimal `json:"closing_balance"`
	MinimumPayment  decimal.Decimal `json:"minimum_payment"`
	InterestCharged decimal.Decimal `json:"interest_charged"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	IsPaid          bool            `json:"is_paid"`
}

func toStatementDTO(st *domain.CreditCardStatement) statementDTO {
	return statementDTO{
		ID:              st.ID,
		CardID:          st.CardID,
		StatementDate:   st.StatementDate.Format("2006-01-02"),
		DueDate:         st.DueDate.Format("2006-01-02"),
		OpeningBalance:  st.OpeningBalance,
		ClosingBalance:  st.ClosingBalance,
		MinimumPayment:  st.MinimumPayment,
		InterestCharged: st.InterestCharged,
		TotalPaid:       st.TotalPaid,
		IsPaid:          st.IsPaid,
	}
}

func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	card, err := h.cards.CreateCard(r.Context(), service.CreateCardRequest{
		WorkspaceID:       req.WorkspaceID,
		Name:              req.Name,
		CreditLimit:       req.CreditLimit,
		InterestRate:      req.InterestRate,
		StatementCutDay:   req.StatementCutDay,
		PaymentDueDays:    req.PaymentDueDays,
		MinPaymentPercent: req.MinPaymentPercent,
		MinPaymentFixed:   req.MinPaymentFixed,
	})
	if err != nil {
		log.Warn("card creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/cards/%s", card.ID))
	RespondSuccess(w, http.StatusCreated, toCardDTO(card))
}

type addTransactionRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *CardHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be greater than 0"}})
		return
	}

	card, err := h.cards.AddTransaction(r.Context(), cardID, req.Amount)
	if err != nil {
		log.Warn("card transaction failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCardDTO(card))
}

type generateStatementRequest struct {
	StatementDate string `json:"statement_date"`
}

func (h *CardHandler) GenerateStatement(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req generateStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	statementDate, err := time.Parse("2006-01-02", req.StatementDate)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "statement_date", Message: "must be YYYY-MM-DD"}})
		return
	}

	st, err := h.cards.GenerateStatement(r.Context(), cardID, statementDate)
	if err != nil {
		log.Warn("statement generation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/statements/%s", st.ID))
	RespondSuccess(w, http.StatusCreated, toStatementDTO(st))
}

func (h *CardHandler) ListStatements(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	sts, err := h.cards.ListStatements(r.Context(), cardID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("statement listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]statementDTO, 0, len(sts))
	for i := range sts {
		dtos = append(dtos, toStatementDTO(&sts[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type payStatementRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *CardHandler) PayStatement(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	statementID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req payStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be greater than 0"}})
		return
	}

	st, err := h.cards.PayStatement(r.Context(), statementID, req.Amount)
	if err != nil {
		log.Warn("statement payment failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toStatementDTO(st))
}
