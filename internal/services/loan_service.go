package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/loan"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// LoanView is a stored loan with its repayment status.
type LoanView struct {
	core.Loan
	Repayment loan.Status `json:"repayment"`
}

type LoanService struct {
	store  storage.LoanStore
	logger *log.Logger
	newID  func() string
}

func NewLoanService(store storage.LoanStore, logger *log.Logger) *LoanService {
	if logger == nil {
		logger = log.Default()
	}
	return &LoanService{
		store:  store,
		logger: logger.WithComponent(log.ComponentLoan),
		newID:  uuid.NewString,
	}
}

func (s *LoanService) Create(ctx context.Context, ownerID string, l core.Loan) (LoanView, error) {
	l.ID = s.newID()
	l.OwnerID = ownerID
	l.Name = strings.TrimSpace(l.Name)
	l.Lender = strings.TrimSpace(l.Lender)
	l.TotalPaid = decimal.Zero
	if err := l.Validate(); err != nil {
		return LoanView{}, invalidInput(err)
	}
	if err := s.store.CreateLoan(ctx, l); err != nil {
		return LoanView{}, fmt.Errorf("save loan: %w", err)
	}
	s.logger.InfoContext(ctx, "Loan created",
		log.FieldOperation, log.OpCreate,
		log.FieldOwnerID, ownerID,
		log.FieldLoanID, l.ID)
	return s.view(ctx, l), nil
}

// List returns every loan of ownerID with its repayment status.
func (s *LoanService) List(ctx context.Context, ownerID string) ([]LoanView, error) {
	loans, err := s.store.ListLoans(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	out := make([]LoanView, 0, len(loans))
	for _, l := range loans {
		out = append(out, s.view(ctx, l))
	}
	return out, nil
}

// RecordPayment adds a positive payment to the loan's total paid.
func (s *LoanService) RecordPayment(ctx context.Context, ownerID, id string, amount decimal.Decimal) (LoanView, error) {
	if !amount.IsPositive() {
		return LoanView{}, invalidInput(core.ErrInvalidPayment)
	}
	l, err := s.store.RecordLoanPayment(ctx, ownerID, id, amount)
	if err != nil {
		return LoanView{}, fmt.Errorf("record payment: %w", err)
	}
	s.logger.InfoContext(ctx, "Loan payment recorded",
		log.FieldOperation, log.OpUpdate,
		log.FieldOwnerID, ownerID,
		log.FieldLoanID, id,
		log.FieldAmount, amount.String())
	return s.view(ctx, l), nil
}

func (s *LoanService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteLoan(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	s.logger.InfoContext(ctx, "Loan deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldOwnerID, ownerID,
		log.FieldLoanID, id)
	return nil
}

// view attaches the repayment status. A stored loan with an unusable
// principal gets a zero status instead of failing the whole list.
func (s *LoanService) view(ctx context.Context, l core.Loan) LoanView {
	st, err := loan.RepaymentOf(l)
	if err != nil {
		s.logger.WarnContext(ctx, "Loan has no computable repayment status",
			log.FieldLoanID, l.ID, log.FieldError, err.Error())
		st = loan.Status{TotalPaid: l.TotalPaid, ProgressPercent: decimal.Zero, RemainingBalance: decimal.Zero}
	}
	return LoanView{Loan: l, Repayment: st}
}
