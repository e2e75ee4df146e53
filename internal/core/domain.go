package core

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	PerYear        RatePeriod = "per_year"
	PerMonth       RatePeriod = "per_month"
	Per100PerMonth RatePeriod = "per_100_per_month"
)

const (
	MaxCategoryLen    = 50
	MaxDescriptionLen = 100
	MaxNameLen        = 100
)

type (
	// Kind classifies a transaction as income or expense.
	Kind string

	// RatePeriod is the time unit an interest rate is quoted in.
	// Per100PerMonth is the chit-fund convention: units of interest per
	// 100 units of principal per month.
	RatePeriod string

	Transaction struct {
		ID          string          `json:"id"`
		OwnerID     string          `json:"ownerId"`
		Kind        Kind            `json:"kind"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		OccurredOn  Date            `json:"occurredOn"`
		Description string          `json:"description,omitempty"`
	}

	// TransactionPatch replaces any subset of the editable fields of a
	// transaction. Nil fields are left untouched.
	TransactionPatch struct {
		Kind        *Kind
		Category    *string
		Amount      *decimal.Decimal
		OccurredOn  *Date
		Description *string
	}

	Loan struct {
		ID           string          `json:"id"`
		OwnerID      string          `json:"ownerId"`
		Name         string          `json:"name"`
		Lender       string          `json:"lender,omitempty"`
		Principal    decimal.Decimal `json:"principal"`
		InterestRate decimal.Decimal `json:"interestRate"`
		RatePeriod   RatePeriod      `json:"ratePeriod"`
		TermYears    decimal.Decimal `json:"termYears"`
		StartDate    Date            `json:"startDate"`
		TotalPaid    decimal.Decimal `json:"totalPaid"`
	}

	// Goal is a savings target funded by explicit deposits.
	Goal struct {
		ID       string          `json:"id"`
		OwnerID  string          `json:"ownerId"`
		Name     string          `json:"name"`
		Target   decimal.Decimal `json:"targetAmount"`
		Current  decimal.Decimal `json:"currentAmount"`
		Deadline Date            `json:"deadline"` // null when unset
	}
)

var (
	ErrInvalidKind         = errors.New("transaction type must be income or expense")
	ErrEmptyCategory       = errors.New("category is required")
	ErrCategoryTooLong     = errors.New("category too long (max 50 characters)")
	ErrDescriptionTooLong  = errors.New("description too long (max 100 characters)")
	ErrEmptyName           = errors.New("name is required")
	ErrNameTooLong         = errors.New("name too long (max 100 characters)")
	ErrInvalidRatePeriod   = errors.New("invalid rate period")
	ErrInvalidPrincipal    = errors.New("principal amount must be a positive number")
	ErrInvalidRate         = errors.New("interest rate must be a positive number")
	ErrInvalidTerm         = errors.New("loan term must be a positive number of years")
	ErrNegativePaid        = errors.New("total paid cannot be negative")
	ErrInvalidPayment      = errors.New("payment must be a positive number")
	ErrInvalidTarget       = errors.New("target amount must be a positive number")
	ErrNegativeGoalBalance = errors.New("saved amount cannot be negative")
	ErrEmptyPatch          = errors.New("nothing to update")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// ParseKind accepts "income" or "expense" in any letter case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

func (p RatePeriod) Valid() bool {
	switch p {
	case PerYear, PerMonth, Per100PerMonth:
		return true
	default:
		return false
	}
}

// ParseRatePeriod accepts the canonical names plus the short forms used by
// older clients ("year", "month", "rupees_per_100_per_month").
func ParseRatePeriod(s string) (RatePeriod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "per_year", "year", "yearly", "annual":
		return PerYear, nil
	case "per_month", "month", "monthly":
		return PerMonth, nil
	case "per_100_per_month", "rupees_per_100_per_month":
		return Per100PerMonth, nil
	default:
		return "", ErrInvalidRatePeriod
	}
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := validateCategory(t.Category); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.OccurredOn.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func validateCategory(c string) error {
	if strings.TrimSpace(c) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(c) > MaxCategoryLen {
		return ErrCategoryTooLong
	}
	return nil
}

func (p TransactionPatch) IsEmpty() bool {
	return p.Kind == nil && p.Category == nil && p.Amount == nil &&
		p.OccurredOn == nil && p.Description == nil
}

// Apply returns a copy of t with the patched fields replaced. ID and owner
// are never touched.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.OccurredOn != nil {
		t.OccurredOn = *p.OccurredOn
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	return t
}

func (l Loan) Validate() error {
	if err := validateName(l.Name); err != nil {
		return err
	}
	if utf8.RuneCountInString(l.Lender) > MaxNameLen {
		return ErrNameTooLong
	}
	if !l.Principal.IsPositive() {
		return ErrInvalidPrincipal
	}
	if !l.InterestRate.IsPositive() {
		return ErrInvalidRate
	}
	if !l.RatePeriod.Valid() {
		return ErrInvalidRatePeriod
	}
	if !l.TermYears.IsPositive() {
		return ErrInvalidTerm
	}
	if err := l.StartDate.Validate(); err != nil {
		return err
	}
	if l.TotalPaid.IsNegative() {
		return ErrNegativePaid
	}
	return nil
}

// ApplyPayment adds a positive payment to the running total. TotalPaid never
// decreases.
func (l *Loan) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidPayment
	}
	l.TotalPaid = l.TotalPaid.Add(amount)
	return nil
}

func (g Goal) Validate() error {
	if err := validateName(g.Name); err != nil {
		return err
	}
	if !g.Target.IsPositive() {
		return ErrInvalidTarget
	}
	if g.Current.IsNegative() {
		return ErrNegativeGoalBalance
	}
	return nil
}

// AddFunds deposits a positive amount towards the goal.
func (g *Goal) AddFunds(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	g.Current = g.Current.Add(amount)
	return nil
}

// ProgressPercent is current/target as a percentage, capped at 100.
func (g Goal) ProgressPercent() decimal.Decimal {
	return ClampedPercent(g.Current, g.Target)
}

func validateName(n string) error {
	if strings.TrimSpace(n) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(n) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}
