package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// SQLiteRepository persists records in a local SQLite database. Amounts and
// dates are stored as canonical text so no precision is lost.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection serializes access.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("SQLite repository ready", "path", dbPath)
	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Transactions

const transactionColumns = `id, owner_id, kind, category, amount, occurred_on, description`

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? ORDER BY created_at, rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := r.scanTransaction(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? AND id = ?`, ownerID, id)
	t, err := r.scanTransaction(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, string(t.Kind), t.Category, t.Amount.String(), t.OccurredOn.String(), t.Description)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "Transaction saved",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithOwner(t.OwnerID).
			WithTransaction(t.ID, string(t.Kind), t.Category, t.Amount.String()).
			ToSlice()...)
	return nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		    SET kind = ?, category = ?, amount = ?, occurred_on = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		  WHERE owner_id = ? AND id = ?`,
		string(t.Kind), t.Category, t.Amount.String(), t.OccurredOn.String(), t.Description, t.OwnerID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return affectedOne(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affectedOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanTransaction(ctx context.Context, s scanner) (core.Transaction, error) {
	var (
		t              core.Transaction
		kind, amt, day string
	)
	if err := s.Scan(&t.ID, &t.OwnerID, &kind, &t.Category, &amt, &day, &t.Description); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	t.Amount = r.decimalColumn(ctx, "transactions.amount", t.ID, amt)
	t.OccurredOn = r.dateColumn(ctx, "transactions.occurred_on", t.ID, day)
	return t, nil
}

// Loans

const loanColumns = `id, owner_id, name, lender, principal, interest_rate, rate_period, term_years, start_date, total_paid`

func (r *SQLiteRepository) ListLoans(ctx context.Context, ownerID string) ([]core.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE owner_id = ? ORDER BY created_at, rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	out := []core.Loan{}
	for rows.Next() {
		l, err := r.scanLoan(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetLoan(ctx context.Context, ownerID, id string) (core.Loan, error) {
	return r.getLoan(ctx, r.db, ownerID, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteRepository) getLoan(ctx context.Context, q queryer, ownerID, id string) (core.Loan, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE owner_id = ? AND id = ?`, ownerID, id)
	l, err := r.scanLoan(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Loan{}, ErrNotFound
	}
	if err != nil {
		return core.Loan{}, fmt.Errorf("get loan: %w", err)
	}
	return l, nil
}

func (r *SQLiteRepository) CreateLoan(ctx context.Context, l core.Loan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO loans (`+loanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.OwnerID, l.Name, l.Lender, l.Principal.String(), l.InterestRate.String(),
		string(l.RatePeriod), l.TermYears.String(), l.StartDate.String(), l.TotalPaid.String())
	if err != nil {
		return fmt.Errorf("create loan: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RecordLoanPayment(ctx context.Context, ownerID, id string, amount decimal.Decimal) (core.Loan, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Loan{}, fmt.Errorf("begin payment: %w", err)
	}
	defer tx.Rollback()

	l, err := r.getLoan(ctx, tx, ownerID, id)
	if err != nil {
		return core.Loan{}, err
	}
	if err := l.ApplyPayment(amount); err != nil {
		return core.Loan{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE loans SET total_paid = ? WHERE owner_id = ? AND id = ?`, l.TotalPaid.String(), ownerID, id); err != nil {
		return core.Loan{}, fmt.Errorf("update total paid: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO loan_payments (loan_id, amount) VALUES (?, ?)`, id, amount.String()); err != nil {
		return core.Loan{}, fmt.Errorf("record payment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Loan{}, fmt.Errorf("commit payment: %w", err)
	}
	return l, nil
}

func (r *SQLiteRepository) DeleteLoan(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM loans WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return affectedOne(res)
}

func (r *SQLiteRepository) scanLoan(ctx context.Context, s scanner) (core.Loan, error) {
	var l core.Loan
	var principal, rate, period, term, start, paid string
	if err := s.Scan(&l.ID, &l.OwnerID, &l.Name, &l.Lender, &principal, &rate, &period, &term, &start, &paid); err != nil {
		return core.Loan{}, err
	}
	l.Principal = r.decimalColumn(ctx, "loans.principal", l.ID, principal)
	l.InterestRate = r.decimalColumn(ctx, "loans.interest_rate", l.ID, rate)
	l.RatePeriod = core.RatePeriod(period)
	l.TermYears = r.decimalColumn(ctx, "loans.term_years", l.ID, term)
	l.StartDate = r.dateColumn(ctx, "loans.start_date", l.ID, start)
	l.TotalPaid = r.decimalColumn(ctx, "loans.total_paid", l.ID, paid)
	return l, nil
}

// Goals

const goalColumns = `id, owner_id, name, target_amount, current_amount, deadline`

func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = ? ORDER BY created_at, rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		g, err := r.scanGoal(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	return r.getGoal(ctx, r.db, ownerID, id)
}

func (r *SQLiteRepository) getGoal(ctx context.Context, q queryer, ownerID, id string) (core.Goal, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = ? AND id = ?`, ownerID, id)
	g, err := r.scanGoal(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Name, g.Target.String(), g.Current.String(), g.Deadline.String())
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AddGoalFunds(ctx context.Context, ownerID, id string, amount decimal.Decimal) (core.Goal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, fmt.Errorf("begin add funds: %w", err)
	}
	defer tx.Rollback()

	g, err := r.getGoal(ctx, tx, ownerID, id)
	if err != nil {
		return core.Goal{}, err
	}
	if err := g.AddFunds(amount); err != nil {
		return core.Goal{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE goals SET current_amount = ? WHERE owner_id = ? AND id = ?`, g.Current.String(), ownerID, id); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Goal{}, fmt.Errorf("commit add funds: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return affectedOne(res)
}

func (r *SQLiteRepository) scanGoal(ctx context.Context, s scanner) (core.Goal, error) {
	var (
		g                         core.Goal
		target, current, deadline string
	)
	if err := s.Scan(&g.ID, &g.OwnerID, &g.Name, &target, &current, &deadline); err != nil {
		return core.Goal{}, err
	}
	g.Target = r.decimalColumn(ctx, "goals.target_amount", g.ID, target)
	g.Current = r.decimalColumn(ctx, "goals.current_amount", g.ID, current)
	if deadline != "" {
		g.Deadline = r.dateColumn(ctx, "goals.deadline", g.ID, deadline)
	}
	return g, nil
}

// Column decoding. Bad stored values load as zero and are logged; the record
// is still returned so views can degrade instead of failing.

func (r *SQLiteRepository) dateColumn(ctx context.Context, column, id, raw string) core.Date {
	d, err := core.ParseDate(raw)
	if err != nil {
		r.logger.WarnContext(ctx, "Unparseable stored date", "column", column, "id", id, "value", raw)
		return core.Date{}
	}
	return d
}

func (r *SQLiteRepository) decimalColumn(ctx context.Context, column, id, raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		r.logger.WarnContext(ctx, "Unparseable stored amount", "column", column, "id", id, "value", raw)
		return decimal.Zero
	}
	return d
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
