package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"deductible/internal/core"
	"deductible/internal/log"

	_ "modernc.org/sqlite"
)

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentStorage)
}

// effectiveAmountSQL mirrors core.Expense.EffectiveAmount.
const effectiveAmountSQL = "amount + (miles * mileage_rate)"

const selectExpenseColumns = `
	id, dt, COALESCE(description, ''), COALESCE(vendor, ''), amount, category,
	COALESCE(payment_method, ''), tax_year, COALESCE(project, ''), COALESCE(location, ''),
	COALESCE(receipt_path, ''), COALESCE(miles, 0), COALESCE(mileage_rate, 0.67),
	COALESCE(is_deductible, 1), COALESCE(notes, ''), COALESCE(created_at, '')
`

const insertExpenseSQL = `
	INSERT INTO expenses (dt, description, vendor, amount, category, payment_method, tax_year,
	                      project, location, receipt_path, miles, mileage_rate, is_deductible,
	                      notes, created_at)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger(context.Background()).Info("SQLite repository ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertExpense(ctx context.Context, ex execer, e *core.Expense) error {
	e.CreatedAt = time.Now().UTC()
	res, err := ex.ExecContext(ctx, insertExpenseSQL,
		e.Date.String(),
		e.Description,
		e.Vendor,
		e.Amount,
		e.Category,
		e.PaymentMethod,
		e.TaxYear,
		e.Project,
		e.Location,
		e.ReceiptPath,
		e.Miles,
		e.MileageRate,
		boolToInt(e.IsDeductible),
		e.Notes,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	e.ID, err = res.LastInsertId()
	return err
}

// Insert appends a new expense and returns its id.
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Expense) (int64, error) {
	if err := insertExpense(ctx, r.db, &e); err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	logger(ctx).DebugContext(ctx, "Expense saved to SQLite",
		log.FieldExpenseID, e.ID,
		"date", e.Date.String(),
		log.FieldCategory, e.Category,
		log.FieldAmount, e.Amount)

	return e.ID, nil
}

// InsertBatch inserts all expenses in a single transaction and returns how many were written.
func (r *SQLiteRepository) InsertBatch(ctx context.Context, expenses []core.Expense) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for i := range expenses {
		if err := insertExpense(ctx, tx, &expenses[i]); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(expenses), nil
}

// Delete removes the expense with the given id. A missing id is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger(ctx).DebugContext(ctx, "Delete of unknown expense ignored", log.FieldExpenseID, id)
	}
	return nil
}

// buildWhere turns a filter into a WHERE clause and its arguments.
func buildWhere(f core.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.TaxYear != 0 {
		conds = append(conds, "tax_year = ?")
		args = append(args, f.TaxYear)
	}
	if f.Month != 0 {
		conds = append(conds, "strftime('%m', dt) = ?")
		args = append(args, fmt.Sprintf("%02d", f.Month))
	}
	if f.HasCategoryFilter() {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		conds = append(conds, "(description LIKE ? OR vendor LIKE ? OR notes LIKE ?)")
		args = append(args, like, like, like)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns the expenses matching f in the requested order.
func (r *SQLiteRepository) List(ctx context.Context, f core.ListFilter) ([]core.Expense, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	where, args := buildWhere(f)

	order := " ORDER BY dt DESC, id DESC"
	if f.Order == core.OldestFirst {
		order = " ORDER BY dt ASC, id ASC"
	}

	rows, err := r.db.QueryContext(ctx, "SELECT "+selectExpenseColumns+" FROM expenses"+where+order, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanExpense reads a row laid out as selectExpenseColumns.
func scanExpense(s scanner) (core.Expense, error) {
	var (
		e          core.Expense
		dt         string
		deductible int64
		createdAt  string
	)
	if err := s.Scan(
		&e.ID, &dt, &e.Description, &e.Vendor, &e.Amount, &e.Category,
		&e.PaymentMethod, &e.TaxYear, &e.Project, &e.Location,
		&e.ReceiptPath, &e.Miles, &e.MileageRate,
		&deductible, &e.Notes, &createdAt,
	); err != nil {
		return e, err
	}

	t, err := time.Parse(core.DateLayout, dt)
	if err != nil {
		return e, fmt.Errorf("expense %d: %w %q", e.ID, core.ErrInvalidDate, dt)
	}
	e.Date = core.NewDate(t.Year(), int(t.Month()), t.Day())
	e.IsDeductible = deductible != 0
	if createdAt != "" {
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	}
	return e, nil
}

func deductibleClause(deductibleOnly bool) string {
	if deductibleOnly {
		return " AND is_deductible = 1"
	}
	return ""
}

// TotalsByCategory sums effective amounts per category for a tax year, largest first.
func (r *SQLiteRepository) TotalsByCategory(ctx context.Context, year int, deductibleOnly bool) ([]core.CategoryTotal, error) {
	query := "SELECT category, SUM(" + effectiveAmountSQL + ") AS total FROM expenses WHERE tax_year = ?" +
		deductibleClause(deductibleOnly) +
		" GROUP BY category ORDER BY total DESC, category ASC"

	rows, err := r.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("category totals for %d: %w", year, err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var (
			ct    core.CategoryTotal
			total sql.NullFloat64
		)
		if err := rows.Scan(&ct.Category, &total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct.Total = total.Float64
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return totals, nil
}

// GrandTotal sums effective amounts across all categories of a tax year.
func (r *SQLiteRepository) GrandTotal(ctx context.Context, year int, deductibleOnly bool) (float64, error) {
	query := "SELECT SUM(" + effectiveAmountSQL + ") FROM expenses WHERE tax_year = ?" + deductibleClause(deductibleOnly)

	var total sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, year).Scan(&total); err != nil {
		return 0, fmt.Errorf("grand total for %d: %w", year, err)
	}
	return total.Float64, nil
}

// MonthlyTotals sums effective amounts of a tax year by month of the expense date.
// Deductibility is deliberately not considered here.
func (r *SQLiteRepository) MonthlyTotals(ctx context.Context, year int) ([12]float64, error) {
	var series [12]float64

	query := "SELECT CAST(strftime('%m', dt) AS INTEGER) AS m, SUM(" + effectiveAmountSQL + ")" +
		" FROM expenses WHERE tax_year = ? GROUP BY m ORDER BY m"

	rows, err := r.db.QueryContext(ctx, query, year)
	if err != nil {
		return series, fmt.Errorf("monthly totals for %d: %w", year, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			month sql.NullInt64
			total sql.NullFloat64
		)
		if err := rows.Scan(&month, &total); err != nil {
			return series, fmt.Errorf("scan monthly total: %w", err)
		}
		if !month.Valid || month.Int64 < 1 || month.Int64 > 12 {
			continue
		}
		series[month.Int64-1] = total.Float64
	}
	if err := rows.Err(); err != nil {
		return series, fmt.Errorf("iterate monthly totals: %w", err)
	}
	return series, nil
}

// Count returns the number of stored expenses.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses").Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
