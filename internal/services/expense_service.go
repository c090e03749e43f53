package services

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"deductible/internal/core"
	"deductible/internal/log"
	"deductible/internal/transfer"
)

//go:generate mockgen -source=expense_service.go -destination=repository_mock.go -package=services

// Repository persists expenses and answers aggregate queries.
type Repository interface {
	Insert(ctx context.Context, e core.Expense) (int64, error)
	InsertBatch(ctx context.Context, expenses []core.Expense) (int, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f core.ListFilter) ([]core.Expense, error)
	TotalsByCategory(ctx context.Context, year int, deductibleOnly bool) ([]core.CategoryTotal, error)
	GrandTotal(ctx context.Context, year int, deductibleOnly bool) (float64, error)
	MonthlyTotals(ctx context.Context, year int) ([12]float64, error)
	Ping(ctx context.Context) error
}

// ReceiptStore saves receipt attachments and returns their public path.
type ReceiptStore interface {
	Save(name string, r io.Reader) (string, error)
}

// Upload is a receipt file submitted with a new expense.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ExpenseService orchestrates normalization, receipts and persistence
type ExpenseService struct {
	repo     Repository
	receipts ReceiptStore
}

func NewExpenseService(repo Repository, receipts ReceiptStore) *ExpenseService {
	return &ExpenseService{
		repo:     repo,
		receipts: receipts,
	}
}

func (s *ExpenseService) logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentExpense)
}

// Create normalizes form fields, stores the optional receipt and inserts the expense.
func (s *ExpenseService) Create(ctx context.Context, fields map[string]string, receipt *Upload) (core.Expense, error) {
	e, defs := core.Normalize(core.NewFields(fields), core.SourceForm)
	if len(defs) > 0 {
		s.logger(ctx).DebugContext(ctx, "Expense normalized with defaults", log.FieldDefaults, []string(defs))
	}
	if !core.IsCanonicalCategory(e.Category) {
		s.logger(ctx).DebugContext(ctx, "Expense uses a custom category", log.FieldCategory, e.Category)
	}

	if receipt != nil && receipt.Filename != "" && s.receipts != nil {
		path, err := s.receipts.Save(receipt.Filename, receipt.Content)
		if err != nil {
			return core.Expense{}, fmt.Errorf("save receipt: %w", err)
		}
		if path == "" {
			s.logger(ctx).InfoContext(ctx, "Receipt with unsupported type ignored", log.FieldFilename, receipt.Filename)
		}
		e.ReceiptPath = path
	}

	id, err := s.repo.Insert(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	s.logger(ctx).InfoContext(ctx, "Expense created",
		log.FieldExpenseID, e.ID,
		log.FieldCategory, e.Category,
		log.FieldTaxYear, e.TaxYear,
		log.FieldAmount, e.EffectiveAmount())

	return e, nil
}

// Delete removes an expense. Its receipt file, if any, is left on disk.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.logger(ctx).InfoContext(ctx, "Expense deleted", log.FieldOperation, log.OpDelete, log.FieldExpenseID, id)
	return nil
}

// List returns the expenses matching f, newest first.
func (s *ExpenseService) List(ctx context.Context, f core.ListFilter) ([]core.Expense, error) {
	f.Order = core.NewestFirst
	expenses, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	fields := log.NewFields().WithOperation(log.OpList)
	fields[log.FieldTaxYear] = f.TaxYear
	fields[log.FieldMonth] = f.Month
	fields[log.FieldCategory] = f.Category
	fields[log.FieldRows] = len(expenses)
	s.logger(ctx).DebugContext(ctx, "Expenses listed", fields.ToSlice()...)

	return expenses, nil
}

// Summary aggregates a tax year by category. Category totals and the grand total
// are queried concurrently.
func (s *ExpenseService) Summary(ctx context.Context, year int, deductibleOnly bool) (core.YearSummary, error) {
	summary := core.YearSummary{Year: year}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, err := s.repo.TotalsByCategory(gctx, year, deductibleOnly)
		if err != nil {
			return fmt.Errorf("category totals: %w", err)
		}
		summary.ByCategory = totals
		return nil
	})
	g.Go(func() error {
		total, err := s.repo.GrandTotal(gctx, year, deductibleOnly)
		if err != nil {
			return fmt.Errorf("grand total: %w", err)
		}
		summary.GrandTotal = total
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.YearSummary{}, err
	}

	s.logger(ctx).DebugContext(ctx, "Year summarized",
		log.FieldOperation, log.OpSummary,
		log.FieldTaxYear, year,
		"deductible_only", deductibleOnly,
		"categories", len(summary.ByCategory))
	return summary, nil
}

// Monthly returns the twelve monthly sums of a tax year, deductible or not.
func (s *ExpenseService) Monthly(ctx context.Context, year int) (core.MonthlySeries, error) {
	series, err := s.repo.MonthlyTotals(ctx, year)
	if err != nil {
		return core.MonthlySeries{}, fmt.Errorf("monthly totals: %w", err)
	}
	return core.MonthlySeries{Year: year, Series: series}, nil
}

// Export writes the expenses matching f as CSV, oldest first.
func (s *ExpenseService) Export(ctx context.Context, w io.Writer, f core.ListFilter) (int, error) {
	f.Order = core.OldestFirst
	expenses, err := s.repo.List(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}
	if err := transfer.Export(w, expenses); err != nil {
		return 0, fmt.Errorf("export csv: %w", err)
	}
	return len(expenses), nil
}

// Import parses a CSV upload and inserts every row in one transaction.
func (s *ExpenseService) Import(ctx context.Context, r io.Reader) (int, error) {
	expenses, err := transfer.Parse(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("parse csv: %w", err)
	}
	if len(expenses) == 0 {
		return 0, nil
	}

	n, err := s.repo.InsertBatch(ctx, expenses)
	if err != nil {
		return 0, fmt.Errorf("import expenses: %w", err)
	}

	s.logger(ctx).InfoContext(ctx, "CSV imported", log.FieldOperation, log.OpImport, log.FieldRows, n)
	return n, nil
}

// Ready reports whether the store is reachable.
func (s *ExpenseService) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
