// Package transfer moves expenses in and out of CSV files.
package transfer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"deductible/internal/core"
	"deductible/internal/log"
)

// ExportFilename is the attachment name offered for downloads.
const ExportFilename = "expenses_export.csv"

// Header is the fixed column order of an export. Imports accept any subset in any order.
var Header = []string{
	"date", "description", "vendor", "amount", "category", "payment_method", "tax_year",
	"project", "location", "receipt_url", "miles", "mileage_rate", "is_deductible", "notes",
}

// Export writes the header and one row per expense, in the given order.
func Export(w io.Writer, expenses []core.Expense) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, e := range expenses {
		deductible := "0"
		if e.IsDeductible {
			deductible = "1"
		}
		row := []string{
			e.Date.String(),
			e.Description,
			e.Vendor,
			core.FormatFloat(e.Amount),
			e.Category,
			e.PaymentMethod,
			strconv.Itoa(e.TaxYear),
			e.Project,
			e.Location,
			e.ReceiptPath,
			core.FormatFloat(e.Miles),
			core.FormatFloat(e.MileageRate),
			deductible,
			e.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write expense %d: %w", e.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// CheckFilename rejects uploads whose name does not end in .csv (any case).
func CheckFilename(name string) error {
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".csv") {
		return fmt.Errorf("%w: %q", core.ErrNotCSV, name)
	}
	return nil
}

// Parse reads a CSV with a header row and normalizes each data row.
// Malformed values fall back to their defaults; rows with broken quoting are skipped.
func Parse(ctx context.Context, r io.Reader) ([]core.Expense, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentTransfer)

	utf8r, err := utf8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var expenses []core.Expense
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			logger.WarnContext(ctx, "Skipping malformed CSV row", "line", parseErr.StartLine, log.FieldError, parseErr.Err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		raw := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) && name != "" {
				raw[name] = record[i]
			}
		}

		e, defs := core.Normalize(core.NewFields(raw), core.SourceCSV)
		if len(defs) > 0 {
			line, _ := reader.FieldPos(0)
			logger.DebugContext(ctx, "CSV row normalized with defaults", "line", line, log.FieldDefaults, []string(defs))
		}
		expenses = append(expenses, e)
	}

	return expenses, nil
}
