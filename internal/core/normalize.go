package core

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Source selects the parsing rules applied by Normalize.
type Source int

const (
	// SourceForm is a manual entry submitted through the add form.
	SourceForm Source = iota
	// SourceCSV is a row of an imported CSV file.
	SourceCSV
)

// usDateLayout accepts both padded and unpadded MM/DD/YYYY.
const usDateLayout = "1/2/2006"

// Defaults lists the fields that fell back to a default while normalizing.
type Defaults []string

// Has reports whether field was defaulted.
func (d Defaults) Has(field string) bool {
	for _, f := range d {
		if f == field {
			return true
		}
	}
	return false
}

// Fields is a raw record keyed by lower-cased field name.
type Fields map[string]string

// NewFields lower-cases and trims keys and trims values. Later duplicates win.
func NewFields(raw map[string]string) Fields {
	f := make(Fields, len(raw))
	for k, v := range raw {
		f[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return f
}

// lookup returns the value of the first present key.
func (f Fields) lookup(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok {
			return v, true
		}
	}
	return "", false
}

func (f Fields) get(keys ...string) string {
	v, _ := f.lookup(keys...)
	return v
}

// Normalize converts a raw record into a fully typed Expense. It never fails:
// every malformed value is replaced by its documented default.
func Normalize(f Fields, src Source) (Expense, Defaults) {
	var defs Defaults
	note := func(field string, defaulted bool) {
		if defaulted {
			defs = append(defs, field)
		}
	}

	var (
		date      Date
		defaulted bool
	)
	switch src {
	case SourceCSV:
		date, defaulted = ParseDate(f.get("date", "dt"), DateLayout, usDateLayout)
	default:
		date, defaulted = ParseDate(f.get("dt", "date"), DateLayout)
	}
	note("date", defaulted)

	e := Expense{
		Date:          date,
		Description:   f.get("description"),
		Vendor:        f.get("vendor"),
		PaymentMethod: f.get("payment_method"),
		Project:       f.get("project"),
		Location:      f.get("location"),
		Notes:         f.get("notes"),
	}

	e.Amount, defaulted = ParseFloat(f.get("amount"), 0)
	note("amount", defaulted)
	e.Miles, defaulted = ParseFloat(f.get("miles"), 0)
	note("miles", defaulted)
	e.MileageRate, defaulted = ParseFloat(f.get("mileage_rate"), DefaultMileageRate)
	note("mileage_rate", defaulted)

	e.TaxYear, defaulted = ParseTaxYear(f.get("tax_year"), date)
	note("tax_year", defaulted)

	e.Category = f.get("category")
	if e.Category == "" {
		e.Category = DefaultCategory
		note("category", true)
	}

	switch src {
	case SourceCSV:
		e.ReceiptPath = f.get("receipt_url", "receipt_path")
		v, ok := f.lookup("is_deductible")
		if !ok {
			e.IsDeductible = true
			note("is_deductible", true)
			break
		}
		e.IsDeductible, defaulted = ParseBool(v, true)
		note("is_deductible", defaulted)
	default:
		e.IsDeductible, defaulted = parseCheckbox(f)
		note("is_deductible", defaulted)
	}

	return e, defs
}

// parseCheckbox follows HTML checkbox semantics: an absent field counts as checked.
func parseCheckbox(f Fields) (bool, bool) {
	v, ok := f.lookup("is_deductible")
	if !ok {
		return true, true
	}
	if strings.EqualFold(v, "on") {
		return true, false
	}
	return ParseBool(v, false)
}

// ParseDate tries each layout in order and falls back to today.
// The second return value reports whether the fallback was used.
func ParseDate(s string, layouts ...string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s != "" {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return NewDate(t.Year(), int(t.Month()), t.Day()), false
			}
		}
	}
	return Today(), true
}

// ParseFloat parses s as a finite float64, returning def when s is empty, malformed,
// NaN or infinite.
func ParseFloat(s string, def float64) (float64, bool) {
	v, ok := parseFinite(s)
	if !ok {
		return def, true
	}
	return v, false
}

func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseTaxYear parses s as a year, falling back to the year of date.
func ParseTaxYear(s string, date Date) (int, bool) {
	s = strings.TrimSpace(s)
	if s != "" {
		if y, err := strconv.Atoi(s); err == nil {
			return y, false
		}
	}
	y, _ := strconv.Atoi(date.String()[:4])
	return y, true
}

// ParseBool accepts 1/true/yes/y and 0/false/no/n case-insensitively, then any number
// (non-zero is true), and otherwise returns def.
func ParseBool(s string, def bool) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true, false
	case "0", "false", "no", "n":
		return false, false
	}
	if v, ok := parseFinite(s); ok {
		return v != 0, false
	}
	return def, true
}
