package core

import (
	"errors"
	"time"
)

const (
	// DateLayout is the storage and wire format of an expense date.
	DateLayout = "2006-01-02"

	// DefaultMileageRate is the per-mile rate applied when none is supplied.
	DefaultMileageRate = 0.67

	// DefaultCategory is used when a record carries no category.
	DefaultCategory = "Other"

	// AllCategories disables the category filter on listings.
	AllCategories = "All"
)

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

type (
	SortOrder int

	Date struct {
		time.Time
	}

	Expense struct {
		ID            int64
		Date          Date
		Description   string
		Vendor        string
		Amount        float64
		Category      string
		PaymentMethod string
		TaxYear       int
		Project       string
		Location      string
		ReceiptPath   string
		Miles         float64
		MileageRate   float64 // snapshot at creation, never recomputed
		IsDeductible  bool
		Notes         string
		CreatedAt     time.Time
	}

	// ListFilter is a conjunction of optional constraints; zero values disable a constraint.
	ListFilter struct {
		TaxYear  int
		Month    int // 1-12, matched against the month of Date
		Category string
		Query    string // substring over description, vendor and notes
		Order    SortOrder
	}
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidMonth = errors.New("invalid month")
	ErrInvalidYear  = errors.New("invalid year")
	ErrNotCSV       = errors.New("upload is not a csv file")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// EffectiveAmount is the value every aggregation sums: amount plus mileage cost.
func (e Expense) EffectiveAmount() float64 {
	return e.Amount + e.Miles*e.MileageRate
}

// HasCategoryFilter reports whether the filter restricts on category.
func (f ListFilter) HasCategoryFilter() bool {
	return f.Category != "" && f.Category != AllCategories
}

// Validate rejects out of range filter values. Zero values are valid.
func (f ListFilter) Validate() error {
	if f.Month < 0 || f.Month > 12 {
		return ErrInvalidMonth
	}
	if f.TaxYear < 0 || f.TaxYear > 9999 {
		return ErrInvalidYear
	}
	return nil
}
