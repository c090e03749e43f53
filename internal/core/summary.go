package core

// CategoryTotal is the summed effective amount of one category.
type CategoryTotal struct {
	Category string
	Total    float64
}

// YearSummary aggregates one tax year by category.
type YearSummary struct {
	Year       int
	GrandTotal float64
	ByCategory []CategoryTotal // ordered by descending total
}

// MonthlySeries holds twelve monthly sums, index 0 = January.
type MonthlySeries struct {
	Year   int
	Series [12]float64
}

// Rounded returns the category totals rounded to cents, keyed by category.
func (s YearSummary) Rounded() map[string]float64 {
	out := make(map[string]float64, len(s.ByCategory))
	for _, c := range s.ByCategory {
		out[c.Category] = RoundCents(c.Total)
	}
	return out
}

// Rounded returns the series rounded to cents.
func (m MonthlySeries) Rounded() []float64 {
	out := make([]float64, len(m.Series))
	for i, v := range m.Series {
		out[i] = RoundCents(v)
	}
	return out
}
