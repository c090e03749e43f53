package core

// Categories is the canonical list offered by the UI. Stored categories are free-form
// strings and are never checked against it.
var Categories = []string{
	"CME/Conferences",
	"Books/Journals",
	"Licensing/DEA/Board Fees",
	"Malpractice",
	"Scrubs/Laundry",
	"Equipment & Devices",
	"Home Office",
	"Phone/Internet",
	"Medical Software/Subscriptions",
	"Travel - Air/Hotel",
	"Meals (50%)",
	"Parking/Tolls",
	"Car - Fuel/Maint",
	"Mileage (auto)",
	"Health Insurance (SEHI)",
	"Office Supplies",
	"Legal/Accounting",
	"Marketing/Website",
	"Retirement Contributions (employer)",
	DefaultCategory,
}

// IsCanonicalCategory reports whether name is one of Categories.
func IsCanonicalCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
