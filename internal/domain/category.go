package domain

import "strings"

// Category is the fixed bike taxonomy used by scoring, diversity
// selection and supply-gap analysis. Classification happens once, at the
// boundary; everything downstream depends only on this enum.
type Category string

const (
	CategoryMTB    Category = "MTB"
	CategoryGravel Category = "GRAVEL"
	CategoryRoad   Category = "ROAD"
	CategoryEMTB   Category = "EMTB"
	CategoryKids   Category = "KIDS"

	// CategoryUnknown marks candidates no keyword rule matched.
	CategoryUnknown Category = "UNKNOWN"
)

// ParseCategory maps free-form input onto the taxonomy. Unmatched
// input returns CategoryUnknown and false.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryMTB:
		return CategoryMTB, true
	case CategoryGravel:
		return CategoryGravel, true
	case CategoryRoad:
		return CategoryRoad, true
	case CategoryEMTB:
		return CategoryEMTB, true
	case CategoryKids:
		return CategoryKids, true
	}
	return CategoryUnknown, false
}

// AllCategories lists the known categories in quota order.
func AllCategories() []Category {
	return []Category{CategoryMTB, CategoryGravel, CategoryRoad, CategoryEMTB, CategoryKids}
}
