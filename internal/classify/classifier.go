// Package classify assigns candidates to the fixed bike taxonomy.
// The classifier is an interface so the keyword heuristic can be swapped
// without touching scoring, diversity or supply-gap logic, which depend
// only on the resulting category enum.
package classify

import (
	"strings"

	"bike-curation/internal/domain"
)

// Classifier maps free listing text to a taxonomy category.
type Classifier interface {
	// Classify returns the category for a candidate's title and raw
	// category text. Returns CategoryUnknown when nothing matches.
	Classify(title, categoryText string) domain.Category
}

// KeywordClassifier is the default keyword-based implementation.
// Kids and eMTB checks run before the generic MTB/Road checks: a
// "kids mountain bike" is a kids bike, and an "e-mtb" is an e-bike, not
// an MTB.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a new KeywordClassifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var (
	kidsKeywords   = []string{"kids", "kinder", "child", "junior", "20 inch", "24 inch", "20\"", "24\""}
	emtbKeywords   = []string{"e-mtb", "emtb", "e-bike", "ebike", "electric", "elektrisch", "pedelec", "bosch", "shimano steps"}
	gravelKeywords = []string{"gravel", "cyclocross", "cross bike", "all-road", "allroad"}
	mtbKeywords    = []string{"mtb", "mountainbike", "mountain bike", "fully", "hardtail", "enduro", "downhill", "trail bike"}
	roadKeywords   = []string{"road bike", "roadbike", "racefiets", "rennrad", "race bike", "aero", "endurance bike"}
)

// Classify implements Classifier.
func (k *KeywordClassifier) Classify(title, categoryText string) domain.Category {
	haystack := strings.ToLower(title + " " + categoryText)

	// Precedence: kids and electric beat the generic discipline words,
	// which frequently co-occur in the same title.
	switch {
	case containsAny(haystack, kidsKeywords):
		return domain.CategoryKids
	case containsAny(haystack, emtbKeywords):
		return domain.CategoryEMTB
	case containsAny(haystack, gravelKeywords):
		return domain.CategoryGravel
	case containsAny(haystack, mtbKeywords):
		return domain.CategoryMTB
	case containsAny(haystack, roadKeywords):
		return domain.CategoryRoad
	default:
		return domain.CategoryUnknown
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// Compile-time interface check.
var _ Classifier = (*KeywordClassifier)(nil)
