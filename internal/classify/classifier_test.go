package classify

import (
	"testing"

	"bike-curation/internal/domain"
)

func TestClassify_Taxonomy(t *testing.T) {
	c := NewKeywordClassifier()

	cases := []struct {
		title    string
		category string
		want     domain.Category
	}{
		{"Specialized Stumpjumper hardtail", "", domain.CategoryMTB},
		{"Canyon Grail gravel bike", "", domain.CategoryGravel},
		{"Trek Emonda road bike", "", domain.CategoryRoad},
		{"Cube Stereo Hybrid e-MTB Bosch", "", domain.CategoryEMTB},
		{"Scott Scale junior 24 inch", "", domain.CategoryKids},
		{"Bianchi frame, campagnolo parts", "", domain.CategoryUnknown},
		{"Nice bike", "Mountainbikes", domain.CategoryMTB},
	}

	for _, tc := range cases {
		if got := c.Classify(tc.title, tc.category); got != tc.want {
			t.Errorf("Classify(%q, %q) = %s, want %s", tc.title, tc.category, got, tc.want)
		}
	}
}

func TestClassify_KidsBeatsMTB(t *testing.T) {
	c := NewKeywordClassifier()

	// A kids mountain bike must land in KIDS, not MTB.
	if got := c.Classify("Kids mountain bike 24 inch", ""); got != domain.CategoryKids {
		t.Errorf("expected KIDS, got %s", got)
	}
}

func TestClassify_EMTBBeatsMTB(t *testing.T) {
	c := NewKeywordClassifier()

	if got := c.Classify("Haibike electric mountainbike hardtail", ""); got != domain.CategoryEMTB {
		t.Errorf("expected EMTB, got %s", got)
	}
}
