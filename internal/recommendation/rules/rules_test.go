package rules

import (
	"reflect"
	"testing"
)

func TestMatchExact(t *testing.T) {
	table := DefaultTable()

	got := table.Match("mastitis")
	want := []string{"antibiotics", "udder_care", "anti_inflammatory"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match(mastitis) = %v, want %v", got, want)
	}

	// Case-insensitive
	if !reflect.DeepEqual(table.Match("MASTITIS"), want) {
		t.Error("exact match should ignore case")
	}

	if !reflect.DeepEqual(table.Match("urgency:critical"), []string{"emergency_medications", "veterinary_supplies"}) {
		t.Error("urgency:critical mapping wrong")
	}
}

func TestMatchPartial(t *testing.T) {
	table := DefaultTable()

	// Rule key contained in the tag
	got := table.Match("severe mastitis in left quarter")
	if len(got) == 0 || got[0] != "antibiotics" {
		t.Errorf("partial match (key in tag) = %v", got)
	}

	// Tag contained in a rule key
	got = table.Match("foot")
	found := false
	for _, c := range got {
		if c == "hoof_care" {
			found = true
		}
	}
	if !found {
		t.Errorf("partial match (tag in key) = %v, want hoof_care included", got)
	}
}

func TestCategoriesDedupesAndKeepsOrder(t *testing.T) {
	table := DefaultTable()

	got := table.Categories([]string{"mastitis", "fever", "urgency:high"})
	// antibiotics and anti_inflammatory appear in several rules but only once here
	counts := make(map[string]int)
	for _, c := range got {
		counts[c]++
	}
	for c, n := range counts {
		if n > 1 {
			t.Errorf("category %q appears %d times", c, n)
		}
	}
	if got[0] != "antibiotics" || got[1] != "udder_care" {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestCategoriesFallsBackToDefaults(t *testing.T) {
	table := DefaultTable()

	got := table.Categories([]string{"completely unrelated observation"})
	want := []string{"general_medications", "supplements"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories(no match) = %v, want %v", got, want)
	}

	if !reflect.DeepEqual(table.Categories(nil), want) {
		t.Error("empty tag set should yield defaults")
	}
}
