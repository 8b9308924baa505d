// Package rules holds the deterministic tag-to-category mapping that
// drives product recommendations. No AI logic lives here: the mapping
// is configuration, applied the same way on every request.
package rules

import "strings"

// Table maps a diagnosis tag to the product category keywords it
// should pull recommendations from. Tables are built once at startup
// and treated as immutable afterwards.
type Table struct {
	mapping  map[string][]string
	keys     []string
	defaults []string
}

// NewTable builds a rule table. The key order of entries controls
// partial-match precedence, so it is preserved.
func NewTable(entries []Entry, defaults []string) *Table {
	t := &Table{
		mapping:  make(map[string][]string, len(entries)),
		keys:     make([]string, 0, len(entries)),
		defaults: defaults,
	}
	for _, e := range entries {
		key := strings.ToLower(e.Tag)
		if _, dup := t.mapping[key]; dup {
			continue
		}
		t.mapping[key] = e.Categories
		t.keys = append(t.keys, key)
	}
	return t
}

// Entry is one tag-to-categories rule.
type Entry struct {
	Tag        string
	Categories []string
}

// DefaultTable returns the built-in mapping for cattle diagnosis tags.
func DefaultTable() *Table {
	return NewTable([]Entry{
		// Urgency levels
		{"urgency:critical", []string{"emergency_medications", "veterinary_supplies"}},
		{"urgency:high", []string{"antibiotics", "anti_inflammatory"}},
		{"urgency:medium", []string{"supplements", "general_medications"}},
		{"urgency:low", []string{"preventive_care", "supplements"}},

		// Common conditions
		{"mastitis", []string{"antibiotics", "udder_care", "anti_inflammatory"}},
		{"foot_rot", []string{"hoof_care", "antibiotics", "antiseptics"}},
		{"bloat", []string{"emergency_medications", "digestive_aids"}},
		{"pneumonia", []string{"antibiotics", "respiratory_care"}},
		{"diarrhea", []string{"electrolytes", "probiotics", "antibiotics"}},
		{"fever", []string{"anti_inflammatory", "antipyretics"}},
		{"skin_lesion", []string{"antiseptics", "wound_care", "topical_treatments"}},
		{"parasites", []string{"dewormers", "antiparasitic"}},
		{"eye_infection", []string{"eye_care", "antibiotics"}},

		// Symptoms
		{"swelling", []string{"anti_inflammatory", "topical_treatments"}},
		{"lameness", []string{"hoof_care", "anti_inflammatory"}},
		{"discharge", []string{"antibiotics", "antiseptics"}},
		{"loss_of_appetite", []string{"digestive_aids", "supplements", "vitamins"}},
		{"weight_loss", []string{"supplements", "dewormers", "feed_additives"}},
	}, []string{"general_medications", "supplements"})
}

// Match returns the category keywords for one tag. An exact
// (case-insensitive) match wins; otherwise every rule whose key
// contains the tag or is contained in it contributes its categories.
func (t *Table) Match(tag string) []string {
	tagLower := strings.ToLower(tag)

	if categories, ok := t.mapping[tagLower]; ok {
		return categories
	}

	var matched []string
	for _, key := range t.keys {
		if strings.Contains(tagLower, key) || strings.Contains(key, tagLower) {
			matched = append(matched, t.mapping[key]...)
		}
	}
	return matched
}

// Categories resolves a full tag set into a deduplicated, order-stable
// keyword list, falling back to the defaults when nothing matches.
func (t *Table) Categories(tags []string) []string {
	seen := make(map[string]bool)
	keywords := make([]string, 0)
	for _, tag := range tags {
		for _, category := range t.Match(tag) {
			if seen[category] {
				continue
			}
			seen[category] = true
			keywords = append(keywords, category)
		}
	}
	if len(keywords) == 0 {
		return append([]string(nil), t.defaults...)
	}
	return keywords
}
