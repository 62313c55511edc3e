package submissions

import "strings"

// DefaultCategorySlug is suggested when an agent's category name is not one we know.
const DefaultCategorySlug = "productivity"

// categorySlugs maps the category names agents are told to use onto seeded slugs.
var categorySlugs = map[string]string{
	"Productivity":         "productivity",
	"Software Development": "software-development",
	"Wellness":             "wellness",
	"Business":             "business",
	"Finance":              "finance",
	"Design":               "design",
}

// CategoryNames lists the names agents may suggest, in display order.
var CategoryNames = []string{"Productivity", "Software Development", "Wellness", "Business", "Finance", "Design"}

// CategorySlugFor maps a suggested category name to a category slug. Matching ignores
// case and surrounding space; unknown names map to DefaultCategorySlug.
func CategorySlugFor(name string) string {
	name = strings.TrimSpace(name)
	if s, ok := categorySlugs[name]; ok {
		return s
	}
	for k, s := range categorySlugs {
		if strings.EqualFold(k, name) {
			return s
		}
	}
	return DefaultCategorySlug
}

// CanonicalCategoryName returns the known spelling of name, or "" if it is not a known category.
func CanonicalCategoryName(name string) string {
	name = strings.TrimSpace(name)
	for _, k := range CategoryNames {
		if strings.EqualFold(k, name) {
			return k
		}
	}
	return ""
}
