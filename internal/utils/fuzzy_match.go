package utils

import (
	"strings"
)

// brandAliases maps lowercase spellings to the canonical brand name.
var brandAliases = map[string]string{
	"samsung":  "Samsung",
	"galaxy":   "Samsung",
	"apple":    "Apple",
	"iphone":   "Apple",
	"xiaomi":   "Xiaomi",
	"mi":       "Xiaomi",
	"redmi":    "Xiaomi",
	"poco":     "Poco",
	"oppo":     "Oppo",
	"vivo":     "Vivo",
	"iqoo":     "iQOO",
	"realme":   "Realme",
	"infinix":  "Infinix",
	"tecno":    "Tecno",
	"itel":     "Itel",
	"asus":     "Asus",
	"rog":      "Asus",
	"google":   "Google",
	"pixel":    "Google",
	"oneplus":  "OnePlus",
	"one plus": "OnePlus",
	"nokia":    "Nokia",
	"motorola": "Motorola",
	"moto":     "Motorola",
	"huawei":   "Huawei",
	"honor":    "Honor",
	"sony":     "Sony",
	"nothing":  "Nothing",
}

// osAliases maps lowercase spellings to the canonical OS name.
var osAliases = map[string]string{
	"android":   "Android",
	"andriod":   "Android",
	"ios":       "iOS",
	"iphone os": "iOS",
	"harmonyos": "HarmonyOS",
	"harmony":   "HarmonyOS",
	"hongmeng":  "HarmonyOS",
}

// NormalizeBrand normalizes brand names to standard form
func NormalizeBrand(brand string) string {
	return normalize(brand, brandAliases)
}

// NormalizeOS normalizes operating system names to standard form. Version
// suffixes such as "Android 14" are dropped.
func NormalizeOS(os string) string {
	lower := strings.ToLower(strings.TrimSpace(os))
	if lower == "" {
		return ""
	}
	if canonical, ok := osAliases[lower]; ok {
		return canonical
	}
	for alias, canonical := range osAliases {
		if strings.HasPrefix(lower, alias+" ") {
			return canonical
		}
	}
	return strings.TrimSpace(os)
}

func normalize(value string, aliases map[string]string) string {
	collapsed := strings.Join(strings.Fields(value), " ")
	if canonical, ok := aliases[strings.ToLower(collapsed)]; ok {
		return canonical
	}
	return collapsed
}

// FuzzyMatchBrand reports whether a user-typed brand refers to the catalog
// brand, accepting aliases and substrings.
func FuzzyMatchBrand(searchTerm, brand string) bool {
	searchLower := strings.ToLower(strings.TrimSpace(searchTerm))
	brandLower := strings.ToLower(strings.TrimSpace(brand))
	if searchLower == "" || brandLower == "" {
		return false
	}

	// Exact match
	if searchLower == brandLower {
		return true
	}

	// Alias match
	if canonical, ok := brandAliases[searchLower]; ok && strings.EqualFold(canonical, brand) {
		return true
	}

	// Contains match
	return strings.Contains(brandLower, searchLower)
}

// CanonicalBrands resolves user-typed brands to canonical names, dropping
// blanks and duplicates.
func CanonicalBrands(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		b := NormalizeBrand(t)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}
