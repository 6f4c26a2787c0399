package utils

import (
	"reflect"
	"testing"
)

func TestNormalizeBrand(t *testing.T) {
	tests := map[string]string{
		"  redmi ":  "Xiaomi",
		"SAMSUNG":   "Samsung",
		"One  Plus": "OnePlus",
		"iqoo":      "iQOO",
		"Fairphone": "Fairphone",
		"":          "",
	}
	for input, want := range tests {
		if got := NormalizeBrand(input); got != want {
			t.Errorf("NormalizeBrand(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeOS(t *testing.T) {
	tests := map[string]string{
		"Android 14": "Android",
		"IOS":        "iOS",
		"ios 17.2":   "iOS",
		"harmony":    "HarmonyOS",
		" KaiOS ":    "KaiOS",
		"":           "",
	}
	for input, want := range tests {
		if got := NormalizeOS(input); got != want {
			t.Errorf("NormalizeOS(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFuzzyMatchBrand(t *testing.T) {
	tests := []struct {
		search string
		brand  string
		want   bool
	}{
		{"samsung", "Samsung", true},
		{"redmi", "Xiaomi", true},
		{"sam", "Samsung", true},
		{"apple", "Samsung", false},
		{"", "Samsung", false},
		{"rog", "Asus", true},
	}

	for _, tt := range tests {
		if got := FuzzyMatchBrand(tt.search, tt.brand); got != tt.want {
			t.Errorf("FuzzyMatchBrand(%q, %q) = %v, want %v", tt.search, tt.brand, got, tt.want)
		}
	}
}

func TestCanonicalBrands(t *testing.T) {
	got := CanonicalBrands([]string{" galaxy", "Samsung", "", "iphone"})
	want := []string{"Samsung", "Apple"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CanonicalBrands() = %v, want %v", got, want)
	}
}
