package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCameraMP is used when a camera descriptor carries no MP figure.
const DefaultCameraMP = 12

var (
	cameraMPPattern   = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*MP`)
	thousandsPattern  = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	numberCharsFilter = regexp.MustCompile(`[^0-9.,\-]`)
)

// ParseCameraMP extracts the main sensor resolution from a descriptor such as
// "50 MP + 8 MP + 2 MP". The first figure wins.
func ParseCameraMP(spec string) float64 {
	m := cameraMPPattern.FindStringSubmatch(spec)
	if m == nil {
		if v, err := ParseNumber(spec); err == nil && v > 0 {
			return v
		}
		return DefaultCameraMP
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return DefaultCameraMP
	}
	return v
}

// ParseNumber reads a spreadsheet cell such as "Rp 6.499.000", "8 GB",
// "5000mAh" or "6,5" as a float.
func ParseNumber(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	s = numberCharsFilter.ReplaceAllString(s, "")
	switch {
	case thousandsPattern.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", cell)
	}
	return v, nil
}

// ParseBool reads yes/no style cells. Empty cells default to true.
func ParseBool(cell string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "", "1", "true", "yes", "y", "ya", "tersedia", "in stock", "available":
		return true, nil
	case "0", "false", "no", "n", "tidak", "habis", "out of stock", "unavailable":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", cell)
}
