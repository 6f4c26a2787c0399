package service

import (
	"regexp"
	"strconv"
	"strings"

	"phonecbr/internal/model"
)

// Usage profiles recognised in free-text usage descriptions.
const (
	ProfileGaming      = "gaming"
	ProfilePhotography = "photography"
	ProfileBattery     = "battery"
	ProfileBudget      = "budget"
	ProfileDaily       = "daily"
)

// usageProfile maps a usage profile to its weight preset and the soft targets
// it adds to the query.
type usageProfile struct {
	name     string
	preset   string
	keywords []string
	apply    func(q *model.QuerySpec)
}

var usageProfiles = []usageProfile{
	{
		name:     ProfileGaming,
		preset:   "performance",
		keywords: []string{"gaming", "game", "games", "gamer", "pubg", "mlbb", "genshin", "performa", "performance"},
		apply: func(q *model.QuerySpec) {
			setIfNil(&q.RAM, 12)
			setIfNil(&q.Storage, 256)
			setIfNil(&q.Battery, 5000)
			setIfNil(&q.ScreenSize, 6.6)
		},
	},
	{
		name:     ProfilePhotography,
		preset:   "photography",
		keywords: []string{"camera", "kamera", "foto", "photo", "photography", "fotografi", "selfie", "vlog", "video"},
		apply: func(q *model.QuerySpec) {
			setIfNil(&q.CameraMP, 64)
			setIfNil(&q.Storage, 256)
		},
	},
	{
		name:     ProfileBattery,
		preset:   "battery_life",
		keywords: []string{"battery", "baterai", "batre", "awet", "tahan lama", "long lasting"},
		apply: func(q *model.QuerySpec) {
			setIfNil(&q.Battery, 6000)
		},
	},
	{
		name:     ProfileBudget,
		preset:   "budget_focused",
		keywords: []string{"murah", "budget", "hemat", "cheap", "affordable", "terjangkau"},
		apply: func(q *model.QuerySpec) {
			setIfNil(&q.Rating, 4.0)
		},
	},
	{
		name:     ProfileDaily,
		preset:   "balanced",
		keywords: []string{"daily", "harian", "sehari-hari", "kerja", "work", "sekolah", "school", "sosmed", "social media"},
		apply: func(q *model.QuerySpec) {
			setIfNil(&q.RAM, 6)
			setIfNil(&q.Storage, 128)
			setIfNil(&q.Battery, 5000)
		},
	},
}

var (
	budgetPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(jt|juta|million|mio|m|rb|ribu|k)\b`)
	wordPattern   = regexp.MustCompile(`[\p{L}\p{N}-]+`)
)

var budgetMultipliers = map[string]float64{
	"jt":      1_000_000,
	"juta":    1_000_000,
	"million": 1_000_000,
	"mio":     1_000_000,
	"m":       1_000_000,
	"rb":      1_000,
	"ribu":    1_000,
	"k":       1_000,
}

// IntentParser turns free-text usage descriptions into a usage profile.
type IntentParser struct{}

// NewIntentParser creates a new intent parser
func NewIntentParser() *IntentParser {
	return &IntentParser{}
}

// Parse extracts the usage profile, matched keywords and budget from text.
// The profile with the most keyword hits wins; ties go to the earlier
// profile. Text with no hits falls back to the daily profile with zero
// confidence.
func (p *IntentParser) Parse(text string) *model.UsageIntent {
	text = strings.ToLower(strings.TrimSpace(text))
	result := &model.UsageIntent{Profile: ProfileDaily, Keywords: []string{}}
	if text == "" {
		return result
	}

	words := map[string]bool{}
	for _, w := range wordPattern.FindAllString(text, -1) {
		words[w] = true
	}

	best, bestHits := -1, 0
	for i, prof := range usageProfiles {
		hits := 0
		for _, kw := range prof.keywords {
			if matchesKeyword(text, words, kw) {
				hits++
				result.Keywords = append(result.Keywords, kw)
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}
	if best >= 0 {
		result.Profile = usageProfiles[best].name
		result.Confidence = min(1, 0.5+0.25*float64(bestHits))
	}
	result.MaxPrice = parseBudget(text)
	return result
}

// Apply fills the soft targets of the profile into q and returns the weight
// preset for it.
func (p *IntentParser) Apply(intent *model.UsageIntent, q *model.QuerySpec) string {
	for _, prof := range usageProfiles {
		if prof.name == intent.Profile {
			prof.apply(q)
			return prof.preset
		}
	}
	return "balanced"
}

// matchesKeyword matches single words against whole tokens and phrases
// against the text.
func matchesKeyword(text string, words map[string]bool, kw string) bool {
	if strings.ContainsAny(kw, " ") {
		return strings.Contains(text, kw)
	}
	return words[kw]
}

func parseBudget(text string) *float64 {
	m := budgetPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || v <= 0 {
		return nil
	}
	v *= budgetMultipliers[strings.ToLower(m[2])]
	return &v
}

func setIfNil(dst **float64, v float64) {
	if *dst == nil {
		*dst = &v
	}
}
