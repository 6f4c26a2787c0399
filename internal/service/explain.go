package service

import (
	"fmt"
	"strconv"
	"strings"

	"phonecbr/internal/model"
)

// MaxExplanations caps the reasons attached to one result.
const MaxExplanations = 3

// closeMatch is the relative shortfall still reported as a close match.
const closeMatch = 0.10

// explainRule describes one attribute check. Rules are evaluated in table
// order; hard rules are selected before soft ones.
type explainRule struct {
	hard   bool
	reason func(q *model.QuerySpec, p *model.Phone) (string, bool)
}

var explainRules = []explainRule{
	{hard: true, reason: priceReason},
	{reason: atLeast(model.AttrRAM, "RAM", "GB", func(q *model.QuerySpec) *float64 { return q.RAM })},
	{reason: atLeast(model.AttrStorage, "Storage", "GB", func(q *model.QuerySpec) *float64 { return q.Storage })},
	{reason: batteryReason},
	{reason: atLeast(model.AttrCamera, "Camera", "MP", func(q *model.QuerySpec) *float64 { return q.CameraMP })},
	{hard: true, reason: brandReason},
	{hard: true, reason: osReason},
	{reason: ratingReason},
}

// Explain returns up to MaxExplanations reasons why p matches q, in the fixed
// attribute order. Satisfied price, brand and OS checks take precedence over
// the soft attributes when the cap is reached.
func Explain(q *model.QuerySpec, p *model.Phone) []string {
	type hit struct {
		pos    int
		reason string
	}
	var hard, soft []hit
	for i, rule := range explainRules {
		text, ok := rule.reason(q, p)
		if !ok {
			continue
		}
		if rule.hard {
			hard = append(hard, hit{i, text})
		} else {
			soft = append(soft, hit{i, text})
		}
	}

	selected := make([]bool, len(explainRules))
	texts := make([]string, len(explainRules))
	n := 0
	for _, group := range [][]hit{hard, soft} {
		for _, h := range group {
			if n == MaxExplanations {
				break
			}
			selected[h.pos] = true
			texts[h.pos] = h.reason
			n++
		}
	}

	out := make([]string, 0, n)
	for i := range explainRules {
		if selected[i] {
			out = append(out, texts[i])
		}
	}
	return out
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func priceReason(q *model.QuerySpec, p *model.Phone) (string, bool) {
	if q.MaxPrice != nil && p.Price <= *q.MaxPrice {
		return fmt.Sprintf("Price within budget (%s ≤ %s)", formatNum(p.Price), formatNum(*q.MaxPrice)), true
	}
	if q.Price == nil {
		return "", false
	}
	target := *q.Price
	switch {
	case p.Price <= target:
		return fmt.Sprintf("Price at or below target (%s)", formatNum(p.Price)), true
	case target > 0 && p.Price <= target*(1+closeMatch):
		return fmt.Sprintf("Price close to target (%s)", formatNum(p.Price)), true
	}
	return "", false
}

func atLeast(a model.Attribute, label, unit string, want func(*model.QuerySpec) *float64) func(*model.QuerySpec, *model.Phone) (string, bool) {
	return func(q *model.QuerySpec, p *model.Phone) (string, bool) {
		w := want(q)
		if w == nil {
			return "", false
		}
		have := p.Value(a)
		switch {
		case have >= *w:
			return fmt.Sprintf("%s %s %s meets request (%s %s)", label, formatNum(have), unit, formatNum(*w), unit), true
		case *w > 0 && have >= *w*(1-closeMatch):
			return fmt.Sprintf("%s %s %s close to request", label, formatNum(have), unit), true
		}
		return "", false
	}
}

func batteryReason(q *model.QuerySpec, p *model.Phone) (string, bool) {
	if q.MinBattery != nil && p.Battery >= *q.MinBattery {
		return fmt.Sprintf("Big battery (%s mAh ≥ %s mAh)", formatNum(p.Battery), formatNum(*q.MinBattery)), true
	}
	return atLeast(model.AttrBattery, "Battery", "mAh", func(q *model.QuerySpec) *float64 { return q.Battery })(q, p)
}

func brandReason(q *model.QuerySpec, p *model.Phone) (string, bool) {
	if (len(q.PreferredBrands) > 0 && containsFold(q.PreferredBrands, p.Brand)) ||
		(q.Brand != "" && strings.EqualFold(strings.TrimSpace(q.Brand), p.Brand)) {
		return fmt.Sprintf("Preferred brand (%s)", p.Brand), true
	}
	return "", false
}

func osReason(q *model.QuerySpec, p *model.Phone) (string, bool) {
	for _, want := range []string{q.PreferredOS, q.OS} {
		if w := strings.TrimSpace(want); w != "" && strings.EqualFold(w, p.OS) {
			return fmt.Sprintf("OS matches (%s)", p.OS), true
		}
	}
	return "", false
}

func ratingReason(q *model.QuerySpec, p *model.Phone) (string, bool) {
	for _, want := range []*float64{q.MinRating, q.Rating} {
		if want != nil && p.Rating >= *want {
			return fmt.Sprintf("High rating (%s ≥ %s)", formatNum(p.Rating), formatNum(*want)), true
		}
	}
	return "", false
}
