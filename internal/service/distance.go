package service

import (
	"math"
	"strings"

	"phonecbr/internal/model"
)

// Distance computes the weighted Euclidean distance between a query case and a
// catalog case. Numeric attributes are compared on their normalized values;
// categorical attributes differ by 0 or 1. An attribute missing from either
// side is skipped for this comparison.
func Distance(q, c model.Case, w model.WeightVector, n *Normalizer) float64 {
	var sum float64
	for _, a := range model.NumericAttributes {
		if !q.Present[a] || !c.Present[a] {
			continue
		}
		diff := n.Normalize(a, q.Values[a]) - n.Normalize(a, c.Values[a])
		sum += w.Get(a) / 100 * diff * diff
	}
	sum += w.Brand / 100 * categoricalDiff(q.Brand, c.Brand)
	sum += w.OS / 100 * categoricalDiff(q.OS, c.OS)
	return math.Sqrt(sum)
}

func categoricalDiff(a, b string) float64 {
	if a == "" || b == "" || strings.EqualFold(a, b) {
		return 0
	}
	return 1
}

// Similarity maps a distance to (0,1]. Retrieval and evaluation share it.
func Similarity(distance float64) float64 {
	return 1 / (1 + distance)
}
