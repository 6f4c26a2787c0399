package service

import "phonecbr/internal/model"

// Normalizer rescales numeric attributes into [0,1] using the min/max observed
// across one catalog snapshot.
type Normalizer struct {
	min        [model.NumericCount]float64
	max        [model.NumericCount]float64
	degenerate []model.Attribute
}

// NewNormalizer computes per-attribute extremes over phones.
func NewNormalizer(phones []model.Phone) *Normalizer {
	n := &Normalizer{}
	if len(phones) == 0 {
		return n
	}
	for _, a := range model.NumericAttributes {
		n.min[a] = phones[0].Value(a)
		n.max[a] = n.min[a]
	}
	for i := 1; i < len(phones); i++ {
		for _, a := range model.NumericAttributes {
			v := phones[i].Value(a)
			if v < n.min[a] {
				n.min[a] = v
			}
			if v > n.max[a] {
				n.max[a] = v
			}
		}
	}
	for _, a := range model.NumericAttributes {
		if n.max[a] == n.min[a] {
			n.degenerate = append(n.degenerate, a)
		}
	}
	return n
}

// Normalize returns (v-min)/(max-min) clamped to [0,1], or 0 for an attribute
// with no spread.
func (n *Normalizer) Normalize(a model.Attribute, v float64) float64 {
	span := n.max[a] - n.min[a]
	if span == 0 {
		return 0
	}
	x := (v - n.min[a]) / span
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Range returns the observed extremes of an attribute.
func (n *Normalizer) Range(a model.Attribute) (float64, float64) {
	return n.min[a], n.max[a]
}

// Degenerate returns the attributes whose max equals min.
func (n *Normalizer) Degenerate() []model.Attribute {
	return n.degenerate
}

// Warning reports degenerate attributes, if any.
func (n *Normalizer) Warning() DegenerateDataWarning {
	return DegenerateDataWarning{Attributes: n.degenerate}
}

// Vector returns the normalized numeric features of a record.
func (n *Normalizer) Vector(p *model.Phone) []float32 {
	out := make([]float32, model.NumericCount)
	for _, a := range model.NumericAttributes {
		out[a] = float32(n.Normalize(a, p.Value(a)))
	}
	return out
}
