package service

import (
	"math"
	"testing"

	"phonecbr/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestDistanceIdentity(t *testing.T) {
	phones := samplePhones()
	n := NewNormalizer(phones)
	w := model.DefaultWeights()

	for i := range phones {
		c := phones[i].Case()
		assert.Equal(t, 0.0, Distance(c, c, w, n), phones[i].Name)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	phones := samplePhones()
	n := NewNormalizer(phones)
	w := model.DefaultWeights()

	for i := range phones {
		for j := range phones {
			a, b := phones[i].Case(), phones[j].Case()
			assert.InDelta(t, Distance(a, b, w, n), Distance(b, a, w, n), 1e-12)
		}
	}
}

func TestDistanceBounded(t *testing.T) {
	phones := samplePhones()
	n := NewNormalizer(phones)
	w := model.DefaultWeights()

	// Every per-attribute difference is at most 1 and weights sum to 100.
	for i := range phones {
		for j := range phones {
			d := Distance(phones[i].Case(), phones[j].Case(), w, n)
			assert.GreaterOrEqual(t, d, 0.0)
			assert.LessOrEqual(t, d, 1.0+1e-9)
		}
	}
}

func TestDistanceSkipsMissingAttributes(t *testing.T) {
	phones := samplePhones()
	n := NewNormalizer(phones)
	w := model.DefaultWeights()

	q := model.QuerySpec{RAM: ptr(16)}
	// Only RAM is compared: ROG Phone 8 has 16 GB.
	assert.Equal(t, 0.0, Distance(q.Case(), phones[3].Case(), w, n))

	// RAM 4 vs 16 is the full normalized span.
	want := math.Sqrt(w.RAM / 100)
	assert.InDelta(t, want, Distance(q.Case(), phones[5].Case(), w, n), 1e-12)

	// An empty query matches everything.
	empty := model.QuerySpec{}
	for i := range phones {
		assert.Equal(t, 0.0, Distance(empty.Case(), phones[i].Case(), w, n))
	}
}

func TestDistanceCategorical(t *testing.T) {
	phones := samplePhones()
	n := NewNormalizer(phones)
	w := model.DefaultWeights()

	same := model.QuerySpec{Brand: "samsung", OS: "ANDROID"}
	assert.Equal(t, 0.0, Distance(same.Case(), phones[0].Case(), w, n))

	other := model.QuerySpec{Brand: "Apple", OS: "iOS"}
	want := math.Sqrt(w.Brand/100 + w.OS/100)
	assert.InDelta(t, want, Distance(other.Case(), phones[0].Case(), w, n), 1e-12)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity(0))
	assert.Equal(t, 0.5, Similarity(1))

	prev := Similarity(0)
	for d := 0.1; d < 5; d += 0.1 {
		s := Similarity(d)
		assert.Less(t, s, prev)
		assert.Greater(t, s, 0.0)
		prev = s
	}
}
