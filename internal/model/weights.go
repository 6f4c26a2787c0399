package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WeightVector holds one percentage weight per known attribute.
type WeightVector struct {
	Price   float64 `json:"price"`
	RAM     float64 `json:"ram"`
	Storage float64 `json:"storage"`
	Battery float64 `json:"battery"`
	Camera  float64 `json:"camera"`
	Screen  float64 `json:"screen"`
	Rating  float64 `json:"rating"`
	Brand   float64 `json:"brand"`
	OS      float64 `json:"os"`
}

// WeightKeyError reports an unknown or missing attribute key in a weight map.
type WeightKeyError struct {
	Key     string
	Missing bool
}

func (e *WeightKeyError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing weight for %s", e.Key)
	}
	return fmt.Sprintf("unknown attribute %q", e.Key)
}

// WeightsFromMap builds a vector from attribute keys. Every known attribute
// must be present and no other key is accepted.
func WeightsFromMap(raw map[string]float64) (WeightVector, error) {
	var w WeightVector
	seen := make(map[Attribute]bool, len(raw))
	for key, v := range raw {
		a, ok := ParseAttribute(strings.ToLower(strings.TrimSpace(key)))
		if !ok {
			return WeightVector{}, &WeightKeyError{Key: key}
		}
		w.set(a, v)
		seen[a] = true
	}
	for _, a := range Attributes {
		if !seen[a] {
			return WeightVector{}, &WeightKeyError{Key: a.String(), Missing: true}
		}
	}
	return w, nil
}

// UnmarshalJSON decodes a weight object with the same strict key rules as
// WeightsFromMap.
func (w *WeightVector) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := WeightsFromMap(raw)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

func (w *WeightVector) set(a Attribute, v float64) {
	switch a {
	case AttrPrice:
		w.Price = v
	case AttrRAM:
		w.RAM = v
	case AttrStorage:
		w.Storage = v
	case AttrBattery:
		w.Battery = v
	case AttrCamera:
		w.Camera = v
	case AttrScreen:
		w.Screen = v
	case AttrRating:
		w.Rating = v
	case AttrBrand:
		w.Brand = v
	case AttrOS:
		w.OS = v
	}
}

// Get returns the weight of an attribute.
func (w WeightVector) Get(a Attribute) float64 {
	switch a {
	case AttrPrice:
		return w.Price
	case AttrRAM:
		return w.RAM
	case AttrStorage:
		return w.Storage
	case AttrBattery:
		return w.Battery
	case AttrCamera:
		return w.Camera
	case AttrScreen:
		return w.Screen
	case AttrRating:
		return w.Rating
	case AttrBrand:
		return w.Brand
	case AttrOS:
		return w.OS
	}
	return 0
}

// Total sums every weight.
func (w WeightVector) Total() float64 {
	var total float64
	for _, a := range Attributes {
		total += w.Get(a)
	}
	return total
}

// DefaultWeights is the startup weight vector.
func DefaultWeights() WeightVector {
	return WeightVector{
		Price:   25,
		RAM:     15,
		Storage: 10,
		Battery: 15,
		Camera:  10,
		Screen:  5,
		Rating:  10,
		Brand:   5,
		OS:      5,
	}
}

// WeightValidation is the outcome of checking a weight vector.
type WeightValidation struct {
	Valid  bool    `json:"valid"`
	Total  float64 `json:"total"`
	Reason string  `json:"reason,omitempty"`
}

// WeightPreset is a named weight vector.
type WeightPreset struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Weights     WeightVector `json:"weights"`
}

// WeightsResponse describes the active weights.
type WeightsResponse struct {
	Weights WeightVector `json:"weights"`
	Total   float64      `json:"total"`
	Source  string       `json:"source"`
}
