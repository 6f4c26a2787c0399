package model

import "strings"

// QuerySpec is the user's desired phone. Nil numeric fields and empty
// categorical fields are soft "no preference" values; the hard constraints
// filter candidates before scoring and are ignored when unset.
type QuerySpec struct {
	Price      *float64 `json:"price,omitempty"`
	RAM        *float64 `json:"ram,omitempty"`
	Storage    *float64 `json:"storage,omitempty"`
	Battery    *float64 `json:"battery,omitempty"`
	CameraMP   *float64 `json:"camera_mp,omitempty"`
	ScreenSize *float64 `json:"screen_size,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	Brand      string   `json:"brand,omitempty"`
	OS         string   `json:"os,omitempty"`

	// Hard constraints
	PreferredBrands []string `json:"preferred_brands,omitempty"`
	PreferredOS     string   `json:"preferred_os,omitempty"`
	MinPrice        *float64 `json:"min_price,omitempty"`
	MaxPrice        *float64 `json:"max_price,omitempty"`
	MinRating       *float64 `json:"min_rating,omitempty"`
	MinBattery      *float64 `json:"min_battery,omitempty"`
	InStockOnly     bool     `json:"in_stock_only,omitempty"`
}

func (q *QuerySpec) numeric(a Attribute) *float64 {
	switch a {
	case AttrPrice:
		return q.Price
	case AttrRAM:
		return q.RAM
	case AttrStorage:
		return q.Storage
	case AttrBattery:
		return q.Battery
	case AttrCamera:
		return q.CameraMP
	case AttrScreen:
		return q.ScreenSize
	case AttrRating:
		return q.Rating
	}
	return nil
}

// Case returns the soft attribute view of the query.
func (q *QuerySpec) Case() Case {
	var c Case
	for _, a := range NumericAttributes {
		if v := q.numeric(a); v != nil {
			c.Values[a] = *v
			c.Present[a] = true
		}
	}
	c.Brand = strings.TrimSpace(q.Brand)
	c.OS = strings.TrimSpace(q.OS)
	return c
}

// QueryFromPhone builds a fully specified query mirroring a record, with no
// hard constraints.
func QueryFromPhone(p *Phone) QuerySpec {
	price, ram, storage := p.Price, p.RAM, p.Storage
	battery, camera, screen, rating := p.Battery, p.CameraMP, p.ScreenSize, p.Rating
	return QuerySpec{
		Price:      &price,
		RAM:        &ram,
		Storage:    &storage,
		Battery:    &battery,
		CameraMP:   &camera,
		ScreenSize: &screen,
		Rating:     &rating,
		Brand:      p.Brand,
		OS:         p.OS,
	}
}

// RankedResult is one scored catalog record.
type RankedResult struct {
	Rank         int      `json:"rank"`
	Similarity   float64  `json:"similarity"`
	Distance     float64  `json:"distance"`
	Phone        Phone    `json:"phone"`
	Explanations []string `json:"explanations"`
}

// RecommendOptions controls result size and the similarity floor.
type RecommendOptions struct {
	TopK          int      `json:"top_k"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
}

// RecommendRequest represents a recommendation request
type RecommendRequest struct {
	Query   QuerySpec         `json:"query"`
	Weights *WeightVector     `json:"weights,omitempty"`
	Options *RecommendOptions `json:"options,omitempty"`
}

// RecommendResponse represents a recommendation response
type RecommendResponse struct {
	Results        []RankedResult `json:"results"`
	Total          int            `json:"total"`
	Candidates     int            `json:"candidates"`
	CatalogVersion uint64         `json:"catalog_version"`
	WeightsUsed    WeightVector   `json:"weights_used"`
	Warnings       []string       `json:"warnings,omitempty"`
	Usage          *UsageIntent   `json:"usage,omitempty"`
	Took           int64          `json:"took_ms"`
}

// QuickRecommendRequest carries the minimal recommendation inputs.
type QuickRecommendRequest struct {
	MaxPrice       *float64 `json:"max_price,omitempty"`
	RAM            *float64 `json:"ram,omitempty"`
	Storage        *float64 `json:"storage,omitempty"`
	MinBattery     *float64 `json:"min_battery,omitempty"`
	PreferredBrand string   `json:"preferred_brand,omitempty"`
	PreferredOS    string   `json:"preferred_os,omitempty"`
	Usage          string   `json:"usage,omitempty"`
	TopK           int      `json:"top_k"`
}

// ExplainRequest asks for the match reasons of one record against a query.
type ExplainRequest struct {
	PhoneID int64     `json:"phone_id" binding:"required"`
	Query   QuerySpec `json:"query"`
}

// ExplainResponse lists the match reasons.
type ExplainResponse struct {
	PhoneID      int64    `json:"phone_id"`
	Explanations []string `json:"explanations"`
}

// SimilarResponse is a stored record with its nearest neighbours.
type SimilarResponse struct {
	Phone   Phone          `json:"phone"`
	Similar []RankedResult `json:"similar"`
}

// RecommendationLog is an audit entry for a served recommendation.
type RecommendationLog struct {
	Query          JSONMap `db:"query"`
	ResultCount    int     `db:"result_count"`
	PhoneIDs       string  `db:"phone_ids"`
	CatalogVersion int64   `db:"catalog_version"`
	ResponseTimeMs int     `db:"response_time_ms"`
}
