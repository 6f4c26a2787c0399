package model

// UsageIntent is the usage profile parsed from a free-text description such as
// "gaming phone under 5 million".
type UsageIntent struct {
	Profile    string   `json:"profile"`
	Keywords   []string `json:"keywords,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	Confidence float64  `json:"confidence"`
}

// CatalogStatistics summarizes the catalog.
type CatalogStatistics struct {
	CatalogVersion uint64           `json:"catalog_version"`
	TotalPhones    int              `json:"total_phones"`
	InStock        int              `json:"in_stock"`
	Brands         []string         `json:"brands"`
	OperatingSys   []string         `json:"operating_systems"`
	Price          PriceSummary     `json:"price"`
	RAMOptions     []float64        `json:"ram_options"`
	StorageOptions []float64        `json:"storage_options"`
	Labels         map[Category]int `json:"labels"`
	Degenerate     []Attribute      `json:"degenerate_attributes,omitempty"`
}

// PriceSummary holds price extremes and mean.
type PriceSummary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// BrandCount is a brand with its catalog count.
type BrandCount struct {
	Brand string `json:"brand"`
	Count int    `json:"count"`
}

// PriceRange is a price bucket with its catalog count. Max is nil for the
// open-ended top bucket.
type PriceRange struct {
	Label string   `json:"label"`
	Min   float64  `json:"min"`
	Max   *float64 `json:"max,omitempty"`
	Count int      `json:"count"`
}

// Dashboard aggregates catalog distributions for the admin view.
type Dashboard struct {
	CatalogVersion uint64           `json:"catalog_version"`
	TotalPhones    int              `json:"total_phones"`
	Brands         []BrandCount     `json:"brands"`
	OS             map[string]int   `json:"os"`
	PriceRanges    []PriceRange     `json:"price_ranges"`
	Categories     map[Category]int `json:"categories"`
	TopRated       []Phone          `json:"top_rated"`
	ActiveWeights  WeightVector     `json:"active_weights"`
}
