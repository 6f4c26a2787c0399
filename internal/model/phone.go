package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Phone represents a catalog record. Records are never mutated in place; an
// update replaces the whole record.
type Phone struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name" validate:"required"`
	Brand       string    `db:"brand" json:"brand" validate:"required"`
	Price       float64   `db:"price" json:"price" validate:"gte=0"`
	RAM         float64   `db:"ram_gb" json:"ram" validate:"gte=0"`
	Storage     float64   `db:"storage_gb" json:"storage" validate:"gte=0"`
	Battery     float64   `db:"battery_mah" json:"battery" validate:"gte=0"`
	CameraSpec  string    `db:"camera_spec" json:"camera_spec,omitempty"`
	CameraMP    float64   `db:"camera_mp" json:"camera_mp" validate:"gte=0"`
	ScreenSize  float64   `db:"screen_in" json:"screen_size" validate:"gte=0"`
	Rating      float64   `db:"rating" json:"rating" validate:"gte=0,lte=5"`
	OS          string    `db:"os" json:"os"`
	InStock     bool      `db:"in_stock" json:"in_stock"`
	ReleaseYear *int      `db:"release_year" json:"release_year,omitempty" validate:"omitempty,gte=1990,lte=2100"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func phoneValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the record invariants: required identity fields, non-negative
// numerics and a rating within [0,5].
func (p *Phone) Validate() error {
	err := phoneValidator().Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Value returns the numeric value of an attribute.
func (p *Phone) Value(a Attribute) float64 {
	switch a {
	case AttrPrice:
		return p.Price
	case AttrRAM:
		return p.RAM
	case AttrStorage:
		return p.Storage
	case AttrBattery:
		return p.Battery
	case AttrCamera:
		return p.CameraMP
	case AttrScreen:
		return p.ScreenSize
	case AttrRating:
		return p.Rating
	}
	return 0
}

// Case returns the fully specified attribute view of the record.
func (p *Phone) Case() Case {
	var c Case
	for _, a := range NumericAttributes {
		c.Values[a] = p.Value(a)
		c.Present[a] = true
	}
	c.Brand = p.Brand
	c.OS = p.OS
	return c
}

// Case is the attribute view compared by the distance calculator. A numeric
// attribute that is not Present, or an empty categorical value, means no
// preference.
type Case struct {
	Values  [NumericCount]float64
	Present [NumericCount]bool
	Brand   string
	OS      string
}

// PhoneFilter holds browse filters for catalog listing.
type PhoneFilter struct {
	Brand    *string  `form:"brand" json:"brand,omitempty"`
	OS       *string  `form:"os" json:"os,omitempty"`
	MinPrice *float64 `form:"min_price" json:"min_price,omitempty"`
	MaxPrice *float64 `form:"max_price" json:"max_price,omitempty"`
	MinRAM   *float64 `form:"min_ram" json:"min_ram,omitempty"`
	InStock  *bool    `form:"in_stock" json:"in_stock,omitempty"`
	Search   *string  `form:"q" json:"q,omitempty"`
}

// PhoneListRequest is the browse request.
type PhoneListRequest struct {
	PhoneFilter
	SortBy    string `form:"sort_by" json:"sort_by"`
	SortOrder string `form:"sort_order" json:"sort_order"`
	Page      int    `form:"page" json:"page"`
	PageSize  int    `form:"limit" json:"limit"`
}

// PhoneListResponse is a page of catalog records.
type PhoneListResponse struct {
	Phones     []Phone `json:"phones"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
	HasMore    bool    `json:"has_more"`
}

// FeatureItem is a record's normalized feature vector tagged with the catalog
// version it was computed for.
type FeatureItem struct {
	PhoneID        int64     `json:"phone_id"`
	CatalogVersion uint64    `json:"catalog_version"`
	Features       []float32 `json:"features"`
}

// FeatureSyncResponse reports a feature vector sync.
type FeatureSyncResponse struct {
	CatalogVersion uint64   `json:"catalog_version"`
	Success        int      `json:"success"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors,omitempty"`
}

// JSONMap stores an arbitrary JSON object in a text or JSONB column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to scan JSONMap: unexpected type %T", value)
	}
	return json.Unmarshal(bytes, j)
}
