package model

import "fmt"

// Attribute identifies one comparable phone attribute.
type Attribute int

const (
	AttrPrice Attribute = iota
	AttrRAM
	AttrStorage
	AttrBattery
	AttrCamera
	AttrScreen
	AttrRating
	AttrBrand
	AttrOS
)

// NumericCount is the number of numeric attributes. Numeric attributes occupy
// the indexes [0, NumericCount) so they can address fixed-size arrays.
const NumericCount = int(AttrRating) + 1

// Kind tells how an attribute is compared.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

type attributeInfo struct {
	key   string
	label string
	kind  Kind
}

var attributeTable = [...]attributeInfo{
	AttrPrice:   {key: "price", label: "Price", kind: Numeric},
	AttrRAM:     {key: "ram", label: "RAM", kind: Numeric},
	AttrStorage: {key: "storage", label: "Storage", kind: Numeric},
	AttrBattery: {key: "battery", label: "Battery", kind: Numeric},
	AttrCamera:  {key: "camera", label: "Camera", kind: Numeric},
	AttrScreen:  {key: "screen", label: "Screen size", kind: Numeric},
	AttrRating:  {key: "rating", label: "Rating", kind: Numeric},
	AttrBrand:   {key: "brand", label: "Brand", kind: Categorical},
	AttrOS:      {key: "os", label: "OS", kind: Categorical},
}

// Attributes lists every known attribute in canonical order.
var Attributes = []Attribute{
	AttrPrice, AttrRAM, AttrStorage, AttrBattery, AttrCamera,
	AttrScreen, AttrRating, AttrBrand, AttrOS,
}

// NumericAttributes lists the numeric attributes in canonical order.
var NumericAttributes = Attributes[:NumericCount]

// String returns the attribute's JSON key.
func (a Attribute) String() string {
	if a < 0 || int(a) >= len(attributeTable) {
		return "unknown"
	}
	return attributeTable[a].key
}

// Label returns a human readable attribute name.
func (a Attribute) Label() string {
	if a < 0 || int(a) >= len(attributeTable) {
		return "Unknown"
	}
	return attributeTable[a].label
}

// Kind reports whether the attribute is numeric or categorical.
func (a Attribute) Kind() Kind {
	return attributeTable[a].kind
}

// MarshalText encodes the attribute as its key.
func (a Attribute) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an attribute key.
func (a *Attribute) UnmarshalText(text []byte) error {
	parsed, ok := ParseAttribute(string(text))
	if !ok {
		return fmt.Errorf("unknown attribute %q", text)
	}
	*a = parsed
	return nil
}

// ParseAttribute resolves a JSON key to an attribute.
func ParseAttribute(key string) (Attribute, bool) {
	for _, a := range Attributes {
		if attributeTable[a].key == key {
			return a, true
		}
	}
	return 0, false
}
