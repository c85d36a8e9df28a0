// Package catalog holds the product records the dashboard displays and the
// pure sort/filter pipeline that turns a fetched collection into table rows.
package catalog

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ProductID is the remote service's identifier. The API sends it either as
// a JSON string or a JSON number and expects it back in the same form.
type ProductID struct {
	raw string
	num bool
}

// StringID is an id the remote service sent as a JSON string
func StringID(s string) ProductID {
	return ProductID{raw: s}
}

// NumberID is an id the remote service sent as a JSON number. Text that is
// not a number is kept as a string id.
func NumberID(s string) ProductID {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return StringID(s)
	}
	return ProductID{raw: s, num: true}
}

func (id ProductID) String() string {
	return id.raw
}

func (id ProductID) IsZero() bool {
	return id == ProductID{}
}

// Number reports the numeric value of an id that arrived as a JSON number
func (id ProductID) Number() (float64, bool) {
	if !id.num {
		return 0, false
	}
	f, err := strconv.ParseFloat(id.raw, 64)
	return f, err == nil
}

// MarshalJSON writes the id back exactly as it was received
func (id ProductID) MarshalJSON() ([]byte, error) {
	if id.num {
		return []byte(id.raw), nil
	}
	return json.Marshal(id.raw)
}

func (id *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ProductID{}
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("productId: %w", err)
	}
	*id = NumberID(n.String())
	return nil
}

// Product is the remote service's product record
type Product struct {
	ProductID      ProductID `json:"productId"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Price          float64   `json:"price"`
	InStockValue   int       `json:"inStockValue"`
	SoldStockValue int       `json:"soldStockValue"`
	Description    string    `json:"description"`
}

// UnmarshalJSON tolerates numeric fields sent as strings or left empty,
// which the add-product form of older clients produced.
func (p *Product) UnmarshalJSON(b []byte) error {
	var raw struct {
		ProductID      ProductID       `json:"productId"`
		Name           *string         `json:"name"`
		Category       *string         `json:"category"`
		Price          json.RawMessage `json:"price"`
		InStockValue   json.RawMessage `json:"inStockValue"`
		SoldStockValue json.RawMessage `json:"soldStockValue"`
		Description    *string         `json:"description"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	price, err := flexFloat(raw.Price)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	inStock, err := flexFloat(raw.InStockValue)
	if err != nil {
		return fmt.Errorf("inStockValue: %w", err)
	}
	sold, err := flexFloat(raw.SoldStockValue)
	if err != nil {
		return fmt.Errorf("soldStockValue: %w", err)
	}

	*p = Product{
		ProductID:      raw.ProductID,
		Name:           deref(raw.Name),
		Category:       deref(raw.Category),
		Price:          price,
		InStockValue:   int(inStock),
		SoldStockValue: int(sold),
		Description:    deref(raw.Description),
	}
	return nil
}

func flexFloat(b json.RawMessage) (float64, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	err := json.Unmarshal(b, &f)
	return f, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Find returns the product whose id reads as key. Ids taken from a URL path
// have lost their JSON kind, so the match is on the text alone.
func Find(products []Product, key string) (Product, bool) {
	for _, p := range products {
		if p.ProductID.String() == key {
			return p, true
		}
	}
	return Product{}, false
}
