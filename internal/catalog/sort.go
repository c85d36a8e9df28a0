package catalog

import (
	"cmp"
	"slices"
)

// SortKey names the product field a table is ordered by
type SortKey string

const (
	SortNone             SortKey = ""
	SortByProductID      SortKey = "productId"
	SortByName           SortKey = "name"
	SortByCategory       SortKey = "category"
	SortByPrice          SortKey = "price"
	SortByInStockValue   SortKey = "inStockValue"
	SortBySoldStockValue SortKey = "soldStockValue"
	SortByDescription    SortKey = "description"
)

// ParseSortKey validates a key received from a form
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(s); k {
	case SortByProductID, SortByName, SortByCategory, SortByPrice,
		SortByInStockValue, SortBySoldStockValue, SortByDescription:
		return k, true
	}
	return SortNone, false
}

type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// SortConfig is the table's active ordering. The zero value keeps fetched order.
type SortConfig struct {
	Key       SortKey
	Direction Direction
}

// Toggle applies a header click: the active key flips direction, any other
// key becomes active in ascending order.
func (c SortConfig) Toggle(key SortKey) SortConfig {
	if c.Key == key && c.direction() == Ascending {
		return SortConfig{Key: key, Direction: Descending}
	}
	return SortConfig{Key: key, Direction: Ascending}
}

func (c SortConfig) direction() Direction {
	if c.Direction == Descending {
		return Descending
	}
	return Ascending
}

// Sort returns a stably sorted copy of products; the input is left untouched
func Sort(products []Product, cfg SortConfig) []Product {
	out := slices.Clone(products)
	if out == nil {
		out = []Product{}
	}
	if cfg.Key == SortNone {
		return out
	}

	desc := cfg.direction() == Descending
	slices.SortStableFunc(out, func(a, b Product) int {
		c := compareBy(cfg.Key, a, b)
		if desc {
			return -c
		}
		return c
	})
	return out
}

func compareBy(key SortKey, a, b Product) int {
	switch key {
	case SortByProductID:
		return compareIDs(a.ProductID, b.ProductID)
	case SortByName:
		return cmp.Compare(a.Name, b.Name)
	case SortByCategory:
		return cmp.Compare(a.Category, b.Category)
	case SortByPrice:
		return cmp.Compare(a.Price, b.Price)
	case SortByInStockValue:
		return cmp.Compare(a.InStockValue, b.InStockValue)
	case SortBySoldStockValue:
		return cmp.Compare(a.SoldStockValue, b.SoldStockValue)
	case SortByDescription:
		return cmp.Compare(a.Description, b.Description)
	}
	return 0
}

// compareIDs orders numeric ids by value and falls back to text when either
// side arrived as a string.
func compareIDs(a, b ProductID) int {
	x, aok := a.Number()
	y, bok := b.Number()
	if aok && bok {
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.String(), b.String())
}
