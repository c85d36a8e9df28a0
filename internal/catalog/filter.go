package catalog

import "strings"

// Matches reports whether the id or name contains query, ignoring case
func (p Product) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.ProductID.String()), q) ||
		strings.Contains(strings.ToLower(p.Name), q)
}

// Filter keeps matching products in their existing order
func Filter(products []Product, query string) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Matches(query) {
			out = append(out, p)
		}
	}
	return out
}

// Visible is the rendered row set: filter(sort(products, cfg), query)
func Visible(products []Product, cfg SortConfig, query string) []Product {
	return Filter(Sort(products, cfg), query)
}
