package catalog

// EditDraft is the unsaved copy of a row being edited inline
type EditDraft struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Price          float64 `json:"price"`
	InStockValue   int     `json:"inStockValue"`
	SoldStockValue int     `json:"soldStockValue"`
	Description    string  `json:"description"`
}

// DraftFrom snapshots the editable fields of p
func DraftFrom(p Product) EditDraft {
	return EditDraft{
		Name:           p.Name,
		Category:       p.Category,
		Price:          p.Price,
		InStockValue:   p.InStockValue,
		SoldStockValue: p.SoldStockValue,
		Description:    p.Description,
	}
}

// ProductUpdate is the full-record body of an inline save
type ProductUpdate struct {
	ProductID ProductID `json:"productId"`
	EditDraft
}

// NewProductDraft is the add-product form state
type NewProductDraft struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	InStockValue int     `json:"inStockValue"`
	Description  string  `json:"description"`
}
