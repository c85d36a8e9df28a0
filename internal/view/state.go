package view

import "github.com/tair/seller-dashboard/internal/catalog"

// RowState is the inline-edit state of the product table. A view holds
// exactly one RowState, so at most one row can be Editing.
type RowState interface {
	rowState()
}

// Viewing means no row is being edited
type Viewing struct{}

// Editing holds the unsaved draft of one row
type Editing struct {
	ProductID catalog.ProductID
	Draft     catalog.EditDraft
}

func (Viewing) rowState() {}
func (Editing) rowState() {}

// editing returns the active draft, if any
func editing(s RowState) (Editing, bool) {
	e, ok := s.(Editing)
	return e, ok
}
