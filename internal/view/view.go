// Package view keeps the state of one mounted product page: the fetched
// collection, the table's sort/search settings, the inline-edit row and the
// add-product modal. Remote calls are made without holding the state lock,
// so a slow request never blocks rendering.
package view

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tair/seller-dashboard/internal/catalog"
	"github.com/tair/seller-dashboard/internal/events"
	"github.com/tair/seller-dashboard/internal/shell"
	"github.com/tair/seller-dashboard/pkg/logger"
)

var (
	// ErrSessionRejected means the page must redirect to the login route
	ErrSessionRejected = errors.New("view: seller session rejected")
	ErrNotEditing      = errors.New("view: no row is being edited")
	ErrUnknownProduct  = errors.New("view: product not in collection")
)

// Remote is the part of the e-commerce API a product page uses
type Remote interface {
	VerifySeller(ctx context.Context, sellerID string) (bool, error)
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	UpdateProduct(ctx context.Context, upd catalog.ProductUpdate) error
	AddProduct(ctx context.Context, draft catalog.NewProductDraft) error
	DeleteProduct(ctx context.Context, id catalog.ProductID) error
}

// ProductView is one mounted product page
type ProductView struct {
	sellerID string
	role     shell.Role
	remote   Remote
	events   events.Publisher

	mu             sync.Mutex
	products       []catalog.Product
	row            RowState
	newProduct     catalog.NewProductDraft
	addOpen        bool
	sort           catalog.SortConfig
	query          string
	searchExpanded bool
	menu           shell.Layout
}

type Option func(*ProductView)

func WithEvents(p events.Publisher) Option {
	return func(v *ProductView) { v.events = p }
}

func WithRole(role shell.Role) Option {
	return func(v *ProductView) { v.role = role }
}

func WithMenu(layout shell.Layout) Option {
	return func(v *ProductView) { v.menu = layout }
}

// New creates an unmounted view for sellerID
func New(sellerID string, remote Remote, opts ...Option) *ProductView {
	v := &ProductView{
		sellerID: sellerID,
		role:     shell.RoleSeller,
		remote:   remote,
		events:   events.Noop{},
		products: []catalog.Product{},
		row:      Viewing{},
		menu:     shell.NewLayout(shell.DefaultBreakpoint, 0),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *ProductView) SellerID() string { return v.sellerID }
func (v *ProductView) Role() shell.Role { return v.role }

// Mount runs the session gate and the initial refresh concurrently. Only a
// gate failure is returned; a failed refresh leaves the table empty.
func (v *ProductView) Mount(ctx context.Context) error {
	if v.sellerID == "" {
		return ErrSessionRejected
	}

	var g errgroup.Group
	g.Go(func() error {
		ok, err := v.remote.VerifySeller(ctx, v.sellerID)
		if err != nil {
			logger.ForSeller(ctx, v.sellerID).Error().Err(err).Msg("Error verifying seller")
			return ErrSessionRejected
		}
		if !ok {
			logger.ForSeller(ctx, v.sellerID).Warn().Msg("Seller session not logged in")
			return ErrSessionRejected
		}
		return nil
	})
	g.Go(func() error {
		_ = v.Refresh(ctx)
		return nil
	})
	return g.Wait()
}

// Refresh re-reads the whole collection. On failure the previous products
// stay in place.
func (v *ProductView) Refresh(ctx context.Context) error {
	products, err := v.remote.ListProducts(ctx)
	if err != nil {
		logger.ForSeller(ctx, v.sellerID).Error().Err(err).Msg("Error fetching products")
		return err
	}

	v.mu.Lock()
	v.products = products
	v.mu.Unlock()
	return nil
}

// SortBy applies a column header click
func (v *ProductView) SortBy(key catalog.SortKey) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sort = v.sort.Toggle(key)
}

func (v *ProductView) Search(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = query
}

// ToggleSearch expands or collapses the search box on narrow screens
func (v *ProductView) ToggleSearch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.searchExpanded = !v.searchExpanded
}

// ResizeMenu reapplies the viewport width to the sidebar. Widths on the
// same side of the breakpoint leave a toggled menu alone.
func (v *ProductView) ResizeMenu(width int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.menu.Crosses(width) {
		v.menu.Resize(width)
	}
}

func (v *ProductView) ToggleMenu() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.menu.Toggle()
}

// Edit puts the row into edit mode with a snapshot of its values. Any
// other row's unsaved draft is dropped.
func (v *ProductView) Edit(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	p, ok := catalog.Find(v.products, key)
	if !ok {
		return ErrUnknownProduct
	}
	v.row = Editing{ProductID: p.ProductID, Draft: catalog.DraftFrom(p)}
	return nil
}

// UpdateDraft replaces the fields of the row being edited
func (v *ProductView) UpdateDraft(draft catalog.EditDraft) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, ok := editing(v.row)
	if !ok {
		return ErrNotEditing
	}
	e.Draft = draft
	v.row = e
	return nil
}

// CancelEdit drops the draft without contacting the remote service
func (v *ProductView) CancelEdit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.row = Viewing{}
}

// Save sends the draft as a full-record update. On failure the row stays
// in edit mode with its draft so the user can retry.
func (v *ProductView) Save(ctx context.Context) error {
	v.mu.Lock()
	e, ok := editing(v.row)
	v.mu.Unlock()
	if !ok {
		return ErrNotEditing
	}

	upd := catalog.ProductUpdate{ProductID: e.ProductID, EditDraft: e.Draft}
	if err := v.remote.UpdateProduct(ctx, upd); err != nil {
		logger.ForSeller(ctx, v.sellerID).Error().Err(err).
			Str("product_id", e.ProductID.String()).
			Msg("Error updating product")
		return err
	}

	v.mu.Lock()
	// another row may have entered edit mode while the request was in flight
	if cur, ok := editing(v.row); ok && cur.ProductID == e.ProductID {
		v.row = Viewing{}
	}
	v.mu.Unlock()

	v.publish(ctx, events.EventTypeProductUpdated, e.ProductID)
	_ = v.Refresh(ctx)
	return nil
}

func (v *ProductView) OpenAdd() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.addOpen = true
}

// CloseAdd hides the modal; the draft is kept for the next open
func (v *ProductView) CloseAdd() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.addOpen = false
}

func (v *ProductView) UpdateNewProduct(draft catalog.NewProductDraft) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.newProduct = draft
}

// Add submits the add-product draft. Success resets the draft and closes
// the modal; failure leaves both untouched.
func (v *ProductView) Add(ctx context.Context) error {
	v.mu.Lock()
	draft := v.newProduct
	v.mu.Unlock()

	if err := v.remote.AddProduct(ctx, draft); err != nil {
		logger.ForSeller(ctx, v.sellerID).Error().Err(err).Msg("Error adding product")
		return err
	}

	v.mu.Lock()
	v.newProduct = catalog.NewProductDraft{}
	v.addOpen = false
	v.mu.Unlock()

	v.publish(ctx, events.EventTypeProductAdded, catalog.ProductID{})
	_ = v.Refresh(ctx)
	return nil
}

// Delete removes a product without confirmation. The row disappears only
// after the following refresh.
func (v *ProductView) Delete(ctx context.Context, key string) error {
	id := v.resolve(key)
	if err := v.remote.DeleteProduct(ctx, id); err != nil {
		logger.ForSeller(ctx, v.sellerID).Error().Err(err).
			Str("product_id", id.String()).
			Msg("Error deleting product")
		return err
	}

	v.publish(ctx, events.EventTypeProductDeleted, id)
	_ = v.Refresh(ctx)
	return nil
}

// resolve maps a path key back to the fetched id; unknown keys are passed
// through for the remote service to reject.
func (v *ProductView) resolve(key string) catalog.ProductID {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := catalog.Find(v.products, key); ok {
		return p.ProductID
	}
	return catalog.StringID(key)
}

func (v *ProductView) publish(ctx context.Context, eventType string, id catalog.ProductID) {
	err := v.events.Publish(ctx, events.Event{
		EventType: eventType,
		SellerID:  v.sellerID,
		ProductID: id.String(),
	})
	if err != nil {
		logger.ForSeller(ctx, v.sellerID).Warn().Err(err).Str("event_type", eventType).Msg("Failed to publish dashboard event")
	}
}

// Row is one rendered table row
type Row struct {
	Product catalog.Product
	Editing bool
	Draft   catalog.EditDraft
}

// Snapshot is a consistent copy of the view for rendering
type Snapshot struct {
	SellerID       string
	Role           shell.Role
	Rows           []Row
	Total          int
	Sort           catalog.SortConfig
	Query          string
	SearchExpanded bool
	AddOpen        bool
	NewProduct     catalog.NewProductDraft
	EditingID      catalog.ProductID
	IsEditing      bool
	Menu           shell.Layout
}

// Snapshot renders filter(sort(products, sort), query)
func (v *ProductView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, isEditing := editing(v.row)
	visible := catalog.Visible(v.products, v.sort, v.query)
	rows := make([]Row, 0, len(visible))
	for _, p := range visible {
		row := Row{Product: p}
		if isEditing && p.ProductID == e.ProductID {
			row.Editing = true
			row.Draft = e.Draft
		}
		rows = append(rows, row)
	}

	return Snapshot{
		SellerID:       v.sellerID,
		Role:           v.role,
		Rows:           rows,
		Total:          len(v.products),
		Sort:           v.sort,
		Query:          v.query,
		SearchExpanded: v.searchExpanded,
		AddOpen:        v.addOpen,
		NewProduct:     v.newProduct,
		EditingID:      e.ProductID,
		IsEditing:      isEditing,
		Menu:           v.menu,
	}
}
