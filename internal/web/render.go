package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/tair/seller-dashboard/internal/catalog"
	"github.com/tair/seller-dashboard/internal/shell"
	"github.com/tair/seller-dashboard/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

// Column is one table header. An empty Key renders a plain header.
type Column struct {
	Key   catalog.SortKey
	Label string
}

var productColumns = []Column{
	{catalog.SortByName, "Product"},
	{catalog.SortByCategory, "Category"},
	{catalog.SortByPrice, "Price"},
	{catalog.SortByInStockValue, "In Stock"},
	{catalog.SortBySoldStockValue, "Sold"},
	{"", "Description"},
}

// Page is everything the product template needs
type Page struct {
	Title       string
	Brand       string
	View        view.Snapshot
	Menu        []shell.MenuItem
	CurrentPath string
	PagePath    string
	LogoutPath  string
	Token       string
	Columns     []Column
}

// Renderer executes the embedded page templates
type Renderer struct {
	tmpl  *template.Template
	brand string
}

func NewRenderer(brand string) (*Renderer, error) {
	tmpl, err := template.New("dashboard").Funcs(template.FuncMap{
		"isActive": func(item shell.MenuItem, current string) bool { return item.Active(current) },
		"sortMark": sortMark,
		"orDash":   orDash,
		"number":   formatNumber,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, brand: brand}, nil
}

// Title is the document title for a role's product page
func (r *Renderer) Title(role shell.Role) string {
	return fmt.Sprintf("Products | %s | %s", role, r.brand)
}

// Render executes the product page into a buffer so a template error never
// produces a half-written response
func (r *Renderer) Render(page Page) ([]byte, error) {
	if page.Brand == "" {
		page.Brand = r.brand
	}
	if page.Columns == nil {
		page.Columns = productColumns
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page", page); err != nil {
		return nil, fmt.Errorf("render product page: %w", err)
	}
	return buf.Bytes(), nil
}

func sortMark(cfg catalog.SortConfig, key catalog.SortKey) string {
	if cfg.Key != key {
		return "↕"
	}
	if cfg.Direction == catalog.Descending {
		return "▼"
	}
	return "▲"
}

// orDash renders empty and zero values as "-"
func orDash(v any) string {
	switch x := v.(type) {
	case string:
		if x == "" {
			return "-"
		}
		return x
	case int:
		if x == 0 {
			return "-"
		}
		return strconv.Itoa(x)
	case float64:
		if x == 0 {
			return "-"
		}
		return formatNumber(x)
	case nil:
		return "-"
	default:
		return fmt.Sprint(x)
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
