package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/seller-dashboard/internal/catalog"
	"github.com/tair/seller-dashboard/internal/shell"
	"github.com/tair/seller-dashboard/internal/view"
)

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "-", orDash(0))
	assert.Equal(t, "-", orDash(0.0))
	assert.Equal(t, "Soap", orDash("Soap"))
	assert.Equal(t, "4", orDash(4))
	assert.Equal(t, "12.5", orDash(12.5))
}

func TestSortMark(t *testing.T) {
	cfg := catalog.SortConfig{Key: catalog.SortByPrice, Direction: catalog.Descending}

	assert.Equal(t, "▼", sortMark(cfg, catalog.SortByPrice))
	assert.Equal(t, "↕", sortMark(cfg, catalog.SortByName))
	assert.Equal(t, "▲", sortMark(catalog.SortConfig{}.Toggle(catalog.SortByName), catalog.SortByName))
}

func TestRender_EscapesProductFields(t *testing.T) {
	r, err := NewRenderer("Mera Bestie")
	require.NoError(t, err)

	body, err := r.Render(Page{
		Title: r.Title(shell.RoleAdmin),
		View: view.Snapshot{
			Rows: []view.Row{{Product: catalog.Product{ProductID: catalog.NumberID("1"), Name: "<script>x</script>"}}},
			Menu: shell.NewLayout(1024, 0),
		},
		PagePath: "/admin/products/s-1",
	})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "<script>x</script>")
	assert.Contains(t, string(body), "&lt;script&gt;x&lt;/script&gt;")
}
