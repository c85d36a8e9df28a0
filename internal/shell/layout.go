package shell

// DefaultBreakpoint is the viewport width at which the sidebar is pinned open
const DefaultBreakpoint = 1024

// Layout is the sidebar's expanded/collapsed state
type Layout struct {
	Breakpoint int
	Open       bool
	pinned     bool
}

// NewLayout applies the initial viewport width. A non-positive width means
// the browser did not report one and the wide layout is assumed.
func NewLayout(breakpoint, width int) Layout {
	if breakpoint <= 0 {
		breakpoint = DefaultBreakpoint
	}
	l := Layout{Breakpoint: breakpoint}
	if width <= 0 {
		width = breakpoint
	}
	l.Resize(width)
	return l
}

// Resize forces the menu open on wide viewports and collapses it otherwise
func (l *Layout) Resize(width int) {
	l.pinned = width >= l.Breakpoint
	l.Open = l.pinned
}

// Crosses reports whether width falls on the other side of the breakpoint
// from the current layout
func (l Layout) Crosses(width int) bool {
	return width > 0 && (width >= l.Breakpoint) != l.pinned
}

// CanToggle is false while the viewport is wide enough to pin the menu
func (l Layout) CanToggle() bool {
	return !l.pinned
}

// Toggle shows or hides a collapsible menu and reports whether it changed
func (l *Layout) Toggle() bool {
	if l.pinned {
		return false
	}
	l.Open = !l.Open
	return true
}
