package project

// Navigator tracks the list view state: the active filter, the highlighted
// project among the visible ones, and whether the detail view is open.
//
// Index -1 is the blank state, in which the collage is shown. Arrow
// navigation wraps through the blank state: moving down from the last project
// or up from the first returns to blank. While the detail view is open,
// navigation and filter changes are ignored; only [Navigator.Exit] leaves it.
type Navigator struct {
	doc    *Document
	filter Category
	index  int
	detail bool
}

// NewNavigator starts in the blank state with no filter.
func NewNavigator(doc *Document) *Navigator {
	return &Navigator{doc: doc, index: -1}
}

// Filter returns the active category.
func (n *Navigator) Filter() Category { return n.filter }

// Index returns the highlighted position among visible projects, or -1.
func (n *Navigator) Index() int { return n.index }

// Detail reports whether the detail view is open.
func (n *Navigator) Detail() bool { return n.detail }

// Visible returns the projects shown under the active filter.
func (n *Navigator) Visible() []Project { return n.doc.Filter(n.filter) }

// Current returns the highlighted project.
func (n *Navigator) Current() (Project, bool) {
	visible := n.Visible()
	if n.index < 0 || n.index >= len(visible) {
		return Project{}, false
	}
	return visible[n.index], true
}

// ShowCollage reports whether the collage should be visible: nothing is
// highlighted and the detail view is closed.
func (n *Navigator) ShowCollage() bool {
	return n.index == -1 && !n.detail
}

// SetFilter toggles c: selecting the active category clears the filter.
// The highlight resets to blank. It reports whether the filter changed,
// in which case the caller should regenerate the collage.
func (n *Navigator) SetFilter(c Category) bool {
	if n.detail {
		return false
	}
	if c == n.filter {
		c = CategoryAll
	}
	changed := c != n.filter
	n.filter = c
	n.Blank()
	return changed
}

// ClearFilter shows all projects again.
func (n *Navigator) ClearFilter() bool {
	if n.detail || n.filter == CategoryAll {
		return false
	}
	return n.SetFilter(n.filter)
}

// Down moves the highlight to the next visible project. From blank it
// selects the first; past the last it returns to blank.
func (n *Navigator) Down() {
	if n.detail {
		return
	}
	visible := len(n.Visible())
	switch {
	case n.index == -1:
		if visible > 0 {
			n.index = 0
		}
	case n.index >= visible-1:
		n.Blank()
	default:
		n.index++
	}
}

// Up moves the highlight to the previous visible project. From blank it
// selects the last; before the first it returns to blank.
func (n *Navigator) Up() {
	if n.detail {
		return
	}
	visible := len(n.Visible())
	switch {
	case n.index == -1:
		if visible > 0 {
			n.index = visible - 1
		}
	case n.index == 0:
		n.Blank()
	default:
		n.index--
	}
}

// Show highlights the visible project at i. Out of range returns to blank.
func (n *Navigator) Show(i int) {
	if i < 0 || i >= len(n.Visible()) {
		n.Blank()
		return
	}
	n.index = i
}

// Blank clears the highlight.
func (n *Navigator) Blank() { n.index = -1 }

// Enter opens the detail view for the highlighted project.
func (n *Navigator) Enter() bool {
	if _, ok := n.Current(); !ok {
		return false
	}
	n.detail = true
	return true
}

// Select highlights the project with the given id and opens its detail
// view, as a click on a list entry or a collage image does. Projects hidden
// by the filter cannot be selected.
func (n *Navigator) Select(id string) bool {
	i := n.doc.IndexOf(n.filter, id)
	if i == -1 {
		return false
	}
	n.Show(i)
	return n.Enter()
}

// Exit closes the detail view and returns to blank.
func (n *Navigator) Exit() {
	n.detail = false
	n.Blank()
}

// Escape closes the detail view if it is open and reports whether it was.
func (n *Navigator) Escape() bool {
	if !n.detail {
		return false
	}
	n.Exit()
	return true
}
