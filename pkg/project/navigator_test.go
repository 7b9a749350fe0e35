package project

import "testing"

func TestNavigatorArrowKeys(t *testing.T) {
	n := NewNavigator(loadTestdata(t))

	steps := []struct {
		name string
		move func()
		want int
	}{
		{"down from blank selects first", n.Down, 0},
		{"down", n.Down, 1},
		{"down", n.Down, 2},
		{"down", n.Down, 3},
		{"down past last returns to blank", n.Down, -1},
		{"up from blank selects last", n.Up, 3},
		{"up", n.Up, 2},
		{"up", n.Up, 1},
		{"up", n.Up, 0},
		{"up before first returns to blank", n.Up, -1},
	}
	for _, s := range steps {
		s.move()
		if n.Index() != s.want {
			t.Fatalf("%s: index = %d, want %d", s.name, n.Index(), s.want)
		}
		if got := n.ShowCollage(); got != (s.want == -1) {
			t.Errorf("%s: ShowCollage = %v", s.name, got)
		}
	}
}

func TestNavigatorFilterToggle(t *testing.T) {
	n := NewNavigator(loadTestdata(t))
	n.Down()

	if !n.SetFilter(CategoryPhoto) {
		t.Fatal("SetFilter(photo) should change the filter")
	}
	if n.Filter() != CategoryPhoto || n.Index() != -1 {
		t.Errorf("filter = %q index = %d, want photo and blank", n.Filter(), n.Index())
	}
	if len(n.Visible()) != 2 {
		t.Errorf("visible = %d, want 2", len(n.Visible()))
	}

	n.Up()
	if p, _ := n.Current(); p.ID != "markets" {
		t.Errorf("up from blank under photo = %q, want markets", p.ID)
	}

	if !n.SetFilter(CategoryPhoto) || n.Filter() != CategoryAll {
		t.Errorf("selecting the active filter should clear it, got %q", n.Filter())
	}

	n.SetFilter(CategoryGraphic)
	if !n.ClearFilter() || n.Filter() != CategoryAll {
		t.Error("ClearFilter should show all projects")
	}
	if n.ClearFilter() {
		t.Error("ClearFilter without a filter should report no change")
	}
}

func TestNavigatorDetailMode(t *testing.T) {
	n := NewNavigator(loadTestdata(t))

	if n.Enter() {
		t.Fatal("Enter from blank should do nothing")
	}
	if n.Escape() {
		t.Fatal("Escape outside detail mode should do nothing")
	}

	n.Down()
	n.Down()
	if !n.Enter() || !n.Detail() {
		t.Fatal("Enter should open detail mode")
	}
	if n.ShowCollage() {
		t.Error("collage should be hidden in detail mode")
	}

	n.Down()
	n.Up()
	if n.Index() != 1 {
		t.Errorf("arrows changed index to %d in detail mode", n.Index())
	}
	if n.SetFilter(CategoryVideo) || n.Filter() != CategoryAll {
		t.Error("filters should be ignored in detail mode")
	}

	if !n.Escape() || n.Detail() || n.Index() != -1 {
		t.Errorf("Escape: detail = %v index = %d, want closed and blank", n.Detail(), n.Index())
	}
	if !n.ShowCollage() {
		t.Error("collage should show after leaving detail mode")
	}
}

func TestNavigatorSelect(t *testing.T) {
	n := NewNavigator(loadTestdata(t))

	if !n.Select("posters") {
		t.Fatal("Select(posters) failed")
	}
	if p, _ := n.Current(); p.ID != "posters" || !n.Detail() {
		t.Errorf("current = %q detail = %v", p.ID, n.Detail())
	}
	n.Exit()

	n.SetFilter(CategoryVideo)
	if n.Select("posters") {
		t.Error("projects hidden by the filter cannot be selected")
	}
	if n.Select("missing") {
		t.Error("unknown ids cannot be selected")
	}
}

func TestNavigatorShowOutOfRange(t *testing.T) {
	n := NewNavigator(loadTestdata(t))
	n.Show(2)
	if n.Index() != 2 {
		t.Fatalf("Show(2) index = %d", n.Index())
	}
	n.Show(99)
	if n.Index() != -1 {
		t.Errorf("Show(99) index = %d, want blank", n.Index())
	}
}

func TestNavigatorEmptyFilter(t *testing.T) {
	doc := &Document{Projects: []Project{{ID: "a", Title: "A", Category: CategoryPhoto}}}
	n := NewNavigator(doc)
	n.SetFilter(CategoryVideo)
	n.Down()
	n.Up()
	if n.Index() != -1 {
		t.Errorf("navigation over an empty list should stay blank, got %d", n.Index())
	}
}
