package dashboard

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type testComponent struct {
	BaseComponent
	updates int
}

func (c *testComponent) Update(msg tea.Msg, data Snapshot) (Component, tea.Cmd) {
	c.updates++
	return c, nil
}

func (c *testComponent) View(w, h int) string { return c.title }

func TestRegistryOrderAndReplace(t *testing.T) {
	r := NewRegistry()
	r.Register(&testComponent{BaseComponent: BaseComponent{id: "a", title: "A"}})
	r.Register(&testComponent{BaseComponent: BaseComponent{id: "b", title: "B"}})
	r.Register(&testComponent{BaseComponent: BaseComponent{id: "a", title: "A2"}})

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 components, got %d", len(all))
	}
	if all[0].Title() != "A2" || all[1].ID() != "b" {
		t.Errorf("unexpected order/replacement: %s, %s", all[0].Title(), all[1].ID())
	}
	if r.Get("missing") != nil {
		t.Error("Get should return nil for unknown IDs")
	}

	r.UpdateAll(nil, Snapshot{})
	for _, c := range r.All() {
		if c.(*testComponent).updates != 1 {
			t.Errorf("%s updated %d times", c.ID(), c.(*testComponent).updates)
		}
	}
}

func TestBaseComponentCache(t *testing.T) {
	c := &BaseComponent{}
	if _, ok := c.cachedFor("x", 10, 5); ok {
		t.Fatal("empty cache should miss")
	}
	c.store("rendered")
	if out, ok := c.cachedFor("x", 10, 5); !ok || out != "rendered" {
		t.Errorf("same content and size should hit, got %q %v", out, ok)
	}
	if _, ok := c.cachedFor("x", 11, 5); ok {
		t.Error("resize should miss")
	}
	c.store("rendered2")
	if _, ok := c.cachedFor("y", 11, 5); ok {
		t.Error("content change should miss")
	}
}
