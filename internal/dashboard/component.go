package dashboard

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	tea "github.com/charmbracelet/bubbletea"
)

// Component is one boxed panel of the dashboard.
type Component interface {
	Update(msg tea.Msg, data Snapshot) (Component, tea.Cmd)
	View(width, height int) string

	ID() string
	Title() string
	MinWidth() int
	MinHeight() int
}

// BaseComponent carries panel metadata and a render cache keyed by an
// xxhash of the plain content and the allotted size.
type BaseComponent struct {
	id    string
	title string
	minW  int
	minH  int

	lastHash uint64
	cached   string
}

func (c *BaseComponent) ID() string     { return c.id }
func (c *BaseComponent) Title() string  { return c.title }
func (c *BaseComponent) MinWidth() int  { return c.minW }
func (c *BaseComponent) MinHeight() int { return c.minH }

// cachedFor returns the last render when content and size are unchanged.
// On a miss it records the new key; the caller must then call store.
func (c *BaseComponent) cachedFor(content string, w, h int) (string, bool) {
	d := xxhash.New()
	_, _ = d.WriteString(strconv.Itoa(w))
	_, _ = d.WriteString("x")
	_, _ = d.WriteString(strconv.Itoa(h))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(content)
	key := d.Sum64()
	if key == c.lastHash && c.cached != "" {
		return c.cached, true
	}
	c.lastHash = key
	return "", false
}

func (c *BaseComponent) store(rendered string) string {
	c.cached = rendered
	return rendered
}

// Registry keeps components in registration order.
type Registry struct {
	order      []string
	components map[string]Component
}

func NewRegistry() *Registry {
	return &Registry{components: make(map[string]Component)}
}

// Register adds comp, replacing any component with the same ID in place.
func (r *Registry) Register(comp Component) {
	id := comp.ID()
	if _, ok := r.components[id]; !ok {
		r.order = append(r.order, id)
	}
	r.components[id] = comp
}

func (r *Registry) Get(id string) Component { return r.components[id] }

func (r *Registry) All() []Component {
	out := make([]Component, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.components[id])
	}
	return out
}

// UpdateAll forwards msg and data to every component.
func (r *Registry) UpdateAll(msg tea.Msg, data Snapshot) []tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range r.order {
		updated, cmd := r.components[id].Update(msg, data)
		r.components[id] = updated
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}
