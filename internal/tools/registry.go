package tools

import (
	"sort"

	. "github.com/modelmux/modelmux/internal/logging"
)

// Registry holds the tools exposed over the wire. Populated once at
// startup, read-only afterwards.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Duplicate names replace, which only tests use.
func (r *Registry) Register(t Tool) {
	if _, dup := r.tools[t.Name()]; !dup {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
	L_debug("tools: registered %s", t.Name())
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns the tools in registration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns sorted tool names.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// DefaultTools wires the full tool set onto a driver.
func DefaultTools(d *Driver) *Registry {
	r := NewRegistry()
	r.Register(NewChat(d))
	r.Register(NewThinkDeep(d))
	r.Register(NewCodeReview(d))
	r.Register(NewDebug(d))
	r.Register(NewAnalyze(d))
	r.Register(NewPrecommit(d))
	r.Register(NewTestGen(d))
	r.Register(NewRefactor(d))
	r.Register(NewListModels(d.Registry))
	r.Register(NewVersion())
	return r
}
