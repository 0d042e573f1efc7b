package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/redg/internal/action"
	"github.com/roach88/redg/internal/reducer"
	"github.com/roach88/redg/internal/toolbox"
)

// Program is a set of slices hosted together. Its state is an object with
// one entry per slice.
type Program struct {
	slices *toolbox.OrderedMap[*SliceDef]
}

// NewProgram groups defs in the given order. Slice names must be unique.
func NewProgram(defs ...*SliceDef) (*Program, error) {
	p := &Program{slices: toolbox.NewOrderedMap[*SliceDef]()}
	for _, d := range defs {
		if p.slices.Has(d.Name) {
			return nil, fmt.Errorf("duplicate slice %q", d.Name)
		}
		p.slices.Set(d.Name, d)
	}
	return p, nil
}

// Slices returns the slice definitions in order.
func (p *Program) Slices() []*SliceDef {
	out := make([]*SliceDef, 0, p.slices.Len())
	for _, d := range p.slices.All() {
		out = append(out, d)
	}
	return out
}

// Slice returns the slice called name.
func (p *Program) Slice(name string) (*SliceDef, bool) {
	return p.slices.Get(name)
}

// Reducer combines every slice reducer under its slice name. opts are
// passed to each slice reducer.
func (p *Program) Reducer(opts ...reducer.SliceOption) reducer.Func[map[string]any] {
	return reducer.Combine(toolbox.MapEntries(p.slices, func(name string, d *SliceDef) (string, reducer.Func[any]) {
		return name, d.Reducer(opts...)
	}))
}

// Creators returns the creator tree: slice name -> action key -> creator.
func (p *Program) Creators() *toolbox.OrderedMap[*action.Creators] {
	return toolbox.MapEntries(p.slices, func(name string, d *SliceDef) (string, *action.Creators) {
		return name, d.Creators()
	})
}

// Resolve splits a "slice.key" reference into its slice and action.
func (p *Program) Resolve(ref string) (*SliceDef, ActionDef, error) {
	name, key, ok := strings.Cut(ref, ".")
	if !ok || name == "" || key == "" {
		return nil, ActionDef{}, fmt.Errorf("invalid action reference %q (want slice.key)", ref)
	}
	d, ok := p.slices.Get(name)
	if !ok {
		return nil, ActionDef{}, fmt.Errorf("unknown slice %q", name)
	}
	a, ok := d.Action(key)
	if !ok {
		return nil, ActionDef{}, fmt.Errorf("slice %s: unknown action %q", name, key)
	}
	return d, a, nil
}

// NewAction builds the action referenced by "slice.key".
func (p *Program) NewAction(ref string, payload any) (action.Action, error) {
	d, a, err := p.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return d.NewAction(a.Key, payload)
}
