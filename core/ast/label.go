package ast

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/bnb-chain/ildecompiler/core/metadata"
)

// Label is a branch target. ID is a handle unique within one decompilation.
type Label struct {
	ID     int
	Offset int
}

func (l *Label) String() string { return fmt.Sprintf("IL_%04x", l.Offset) }

// Temp is a synthesized local standing for one operand stack slot.
type Temp struct {
	ID int
	Ty *metadata.Type
	// IsReference marks a slot that must stay an indirect reference
	// (a managed pointer) when merged with other slots.
	IsReference bool
	// Refs and Assigns are maintained by the cleanup passes.
	Refs    int
	Assigns int
	// Hint is the name of the local the temp's value ends up in, if any.
	Hint string
}

func (t *Temp) DefinitionName() string {
	if t.Hint != "" {
		return fmt.Sprintf("%s_%d", t.Hint, t.ID)
	}
	return fmt.Sprintf("t%d", t.ID)
}
func (t *Temp) DefinitionType() *metadata.Type { return t.Ty }

var _ metadata.Definition = (*Temp)(nil)

// PredMap records, per label, the gotos that target it.
type PredMap struct {
	gotos map[int][]*Goto
}

func NewPredMap() *PredMap {
	return &PredMap{gotos: make(map[int][]*Goto)}
}

// Add registers g as a predecessor of its target.
func (p *PredMap) Add(g *Goto) {
	p.gotos[g.Target.ID] = append(p.gotos[g.Target.ID], g)
}

// Remove unregisters g. It reports whether g was registered.
func (p *PredMap) Remove(g *Goto) bool {
	list := p.gotos[g.Target.ID]
	i := slices.Index(list, g)
	if i < 0 {
		return false
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(p.gotos, g.Target.ID)
	} else {
		p.gotos[g.Target.ID] = list
	}
	return true
}

// Retarget moves g to l.
func (p *PredMap) Retarget(g *Goto, l *Label) {
	p.Remove(g)
	g.Target = l
	p.Add(g)
}

// Count is the number of gotos targeting l.
func (p *PredMap) Count(l *Label) int { return len(p.gotos[l.ID]) }

// Gotos returns the gotos targeting l. The slice must not be modified.
func (p *PredMap) Gotos(l *Label) []*Goto { return p.gotos[l.ID] }

// Total is the number of registered gotos.
func (p *PredMap) Total() int {
	n := 0
	for _, list := range p.gotos {
		n += len(list)
	}
	return n
}

// Labels returns the IDs of labels with predecessors, ascending.
func (p *PredMap) Labels() []int {
	ids := maps.Keys(p.gotos)
	slices.Sort(ids)
	return ids
}
