// Package progs holds the user programs the machine can boot.
package progs

import (
	"sort"

	"github.com/exocorn/exocorn/go/lib"
	"github.com/exocorn/exocorn/go/models"
)

type Prog struct {
	Name string
	Desc string
	Type models.EnvType
	Main lib.Main
}

var registry = make(map[string]*Prog)

func register(p *Prog) {
	registry[p.Name] = p
}

func Lookup(name string) (*Prog, bool) {
	p, ok := registry[name]
	return p, ok
}

// All returns every program sorted by name.
func All() []*Prog {
	out := make([]*Prog, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
