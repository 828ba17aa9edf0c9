package jos

import (
	"fmt"
	"sort"

	"github.com/exocorn/exocorn/go/models"
)

// text addresses are handed out in slots of this size starting at UTEXT
const textAlign = 0x10

type symbol struct {
	name    string
	fn      models.Entry
	oneshot bool
}

// Text is the shared text segment: simulated instruction addresses that
// resolve to Go entry points.
type Text struct {
	next  uint32
	byVA  map[uint32]*symbol
	names map[string]uint32
}

func NewText() *Text {
	return &Text{
		next:  models.UTEXT,
		byVA:  make(map[uint32]*symbol),
		names: make(map[string]uint32),
	}
}

func (t *Text) alloc(s *symbol) uint32 {
	va := t.next
	t.next += textAlign
	t.byVA[va] = s
	return va
}

// Symbol registers fn under name, returning the existing address if the name is taken.
func (t *Text) Symbol(name string, fn models.Entry) uint32 {
	if va, ok := t.names[name]; ok {
		return va
	}
	va := t.alloc(&symbol{name: name, fn: fn})
	t.names[name] = va
	return va
}

// Entry registers fn under a fresh address. The name is only recorded for
// lookup by name if it was not taken.
func (t *Text) Entry(name string, fn models.Entry) uint32 {
	va := t.alloc(&symbol{name: name, fn: fn})
	if _, ok := t.names[name]; !ok {
		t.names[name] = va
	}
	return va
}

// Anon registers an entry that can be resolved once.
func (t *Text) Anon(fn models.Entry) uint32 {
	va := t.alloc(&symbol{fn: fn, oneshot: true})
	t.byVA[va].name = fmt.Sprintf("anon_%x", va)
	return va
}

// Lookup resolves an address. One-shot entries are consumed.
func (t *Text) Lookup(va uint32) (models.Entry, bool) {
	s, ok := t.byVA[va]
	if !ok {
		return nil, false
	}
	if s.oneshot {
		delete(t.byVA, va)
	}
	return s.fn, true
}

// Drop forgets a one-shot entry that will never run.
func (t *Text) Drop(va uint32) {
	if s, ok := t.byVA[va]; ok && s.oneshot {
		delete(t.byVA, va)
	}
}

func (t *Text) Name(va uint32) string {
	if s, ok := t.byVA[va]; ok {
		return s.name
	}
	return fmt.Sprintf("%#x", va)
}

// Each visits every resolvable address in address order.
func (t *Text) Each(fn func(va uint32, name string)) {
	vas := make([]uint32, 0, len(t.byVA))
	for va := range t.byVA {
		vas = append(vas, va)
	}
	sort.Slice(vas, func(i, j int) bool { return vas[i] < vas[j] })
	for _, va := range vas {
		fn(va, t.byVA[va].name)
	}
}
