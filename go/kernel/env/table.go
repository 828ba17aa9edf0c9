package env

import (
	"github.com/exocorn/exocorn/go/models"
	"github.com/exocorn/exocorn/go/models/mem"
)

// Table is the fixed array of environment slots (envs[]).
type Table struct {
	envs []Env
	// free slots, top of stack is the next to allocate
	free []int
	mem  *mem.PhysMem

	// OnChange is called with the number of allocated slots after every alloc/free.
	OnChange func(live int)
}

func NewTable(n int, m *mem.PhysMem) *Table {
	if n > models.NENV {
		n = models.NENV
	}
	t := &Table{envs: make([]Env, n), mem: m}
	for i := n - 1; i >= 0; i-- {
		t.free = append(t.free, i)
	}
	return t
}

func (t *Table) Cap() int { return len(t.envs) }

// Get returns the slot, whatever its status.
func (t *Table) Get(slot int) *Env {
	if slot < 0 || slot >= len(t.envs) {
		return nil
	}
	return &t.envs[slot]
}

// Alloc takes a free slot and gives it a fresh address space and a new id.
// The environment starts runnable with a user-mode trap frame.
func (t *Table) Alloc(parent models.EnvID) (*Env, error) {
	if len(t.free) == 0 {
		return nil, models.E_NO_FREE_ENV
	}
	slot := t.free[len(t.free)-1]
	e := &t.envs[slot]
	pgdir, err := mem.NewPgdir(t.mem)
	if err != nil {
		return nil, err
	}
	t.free = t.free[:len(t.free)-1]

	gen := (e.ID + (1 << models.ENVGENSHIFT)) &^ (models.NENV - 1)
	if gen <= 0 {
		gen = 1 << models.ENVGENSHIFT
	}
	*e = Env{
		ID:       gen | models.EnvID(slot),
		ParentID: parent,
		Type:     models.ENV_TYPE_USER,
		Status:   models.ENV_RUNNABLE,
		Pgdir:    pgdir,
	}
	e.Tf.DS = models.GD_UD | 3
	e.Tf.ES = models.GD_UD | 3
	e.Tf.SS = models.GD_UD | 3
	e.Tf.ESP = models.USTACKTOP
	e.Tf.CS = models.GD_UT | 3
	e.Tf.EFlags = models.FL_IF
	t.changed()
	return e, nil
}

// Free releases the address space and returns the slot. The id is kept so the
// next occupant gets a new generation.
func (t *Table) Free(e *Env) {
	if e.Status == models.ENV_FREE {
		return
	}
	if e.Pgdir != nil {
		e.Pgdir.Free()
		e.Pgdir = nil
	}
	e.Status = models.ENV_FREE
	e.IPC = IPC{}
	e.PgfaultUpcall = 0
	t.free = append(t.free, models.ENVX(e.ID))
	t.changed()
}

// Resolve converts an id to an environment. Id 0 names cur. Free slots and
// stale generations are E_BAD_ENV. With checkperm the target must be cur or
// one of cur's immediate children.
func (t *Table) Resolve(id models.EnvID, cur *Env, checkperm bool) (*Env, error) {
	if id == 0 {
		if cur == nil {
			return nil, models.E_BAD_ENV
		}
		return cur, nil
	}
	e := t.Get(models.ENVX(id))
	if e == nil || e.Status == models.ENV_FREE || e.ID != id {
		return nil, models.E_BAD_ENV
	}
	if checkperm && (cur == nil || (e != cur && e.ParentID != cur.ID)) {
		return nil, models.E_BAD_ENV
	}
	return e, nil
}

// Each visits every allocated slot in slot order.
func (t *Table) Each(fn func(e *Env)) {
	for i := range t.envs {
		if t.envs[i].Status != models.ENV_FREE {
			fn(&t.envs[i])
		}
	}
}

// Live counts allocated slots, dying ones included.
func (t *Table) Live() int {
	return len(t.envs) - len(t.free)
}

func (t *Table) changed() {
	if t.OnChange != nil {
		t.OnChange(t.Live())
	}
}
