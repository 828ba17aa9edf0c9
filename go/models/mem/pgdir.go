package mem

import (
	"github.com/exocorn/exocorn/go/models"
)

// Pgdir is a two-level i386 page table. Both levels live in physical frames,
// so running out of frames can fail an Insert just like a real page_insert.
type Pgdir struct {
	mem  *PhysMem
	root *Page
}

// PDE permissions are permissive, the PTE decides.
const pdePerm = models.PTE_P | models.PTE_W | models.PTE_U

func NewPgdir(m *PhysMem) (*Pgdir, error) {
	root, err := m.Alloc(true)
	if err != nil {
		return nil, err
	}
	m.Incref(root)
	return &Pgdir{mem: m, root: root}, nil
}

func entry(p *Page, i uint32) models.PTE {
	return models.PTE(models.Order.Uint32(p.data[i*4:]))
}

func setEntry(p *Page, i uint32, e models.PTE) {
	models.Order.PutUint32(p.data[i*4:], uint32(e))
}

func (d *Pgdir) PDE(va uint32) models.PTE {
	return entry(d.root, models.PDX(va))
}

// PTE returns the raw entry for va, or 0 if its page table is absent.
func (d *Pgdir) PTE(va uint32) models.PTE {
	pde := d.PDE(va)
	if !pde.Present() {
		return 0
	}
	return entry(d.mem.FromPTE(pde), models.PTX(va))
}

// walk returns the page table frame holding va's entry, allocating it if create is set.
func (d *Pgdir) walk(va uint32, create bool) (*Page, error) {
	pdx := models.PDX(va)
	pde := entry(d.root, pdx)
	if pde.Present() {
		return d.mem.FromPTE(pde), nil
	}
	if !create {
		return nil, nil
	}
	pt, err := d.mem.Alloc(true)
	if err != nil {
		return nil, err
	}
	d.mem.Incref(pt)
	setEntry(d.root, pdx, models.MakePTE(pt.PA(), pdePerm))
	return pt, nil
}

// Lookup never allocates.
func (d *Pgdir) Lookup(va uint32) (*Page, models.PTE, bool) {
	pte := d.PTE(va)
	if !pte.Present() {
		return nil, 0, false
	}
	return d.mem.FromPTE(pte), pte, true
}

// Insert maps pg at va with perm|PTE_P, replacing whatever was there.
// The new page is referenced before the old one is dropped so remapping
// the same page at the same address cannot free it.
func (d *Pgdir) Insert(pg *Page, va uint32, perm models.Perm) error {
	pt, err := d.walk(va, true)
	if err != nil {
		return err
	}
	d.mem.Incref(pg)
	ptx := models.PTX(va)
	if old := entry(pt, ptx); old.Present() {
		setEntry(pt, ptx, 0)
		d.mem.Decref(d.mem.FromPTE(old))
	}
	setEntry(pt, ptx, models.MakePTE(pg.PA(), perm|models.PTE_P))
	return nil
}

// Remove unmaps va if it is mapped.
func (d *Pgdir) Remove(va uint32) {
	pt, _ := d.walk(va, false)
	if pt == nil {
		return
	}
	ptx := models.PTX(va)
	old := entry(pt, ptx)
	if !old.Present() {
		return
	}
	setEntry(pt, ptx, 0)
	d.mem.Decref(d.mem.FromPTE(old))
}

// Walk calls fn for every present mapping below UTOP, in address order.
func (d *Pgdir) Walk(fn func(va uint32, pg *Page, pte models.PTE)) {
	for pdx := uint32(0); pdx < models.PDX(models.UTOP); pdx++ {
		pde := entry(d.root, pdx)
		if !pde.Present() {
			continue
		}
		pt := d.mem.FromPTE(pde)
		for ptx := uint32(0); ptx < models.NPTENTRIES; ptx++ {
			pte := entry(pt, ptx)
			if pte.Present() {
				fn(pdx<<models.PDXSHIFT|ptx<<models.PTXSHIFT, d.mem.FromPTE(pte), pte)
			}
		}
	}
}

// Free drops every user mapping, the page tables and the directory itself.
func (d *Pgdir) Free() {
	for pdx := uint32(0); pdx < models.PDX(models.UTOP); pdx++ {
		pde := entry(d.root, pdx)
		if !pde.Present() {
			continue
		}
		pt := d.mem.FromPTE(pde)
		for ptx := uint32(0); ptx < models.NPTENTRIES; ptx++ {
			if pte := entry(pt, ptx); pte.Present() {
				setEntry(pt, ptx, 0)
				d.mem.Decref(d.mem.FromPTE(pte))
			}
		}
		setEntry(d.root, pdx, 0)
		d.mem.Decref(pt)
	}
	d.mem.Decref(d.root)
	d.root = nil
}
