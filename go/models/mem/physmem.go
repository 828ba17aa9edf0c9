package mem

import (
	"fmt"

	"github.com/google/btree"

	"github.com/exocorn/exocorn/go/models"
)

// Page is one physical frame.
type Page struct {
	Num  uint32
	Ref  uint16
	data *[models.PGSIZE]byte
}

func (p *Page) PA() uint32 { return p.Num << models.PGSHIFT }

func (p *Page) Data() []byte { return p.data[:] }

func (p *Page) String() string {
	return fmt.Sprintf("page %#x ref=%d", p.PA(), p.Ref)
}

// PhysMem is a fixed pool of frames. Frame 0 is reserved so a zero PTE never names a real page.
type PhysMem struct {
	pages []Page
	free  *btree.BTreeG[uint32]

	// OnChange is called with the number of frames in use after every alloc/free.
	OnChange func(inUse int)
}

func NewPhysMem(npages int) *PhysMem {
	m := &PhysMem{
		pages: make([]Page, npages),
		free:  btree.NewG[uint32](8, func(a, b uint32) bool { return a < b }),
	}
	for i := range m.pages {
		m.pages[i].Num = uint32(i)
		if i == 0 {
			m.pages[i].Ref = 1
			continue
		}
		m.free.ReplaceOrInsert(uint32(i))
	}
	return m
}

// Alloc takes the lowest free frame. The caller owns no reference until it maps or Increfs it.
func (m *PhysMem) Alloc(zero bool) (*Page, error) {
	num, ok := m.free.DeleteMin()
	if !ok {
		return nil, models.E_NO_MEM
	}
	p := &m.pages[num]
	if p.data == nil {
		p.data = new([models.PGSIZE]byte)
	} else if zero {
		*p.data = [models.PGSIZE]byte{}
	}
	m.changed()
	return p, nil
}

func (m *PhysMem) Incref(p *Page) {
	p.Ref++
}

// Decref drops one reference, freeing the frame when none are left.
func (m *PhysMem) Decref(p *Page) {
	if p.Ref == 0 {
		panic(fmt.Sprintf("decref of unreferenced %v", p))
	}
	p.Ref--
	if p.Ref == 0 {
		m.Free(p)
	}
}

// Free returns an unreferenced frame to the pool.
func (m *PhysMem) Free(p *Page) {
	if p.Ref != 0 {
		panic(fmt.Sprintf("free of referenced %v", p))
	}
	if _, dup := m.free.ReplaceOrInsert(p.Num); dup {
		panic(fmt.Sprintf("double free of %v", p))
	}
	m.changed()
}

func (m *PhysMem) changed() {
	if m.OnChange != nil {
		m.OnChange(m.InUse())
	}
}

func (m *PhysMem) Page(num uint32) *Page {
	if int(num) >= len(m.pages) {
		return nil
	}
	return &m.pages[num]
}

// FromPTE returns the frame an entry points at.
func (m *PhysMem) FromPTE(e models.PTE) *Page {
	return m.Page(e.Addr() >> models.PGSHIFT)
}

func (m *PhysMem) Size() int  { return len(m.pages) }
func (m *PhysMem) InUse() int { return len(m.pages) - m.free.Len() }

func (m *PhysMem) IsFree(num uint32) bool { return m.free.Has(num) }
