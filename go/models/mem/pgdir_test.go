package mem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocorn/exocorn/go/models"
)

const userRW = models.PTE_P | models.PTE_U | models.PTE_W

func newPgdir(t *testing.T, npages int) (*PhysMem, *Pgdir) {
	m := NewPhysMem(npages)
	d, err := NewPgdir(m)
	require.NoError(t, err)
	return m, d
}

func TestPgdirInsertLookup(t *testing.T) {
	m, d := newPgdir(t, 16)
	pg, err := m.Alloc(true)
	require.NoError(t, err)

	va := uint32(0x00801000)
	require.NoError(t, d.Insert(pg, va, models.PTE_U|models.PTE_W))
	got, pte, ok := d.Lookup(va)
	require.True(t, ok)
	assert.Equal(t, pg, got)
	assert.Equal(t, models.Perm(userRW), pte.Perm())
	assert.Equal(t, uint16(1), pg.Ref)
	assert.True(t, d.PDE(va).Present())

	_, _, ok = d.Lookup(va + models.PGSIZE)
	assert.False(t, ok)
	_, _, ok = d.Lookup(0x40000000)
	assert.False(t, ok, "lookup must not create page tables")
	assert.False(t, d.PDE(0x40000000).Present())
}

func TestPgdirReinsertSamePage(t *testing.T) {
	m, d := newPgdir(t, 16)
	pg, _ := m.Alloc(true)
	va := uint32(0x00400000)
	require.NoError(t, d.Insert(pg, va, userRW))
	require.NoError(t, d.Insert(pg, va, models.PTE_P|models.PTE_U))
	require.Equal(t, uint16(1), pg.Ref)
	require.False(t, m.IsFree(pg.Num))
	_, pte, _ := d.Lookup(va)
	require.Equal(t, models.Perm(models.PTE_P|models.PTE_U), pte.Perm())
}

func TestPgdirReplace(t *testing.T) {
	m, d := newPgdir(t, 16)
	a, _ := m.Alloc(true)
	b, _ := m.Alloc(true)
	va := uint32(0x00400000)
	require.NoError(t, d.Insert(a, va, userRW))
	require.NoError(t, d.Insert(b, va, userRW))
	require.True(t, m.IsFree(a.Num))
	require.Equal(t, uint16(1), b.Ref)
}

func TestPgdirRemove(t *testing.T) {
	m, d := newPgdir(t, 16)
	pg, _ := m.Alloc(true)
	va := uint32(0x00400000)
	d.Remove(va)
	require.NoError(t, d.Insert(pg, va, userRW))
	d.Remove(va)
	require.True(t, m.IsFree(pg.Num))
	d.Remove(va)
}

func TestPgdirNoMemForTable(t *testing.T) {
	// frame 0 reserved, one for the directory, one data page, none for the table
	m, d := newPgdir(t, 3)
	pg, err := m.Alloc(true)
	require.NoError(t, err)
	require.Equal(t, models.E_NO_MEM, d.Insert(pg, 0x00400000, userRW))
	require.Equal(t, uint16(0), pg.Ref)
}

func TestPgdirWalkFree(t *testing.T) {
	m, d := newPgdir(t, 32)
	before := m.InUse()
	vas := []uint32{0x00400000, 0x00401000, 0x00800000, models.USTACKTOP - models.PGSIZE}
	for _, va := range vas {
		pg, err := m.Alloc(true)
		require.NoError(t, err)
		require.NoError(t, d.Insert(pg, va, userRW))
	}
	var walked []uint32
	d.Walk(func(va uint32, pg *Page, pte models.PTE) {
		walked = append(walked, va)
	})
	require.Equal(t, vas, walked)

	d.Free()
	require.Equal(t, before-1, m.InUse())
}

func TestPgdirSharedFree(t *testing.T) {
	m, a := newPgdir(t, 32)
	b, err := NewPgdir(m)
	require.NoError(t, err)
	pg, _ := m.Alloc(true)
	require.NoError(t, a.Insert(pg, 0x00400000, userRW))
	require.NoError(t, b.Insert(pg, 0x00800000, models.PTE_P|models.PTE_U))
	require.Equal(t, uint16(2), pg.Ref)
	a.Free()
	require.Equal(t, uint16(1), pg.Ref)
	b.Free()
	require.True(t, m.IsFree(pg.Num))
}
