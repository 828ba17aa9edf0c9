package jos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocorn/exocorn/go/models"
)

func TestPageAllocPerms(t *testing.T) {
	f := newFixture(t)
	e, u := f.spawn(t, "a")
	legal := []models.Perm{
		PU,
		PUW,
		PU | models.PTE_COW,
		PU | models.PTE_SHARE,
		PUW | models.PTE_SHARE,
	}
	for i, perm := range legal {
		va := uint32(0x800000 + i*models.PGSIZE)
		require.Equal(t, int32(0), sys(u, models.SYS_page_alloc, 0, va, uint32(perm)), "%v", perm)
		pte := e.Pgdir.PTE(va)
		assert.Equal(t, perm, pte.Perm(), "%v", perm)
		pg, _, ok := e.Pgdir.Lookup(va)
		require.True(t, ok)
		assert.Equal(t, make([]byte, models.PGSIZE), pg.Data())
	}

	illegal := []models.Perm{0, models.PTE_P, models.PTE_U, PU | models.PTE_A, PU | models.PTE_PCD}
	for _, perm := range illegal {
		assert.Equal(t, models.E_INVAL.Ret(), sys(u, models.SYS_page_alloc, 0, 0x900000, uint32(perm)), "%v", perm)
	}
	assert.False(t, e.Pgdir.PTE(0x900000).Present())

	assert.Equal(t, models.E_INVAL.Ret(), sys(u, models.SYS_page_alloc, 0, 0x900010, PU))
	assert.Equal(t, models.E_INVAL.Ret(), sys(u, models.SYS_page_alloc, 0, models.UTOP, PU))
	assert.Equal(t, models.E_BAD_ENV.Ret(), sys(u, models.SYS_page_alloc, 0x7777, 0x900000, PU))
}

func TestPageAllocReplaceNoLeak(t *testing.T) {
	f := newFixture(t)
	_, u := f.spawn(t, "a")
	require.Equal(t, int32(0), sys(u, models.SYS_page_alloc, 0, 0x800000, PUW))
	inUse := f.k.Mem.InUse()
	for i := 0; i < 10; i++ {
		require.Equal(t, int32(0), sys(u, models.SYS_page_alloc, 0, 0x800000, PUW))
	}
	assert.Equal(t, inUse, f.k.Mem.InUse())
}

func TestPageAllocNoMem(t *testing.T) {
	f := newFixture(t, func(c *models.Config) { c.PhysPages = 16 })
	_, u := f.spawn(t, "a")
	var r int32
	for va := uint32(0x800000); r == 0; va += models.PGSIZE {
		r = sys(u, models.SYS_page_alloc, 0, va, PU)
	}
	assert.Equal(t, models.E_NO_MEM.Ret(), r)
	assert.Equal(t, f.k.Mem.Size(), f.k.Mem.InUse())
}

func TestPageAllocChild(t *testing.T) {
	f := newFixture(t)
	_, u := f.spawn(t, "a")
	other, _ := f.spawn(t, "b")
	child := uint32(sys(u, models.SYS_exofork))

	assert.Equal(t, int32(0), sys(u, models.SYS_page_alloc, child, 0x800000, PU))
	assert.Equal(t, models.E_BAD_ENV.Ret(), sys(u, models.SYS_page_alloc, uint32(other.ID), 0x800000, PU))
	assert.False(t, other.Pgdir.PTE(0x800000).Present())
}

func TestPageMapRejectsWriteOnReadOnly(t *testing.T) {
	f := newFixture(t)
	e, u := f.spawn(t, "a")
	require.Equal(t, int32(0), sys(u, models.SYS_page_alloc, 0, 0x800000, PU))
	before := f.k.Mem.InUse()

	assert.Equal(t, models.E_INVAL.Ret(), sys(u, models.SYS_page_map, 0, 0x800000, 0, 0x801000, PUW))
	assert.False(t, e.Pgdir.PTE(0x801000).Present())
	assert.Equal(t, before, f.k.Mem.InUse())

	assert.Equal(t, int32(0), sys(u, models.SYS_page_map, 0, 0x800000, 0, 0x801000, PU))
	assert.Equal(t, e.Pgdir.PTE(0x800000).Addr(), e.Pgdir.PTE(0x801000).Addr())
}

func TestPageMapErrors(t *testing.T) {
	f := newFixture(t)
	_, u := f.spawn(t, "a")
	other, _ := f.spawn(t, "b")
	require.Equal(t, int32(0), sys(u, models.SYS_page_alloc, 0, 0x800000, PUW))

	cases := []struct {
		name                 string
		src, srcva, dst, dva uint32
		perm                 models.Perm
		want                 models.Errno
	}{
		{"unmapped source", 0, 0x900000, 0, 0x801000, PU, models.E_INVAL},
		{"unaligned source", 0, 0x800004, 0, 0x801000, PU, models.E_INVAL},
		{"unaligned dest", 0, 0x800000, 0, 0x801004, PU, models.E_INVAL},
		{"dest above UTOP", 0, 0x800000, 0, models.UTOP, PU, models.E_INVAL},
		{"bad perm", 0, 0x800000, 0, 0x801000, models.PTE_P, models.E_INVAL},
		{"foreign dest", 0, 0x800000, uint32(other.ID), 0x801000, PU, models.E_BAD_ENV},
		{"foreign source", uint32(other.ID), 0x800000, 0, 0x801000, PU, models.E_BAD_ENV},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := sys(u, models.SYS_page_map, c.src, c.srcva, c.dst, c.dva, uint32(c.perm))
			assert.Equal(t, c.want.Ret(), got)
		})
	}
}

func TestPageMapShares(t *testing.T) {
	f := newFixture(t)
	parent, u := f.spawn(t, "a")
	id := sys(u, models.SYS_exofork)
	child, err := f.k.Envs.Resolve(models.EnvID(id), nil, false)
	require.NoError(t, err)

	require.Equal(t, int32(0), sys(u, models.SYS_page_alloc, 0, 0x800000, PUW))
	require.NoError(t, parent.Pgdir.WriteAt(0x800000, []byte("shared")))
	require.Equal(t, int32(0), sys(u, models.SYS_page_map, 0, 0x800000, uint32(id), 0x400000, PU))

	p := make([]byte, 6)
	require.NoError(t, child.Pgdir.ReadAt(0x400000, p))
	assert.Equal(t, "shared", string(p))
	pg, _, _ := parent.Pgdir.Lookup(0x800000)
	assert.Equal(t, uint16(2), pg.Ref)
}

func TestPageUnmap(t *testing.T) {
	f := newFixture(t)
	e, u := f.spawn(t, "a")
	require.Equal(t, int32(0), sys(u, models.SYS_page_alloc, 0, 0x800000, PUW))
	require.Equal(t, int32(0), sys(u, models.SYS_page_map, 0, 0x800000, 0, 0x801000, PU))
	pg, _, _ := e.Pgdir.Lookup(0x800000)
	require.Equal(t, uint16(2), pg.Ref)
	inUse := f.k.Mem.InUse()

	assert.Equal(t, int32(0), sys(u, models.SYS_page_unmap, 0, 0x801000))
	assert.False(t, e.Pgdir.PTE(0x801000).Present())
	assert.Equal(t, uint16(1), pg.Ref)

	assert.Equal(t, int32(0), sys(u, models.SYS_page_unmap, 0, 0x800000))
	assert.Equal(t, inUse-1, f.k.Mem.InUse())

	// unmapping nothing is fine
	assert.Equal(t, int32(0), sys(u, models.SYS_page_unmap, 0, 0x800000))
	assert.Equal(t, models.E_INVAL.Ret(), sys(u, models.SYS_page_unmap, 0, 0x800001))
	assert.Equal(t, models.E_INVAL.Ret(), sys(u, models.SYS_page_unmap, 0, models.UTOP))
}
