package mem

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exocorn/exocorn/go/models"
)

func TestPhysMemReservesZero(t *testing.T) {
	m := NewPhysMem(4)
	if m.IsFree(0) {
		t.Fatal("frame 0 should never be free")
	}
	for i := 1; i < 4; i++ {
		p, err := m.Alloc(true)
		if err != nil {
			t.Fatal(err)
		}
		if p.Num != uint32(i) {
			t.Fatalf("expected frame %d, got %d", i, p.Num)
		}
	}
	if _, err := m.Alloc(true); err != models.E_NO_MEM {
		t.Fatalf("expected E_NO_MEM, got %v", err)
	}
}

func TestPhysMemRefcount(t *testing.T) {
	m := NewPhysMem(8)
	var seen []int
	m.OnChange = func(n int) { seen = append(seen, n) }

	p, err := m.Alloc(true)
	require.NoError(t, err)
	m.Incref(p)
	m.Incref(p)
	m.Decref(p)
	require.False(t, m.IsFree(p.Num))
	m.Decref(p)
	require.True(t, m.IsFree(p.Num))
	require.Equal(t, []int{2, 1}, seen)

	require.Panics(t, func() { m.Decref(p) })
}

func TestPhysMemZero(t *testing.T) {
	m := NewPhysMem(2)
	p, _ := m.Alloc(true)
	p.Data()[0] = 0xff
	m.Free(p)
	p, _ = m.Alloc(false)
	require.Equal(t, byte(0xff), p.Data()[0], "non-zeroing alloc keeps contents")
	m.Free(p)
	p, _ = m.Alloc(true)
	require.Equal(t, byte(0), p.Data()[0])
}
