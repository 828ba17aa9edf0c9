package models

import "strings"

// Perm is a set of PTE permission bits.
type Perm uint32

// Legal reports whether a caller-supplied permission may be installed:
// P and U must be set and nothing outside PTE_SYSCALL may be.
func (p Perm) Legal() bool {
	return p&^PTE_SYSCALL == 0 && p&(PTE_P|PTE_U) == PTE_P|PTE_U
}

func (p Perm) Has(bits Perm) bool { return p&bits == bits }

func (p Perm) String() string {
	flags := []struct {
		bit  Perm
		name string
	}{
		{PTE_SHARE, "S"},
		{PTE_COW, "C"},
		{PTE_U, "U"},
		{PTE_W, "W"},
		{PTE_P, "P"},
	}
	var b strings.Builder
	for _, f := range flags {
		if p&f.bit != 0 {
			b.WriteString(f.name)
		} else {
			b.WriteString("-")
		}
	}
	return b.String()
}

// PTE is a raw page directory or page table entry.
type PTE uint32

func MakePTE(pa uint32, perm Perm) PTE { return PTE(pa&^0xFFF | uint32(perm)&0xFFF) }

func (e PTE) Addr() uint32  { return uint32(e) &^ 0xFFF }
func (e PTE) Perm() Perm    { return Perm(e & 0xFFF) }
func (e PTE) Present() bool { return e&PTE_P != 0 }
