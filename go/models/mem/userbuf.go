package mem

import (
	"github.com/exocorn/exocorn/go/models"
)

// UserRange is a span of user memory already checked against a page directory.
type UserRange struct {
	d    *Pgdir
	Addr uint32
	Len  uint32
}

// CheckRange verifies [va, va+n) lies below UTOP and every page in it is mapped
// with at least perm. It returns the first offending address as a Fault.
func CheckRange(d *Pgdir, va, n uint32, perm models.Perm) (UserRange, error) {
	if err := d.check(va, n, perm|models.PTE_U); err != nil {
		return UserRange{}, err
	}
	return UserRange{d: d, Addr: va, Len: n}, nil
}

// Bytes copies the range out of user memory.
func (r UserRange) Bytes() []byte {
	p := make([]byte, r.Len)
	r.d.ReadAt(r.Addr, p)
	return p
}

// Write copies p into the start of the range. It writes at most Len bytes.
func (r UserRange) Write(p []byte) int {
	if uint32(len(p)) > r.Len {
		p = p[:r.Len]
	}
	r.d.WriteAt(r.Addr, p)
	return len(p)
}

func (d *Pgdir) check(va, n uint32, perm models.Perm) error {
	if n == 0 {
		return nil
	}
	end := va + n
	if end < va || end > models.UTOP {
		return &Fault{Addr: va, Size: int(n), Code: faultCode(0, perm)}
	}
	for page := models.RoundDown(va, models.PGSIZE); page < end; page += models.PGSIZE {
		pte := d.PTE(page)
		if !pte.Present() || !pte.Perm().Has(perm|models.PTE_P) {
			addr := page
			if addr < va {
				addr = va
			}
			return &Fault{Addr: addr, Size: int(n), Code: faultCode(pte, perm)}
		}
	}
	return nil
}

func faultCode(pte models.PTE, perm models.Perm) uint32 {
	code := uint32(models.FEC_U)
	if pte.Present() {
		code |= models.FEC_PR
	}
	if perm&models.PTE_W != 0 {
		code |= models.FEC_WR
	}
	return code
}

// xfer moves bytes between p and the frames mapped at va without checking
// permissions. Unmapped pages stop the copy with a Fault.
func (d *Pgdir) xfer(va uint32, p []byte, write bool) error {
	for len(p) > 0 {
		pg, _, ok := d.Lookup(va)
		if !ok {
			code := uint32(0)
			if write {
				code = models.FEC_WR
			}
			return &Fault{Addr: va, Size: len(p), Code: code}
		}
		off := models.PGOFF(va)
		chunk := pg.Data()[off:]
		var n int
		if write {
			n = copy(chunk, p)
		} else {
			n = copy(p, chunk)
		}
		p = p[n:]
		va += uint32(n)
	}
	return nil
}

// ReadAt reads len(p) bytes at va, bypassing permissions.
func (d *Pgdir) ReadAt(va uint32, p []byte) error { return d.xfer(va, p, false) }

// WriteAt writes p at va, bypassing permissions.
func (d *Pgdir) WriteAt(va uint32, p []byte) error { return d.xfer(va, p, true) }

// UserRead reads through the user-visible permissions, as the MMU would.
func (d *Pgdir) UserRead(va uint32, p []byte) error {
	r, err := CheckRange(d, va, uint32(len(p)), models.PTE_U)
	if err != nil {
		return err
	}
	copy(p, r.Bytes())
	return nil
}

// UserWrite writes through the user-visible permissions. COW pages are not writable.
func (d *Pgdir) UserWrite(va uint32, p []byte) error {
	r, err := CheckRange(d, va, uint32(len(p)), models.PTE_U|models.PTE_W)
	if err != nil {
		return err
	}
	r.Write(p)
	return nil
}
