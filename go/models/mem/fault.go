package mem

import (
	"fmt"

	"github.com/exocorn/exocorn/go/models"
)

// Fault describes a user access the MMU refused. Code holds FEC_* bits.
type Fault struct {
	Addr uint32
	Size int
	Code uint32
}

func (f *Fault) Error() string {
	reason := "unmapped read"
	switch {
	case f.Code&models.FEC_PR != 0 && f.Code&models.FEC_WR != 0:
		reason = "protected write"
	case f.Code&models.FEC_PR != 0:
		reason = "protected read"
	case f.Code&models.FEC_WR != 0:
		reason = "unmapped write"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, f.Addr, f.Size)
}

func (f *Fault) Write() bool { return f.Code&models.FEC_WR != 0 }
