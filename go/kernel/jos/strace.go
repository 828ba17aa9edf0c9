package jos

import (
	"fmt"
	"io"
	"os"

	"github.com/mgutz/ansi"

	"github.com/exocorn/exocorn/go/models"
)

var (
	chEnv = ansi.ColorCode("cyan")
	chErr = ansi.ColorCode("red+b")
)

// Strace prints one line per syscall in strace style.
type Strace struct {
	k     *Kernel
	w     io.Writer
	color bool
}

func NewStrace(k *Kernel, w io.Writer, color bool) *Strace {
	if w == nil {
		w = os.Stderr
	}
	return &Strace{k: k, w: w, color: color}
}

func (s *Strace) paint(str, code string) string {
	if !s.color {
		return str
	}
	return code + str + ansi.Reset
}

func (s *Strace) Syscall(id models.EnvID, num uint32, args []uint64, ret int32) {
	prefix := s.paint("["+id.String()+"]", chEnv)
	sys := s.k.Lookup(num)
	if sys == nil {
		fmt.Fprintf(s.w, "%s syscall_%d(...) = %s\n", prefix, num, s.paint("-"+models.E_INVAL.Sym(), chErr))
		return
	}
	result := sys.TraceRet(ret)
	if ret < 0 {
		result = s.paint(result, chErr)
	}
	fmt.Fprintf(s.w, "%s %s%s\n", prefix, sys.Trace(args), result)
}
