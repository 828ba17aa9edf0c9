package list

import (
	"fmt"
	"io"
	"os"

	"github.com/exocorn/exocorn/go/cmd"
	"github.com/exocorn/exocorn/go/progs"
)

func List(w io.Writer) {
	pad := 0
	for _, p := range progs.All() {
		if len(p.Name) > pad {
			pad = len(p.Name)
		}
	}
	fstr := fmt.Sprintf("%%-%ds | %%s\n", pad)
	for _, p := range progs.All() {
		fmt.Fprintf(w, fstr, p.Name, p.Desc)
	}
}

func Main(args []string) { List(os.Stdout) }

func init() { cmd.Register("list", "list the built-in user programs", Main) }
