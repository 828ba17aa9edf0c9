package run

import (
	"os"

	"github.com/exocorn/exocorn/go/cmd"
)

func Main(args []string) {
	os.Exit(cmd.NewExoCmd().Run(args))
}

func init() { cmd.Register("run", "boot user programs on a fresh kernel", Main) }
