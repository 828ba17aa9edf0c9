package main

import (
	"github.com/exocorn/exocorn/go/cmd"

	_ "github.com/exocorn/exocorn/go/cmd/list"
	_ "github.com/exocorn/exocorn/go/cmd/run"
	_ "github.com/exocorn/exocorn/go/cmd/trace"
)

func main() { cmd.Main() }
