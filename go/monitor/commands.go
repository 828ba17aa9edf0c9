package monitor

import (
	"sort"

	"github.com/lunixbochs/fvbommel-util/sortorder"
	"github.com/pkg/errors"

	"github.com/exocorn/exocorn/go/kernel/env"
	"github.com/exocorn/exocorn/go/models"
	"github.com/exocorn/exocorn/go/models/mem"
)

var HelpCmd = cmd(&Command{
	Name: "help",
	Desc: "List commands.",
	Run: func(c *Context) error {
		names := make([]string, 0, len(Commands))
		for name := range Commands {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return sortorder.NaturalLess(names[i], names[j]) })
		for _, name := range names {
			cmd := Commands[name]
			c.Printf("  %-18s %s\n", cmd.Name+" "+cmd.Usage, cmd.Desc)
		}
		return nil
	},
})

var EnvsCmd = cmd(&Command{
	Name: "envs",
	Desc: "Display allocated environments.",
	Run: func(c *Context) error {
		c.Printf("  %-8s %-8s %-4s %-12s %6s %6s  %s\n", "id", "parent", "type", "status", "runs", "faults", "name")
		c.K.Envs.Each(func(e *env.Env) {
			c.Printf("  %s %s %-4s %-12s %6d %6d  %s\n", e.ID, e.ParentID, e.Type, e.Status, e.Runs, e.PageFaults, e.Name)
		})
		return nil
	},
})

var PgdirCmd = cmd(&Command{
	Name:  "pgdir",
	Usage: "<env>",
	Desc:  "Display an environment's user mappings.",
	Run: func(c *Context, id models.EnvID) error {
		e, err := c.env(id)
		if err != nil {
			return err
		}
		e.Pgdir.Walk(func(va uint32, pg *mem.Page, pte models.PTE) {
			c.Printf("  %08x -> %08x %s ref=%d\n", va, pg.PA(), pte.Perm(), pg.Ref)
		})
		return nil
	},
})

var XCmd = cmd(&Command{
	Name:  "x",
	Usage: "<env> <va> <size>",
	Desc:  "Dump an environment's memory.",
	Run: func(c *Context, id models.EnvID, va Addr, size int) error {
		e, err := c.env(id)
		if err != nil {
			return err
		}
		if size <= 0 || size > models.PTSIZE {
			return errors.Errorf("bad size %d", size)
		}
		p := make([]byte, size)
		if err := e.Pgdir.ReadAt(uint32(va), p); err != nil {
			return err
		}
		for _, line := range models.HexDump(uint32(va), p) {
			c.Printf("  %s\n", line)
		}
		return nil
	},
})

var KillCmd = cmd(&Command{
	Name:  "kill",
	Usage: "<env>",
	Desc:  "Destroy an environment.",
	Run: func(c *Context, id models.EnvID) error {
		return c.K.Kill(id)
	},
})

var TextCmd = cmd(&Command{
	Name: "text",
	Desc: "Display the entry point table.",
	Run: func(c *Context) error {
		c.K.Text.Each(func(va uint32, name string) {
			c.Printf("  %08x %s\n", va, name)
		})
		return nil
	},
})

var StatsCmd = cmd(&Command{
	Name: "stats",
	Desc: "Display memory and environment usage.",
	Run: func(c *Context) error {
		m := c.K.Mem
		c.Printf("  pages %d/%d\n", m.InUse(), m.Size())
		c.Printf("  envs  %d/%d\n", c.K.Envs.Live(), c.K.Envs.Cap())
		return nil
	},
})

var ContinueCmd = cmd(&Command{
	Name: "c",
	Desc: "Leave the monitor and continue.",
	Run: func(c *Context) error {
		return ErrContinue
	},
})
