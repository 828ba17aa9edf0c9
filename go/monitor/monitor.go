package monitor

import (
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/shibukawa/configdir"

	"github.com/exocorn/exocorn/go/kernel/jos"
)

type Monitor struct {
	ctx *Context
	rl  *readline.Instance
}

func New(k *jos.Kernel) (*Monitor, error) {
	configDirs := configdir.New("exocorn", "monitor")
	cacheDir := configDirs.QueryCacheFolder()
	historyPath := ""
	if err := cacheDir.MkdirAll(); err == nil {
		historyPath = filepath.Join(cacheDir.Path, "history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "K> ",
		InterruptPrompt: "\n",
		HistoryFile:     historyPath,
	})
	if err != nil {
		return nil, err
	}
	return &Monitor{ctx: &Context{Writer: rl.Stdout(), K: k}, rl: rl}, nil
}

// Run reads commands until "c" (true) or end of input (false).
func (m *Monitor) Run() bool {
	m.ctx.Printf("Type 'help' for a list of commands.\n")
	for {
		ln := m.rl.Line()
		if ln.Error == readline.ErrInterrupt {
			continue
		} else if ln.CanContinue() {
			continue
		} else if ln.CanBreak() {
			return false
		}
		if Exec(m.ctx, ln.Line) == ErrContinue {
			return true
		}
	}
}

func (m *Monitor) Close() error {
	return m.rl.Close()
}
