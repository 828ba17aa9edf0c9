package exocorn

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/exocorn/exocorn/go/cons"
	"github.com/exocorn/exocorn/go/kernel/jos"
	"github.com/exocorn/exocorn/go/lib"
	"github.com/exocorn/exocorn/go/logging"
	"github.com/exocorn/exocorn/go/models"
	"github.com/exocorn/exocorn/go/models/trace"
)

// Machine is a kernel with its console, logger and optional trace file attached.
type Machine struct {
	Config  *models.Config
	Kernel  *jos.Kernel
	Console *cons.Console
	Log     *zap.Logger

	trace *trace.TraceWriter
}

// NewMachine builds a machine whose console writes to stdout (os.Stdout if nil).
func NewMachine(c *models.Config, stdout io.Writer) (*Machine, error) {
	if stdout == nil {
		stdout = os.Stdout
	}
	log, err := logging.New(c)
	if err != nil {
		return nil, err
	}
	m := &Machine{
		Config:  c,
		Console: cons.New(stdout, c.CleanConsole),
		Log:     log,
	}
	m.Kernel, err = jos.New(c, m.Console, log)
	if err != nil {
		return nil, errors.Wrap(err, "jos.New() failed")
	}
	if c.TraceFile != "" {
		f, err := os.Create(c.TraceFile)
		if err != nil {
			return nil, errors.Wrap(err, "creating trace file")
		}
		tw, err := trace.NewWriter(f, c)
		if err != nil {
			f.Close()
			return nil, err
		}
		m.trace = tw
		m.Kernel.AddTracer(tw)
	}
	return m, nil
}

// Spawn starts a top-level user program.
func (m *Machine) Spawn(name string, typ models.EnvType, main lib.Main) (models.EnvID, error) {
	e, err := m.Kernel.Spawn(name, typ, lib.Program(main))
	if err != nil {
		return 0, errors.Wrapf(err, "spawning %s", name)
	}
	return e.ID, nil
}

func (m *Machine) Run(ctx context.Context) error {
	start := time.Now()
	err := m.Kernel.Run(ctx)
	m.Log.Info("run finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("live", m.Kernel.Envs.Live()),
		zap.Int("pages", m.Kernel.Mem.InUse()),
		zap.Error(err),
	)
	return err
}

func (m *Machine) Registry() *prometheus.Registry { return m.Kernel.Metrics.Registry }

// Close destroys any remaining environments and flushes the trace file.
func (m *Machine) Close() error {
	m.Kernel.Shutdown()
	var err error
	if m.trace != nil {
		err = m.trace.Close()
		m.trace = nil
	}
	m.Log.Sync()
	return err
}
