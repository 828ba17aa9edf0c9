package jos

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/exocorn/exocorn/go/kernel/common"
	"github.com/exocorn/exocorn/go/kernel/env"
	"github.com/exocorn/exocorn/go/logging"
	"github.com/exocorn/exocorn/go/models"
	"github.com/exocorn/exocorn/go/models/mem"
)

// Tracer observes every completed syscall.
type Tracer interface {
	Syscall(id models.EnvID, num uint32, args []uint64, ret int32)
}

// A Tracer may also implement these to see the rest of an environment's life.
type (
	SpawnTracer interface {
		Spawn(id models.EnvID, typ models.EnvType, name string)
	}
	FaultTracer interface {
		PageFault(id models.EnvID, va, code uint32)
	}
	ExitTracer interface {
		EnvExit(id models.EnvID)
	}
)

type Kernel struct {
	common.KernelBase

	Config  *models.Config
	Mem     *mem.PhysMem
	Envs    *env.Table
	Text    *Text
	Console models.Console
	Log     *zap.Logger
	Metrics *Metrics

	tracers []Tracer

	// the environment whose syscalls are being served
	cur     *env.Env
	running bool

	threads  map[models.EnvID]*thread
	users    map[models.EnvID]*User
	handback chan struct{}
}

func New(c *models.Config, console models.Console, log *zap.Logger) (*Kernel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if console == nil {
		console = nullConsole{}
	}
	k := &Kernel{
		Config:   c,
		Mem:      mem.NewPhysMem(c.PhysPages),
		Text:     NewText(),
		Console:  console,
		Log:      log,
		Metrics:  NewMetrics(),
		threads:  make(map[models.EnvID]*thread),
		users:    make(map[models.EnvID]*User),
		handback: make(chan struct{}),
	}
	k.Envs = env.NewTable(c.MaxEnvs, k.Mem)
	k.Mem.OnChange = func(n int) { k.Metrics.PagesInUse.Set(float64(n)) }
	k.Envs.OnChange = func(n int) { k.Metrics.Envs.Set(float64(n)) }
	k.Metrics.PagesInUse.Set(float64(k.Mem.InUse()))

	k.Strsize = c.Strsize
	k.Peek = k.peek
	if err := common.Init(k, models.SyscallNames[:]); err != nil {
		return nil, errors.Wrap(err, "building syscall table")
	}
	if c.TraceSys {
		k.AddTracer(NewStrace(k, c.Output, c.Color))
	}
	return k, nil
}

func (k *Kernel) AddTracer(t Tracer) {
	k.tracers = append(k.tracers, t)
}

// Cur is the environment currently executing, or nil between switches.
func (k *Kernel) Cur() *env.Env { return k.cur }

type nullConsole struct{}

func (nullConsole) ReadChar() (byte, bool) { return 0, false }
func (nullConsole) Write(p []byte)         {}

func (k *Kernel) printf(format string, a ...interface{}) {
	k.Console.Write([]byte(fmt.Sprintf(format, a...)))
}

func (k *Kernel) peek(addr, n uint32) ([]byte, error) {
	if k.cur == nil || k.cur.Pgdir == nil {
		return nil, errors.New("no current environment")
	}
	if n > models.PGSIZE {
		n = models.PGSIZE
	}
	p := make([]byte, n)
	if err := k.cur.Pgdir.ReadAt(addr, p); err != nil {
		return nil, err
	}
	return p, nil
}

// dispatch runs one syscall on behalf of e, which must be k.cur.
func (k *Kernel) dispatch(e *env.Env, num uint32, args []uint64) (ret int32) {
	sys := k.Lookup(num)
	if sys == nil {
		k.Log.Debug("unknown syscall", logging.Env(e.ID), zap.Uint32("num", num))
		k.Metrics.Errors.WithLabelValues("unknown", models.E_INVAL.Sym()).Inc()
		ret = models.E_INVAL.Ret()
		k.trace(e.ID, num, args, ret)
		return ret
	}
	k.Metrics.Syscalls.WithLabelValues(sys.Name).Inc()
	if len(k.tracers) > 0 {
		defer func() {
			if r := recover(); r != nil {
				// self-destroy never returns
				if _, ok := r.(envExit); ok {
					k.trace(e.ID, num, args, 0)
				}
				panic(r)
			}
			k.trace(e.ID, num, args, ret)
		}()
	}
	ret = int32(uint32(sys.Call(args)))
	if ret < 0 {
		k.Metrics.Errors.WithLabelValues(sys.Name, models.Errno(-ret).Sym()).Inc()
	}
	return ret
}

func (k *Kernel) trace(id models.EnvID, num uint32, args []uint64, ret int32) {
	for _, t := range k.tracers {
		t.Syscall(id, num, args, ret)
	}
}

// userMemAssert validates a user range for e, destroying e on failure.
func (k *Kernel) userMemAssert(e *env.Env, va, n uint32, perm models.Perm) (mem.UserRange, bool) {
	r, err := mem.CheckRange(e.Pgdir, va, n, perm|models.PTE_U)
	if err != nil {
		addr := va
		if f, ok := err.(*mem.Fault); ok {
			addr = f.Addr
		}
		k.printf("[%s] user_mem_check assertion failure for va %08x\n", e.ID, addr)
		k.Log.Info("user memory check failed", logging.Env(e.ID), logging.VA(addr), zap.Error(err))
		k.destroy(e)
		return r, false
	}
	return r, true
}

func ret(err error) int32 { return models.Ret(err) }

// checkVA is the alignment and range rule for every page-granular address argument.
func checkVA(va common.VA) bool {
	return uint32(va) < models.UTOP && models.PGOFF(uint32(va)) == 0
}

// Spawn creates a top-level environment running entry, with one stack page
// mapped below USTACKTOP.
func (k *Kernel) Spawn(name string, typ models.EnvType, entry models.Entry) (*env.Env, error) {
	e, err := k.Envs.Alloc(0)
	if err != nil {
		return nil, err
	}
	e.Name = name
	e.Type = typ
	e.Tf.EIP = k.Text.Entry(name, entry)
	pg, err := k.Mem.Alloc(true)
	if err == nil {
		err = e.Pgdir.Insert(pg, models.USTACKTOP-models.PGSIZE, models.PTE_P|models.PTE_U|models.PTE_W)
		if err != nil {
			k.Mem.Free(pg)
		}
	}
	if err != nil {
		k.Envs.Free(e)
		return nil, err
	}
	k.Log.Debug("spawned", logging.Env(e.ID), zap.String("name", name), zap.Stringer("type", typ))
	for _, t := range k.tracers {
		if st, ok := t.(SpawnTracer); ok {
			st.Spawn(e.ID, typ, name)
		}
	}
	return e, nil
}

// Kill destroys an environment from outside any environment (monitor, host).
func (k *Kernel) Kill(id models.EnvID) error {
	e, err := k.Envs.Resolve(id, nil, false)
	if err != nil {
		return err
	}
	k.markDying(e)
	if !k.running {
		k.reap()
	}
	return nil
}
