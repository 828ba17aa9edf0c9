package jos

import (
	"go.uber.org/zap"

	"github.com/exocorn/exocorn/go/kernel/env"
	"github.com/exocorn/exocorn/go/logging"
	"github.com/exocorn/exocorn/go/models"
	"github.com/exocorn/exocorn/go/models/mem"
)

// pageFault delivers f to e's upcall on the user exception stack. It reports
// whether e survived, in which case the access should be retried.
func (k *Kernel) pageFault(e *env.Env, f *mem.Fault) bool {
	e.PageFaults++
	k.Metrics.PageFaults.Inc()
	k.Log.Debug("page fault", logging.Env(e.ID), logging.VA(f.Addr), zap.Uint32("err", f.Code))
	for _, t := range k.tracers {
		if ft, ok := t.(FaultTracer); ok {
			ft.PageFault(e.ID, f.Addr, f.Code)
		}
	}

	if e.PgfaultUpcall == 0 {
		k.printf("[%s] user fault va %08x ip %08x\n", e.ID, f.Addr, e.Tf.EIP)
		k.Log.Info("user fault with no handler", logging.Env(e.ID), logging.VA(f.Addr))
		k.destroy(e)
		return false
	}
	upcall, ok := k.Text.Lookup(e.PgfaultUpcall)
	if !ok {
		k.printf("[%s] bad pgfault upcall %08x\n", e.ID, e.PgfaultUpcall)
		k.destroy(e)
		return false
	}

	// recursive faults push below the current record, leaving a scratch word
	utfva := uint32(models.UXSTACKTOP - models.UTrapframeSize)
	if esp := e.Tf.ESP; esp >= models.UXSTACKTOP-models.PGSIZE && esp < models.UXSTACKTOP {
		utfva = esp - 4 - models.UTrapframeSize
	}
	r, ok := k.userMemAssert(e, utfva, models.UTrapframeSize, models.PTE_W)
	if !ok {
		return false
	}
	utf := models.UTrapframe{
		FaultVA: f.Addr,
		Err:     f.Code,
		Regs:    e.Tf.Regs,
		EIP:     e.Tf.EIP,
		EFlags:  e.Tf.EFlags,
		ESP:     e.Tf.ESP,
	}
	b, err := utf.Pack()
	if err != nil {
		panic(err)
	}
	r.Write(b)
	e.Tf.ESP = utfva
	e.Tf.EIP = e.PgfaultUpcall

	upcall(k.Handle(e))
	return e.Status != models.ENV_FREE && e.Status != models.ENV_DYING
}
