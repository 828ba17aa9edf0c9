package common

import (
	"github.com/exocorn/exocorn/go/models"
)

// TrapArgs reads a syscall out of a trap frame: eax holds the number and
// edx, ecx, ebx, edi, esi the five arguments.
func TrapArgs(tf *models.Trapframe) (uint32, []uint64) {
	r := &tf.Regs
	return r.EAX, []uint64{
		uint64(r.EDX), uint64(r.ECX), uint64(r.EBX), uint64(r.EDI), uint64(r.ESI),
	}
}

// SetTrapArgs is the inverse of TrapArgs, used on syscall entry.
func SetTrapArgs(tf *models.Trapframe, num uint32, a1, a2, a3, a4, a5 uint32) {
	r := &tf.Regs
	r.EAX, r.EDX, r.ECX, r.EBX, r.EDI, r.ESI = num, a1, a2, a3, a4, a5
}
