package jos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocorn/exocorn/go/kernel/env"
	"github.com/exocorn/exocorn/go/models"
)

func TestIpcNotRecving(t *testing.T) {
	f := newFixture(t)
	_, su := f.spawn(t, "sender")
	r, _ := f.spawn(t, "receiver")
	before := r.IPC

	assert.Equal(t, models.E_IPC_NOT_RECV.Ret(), sys(su, models.SYS_ipc_try_send, uint32(r.ID), 42, models.UTOP, 0))
	assert.Equal(t, before, r.IPC)
	assert.Equal(t, models.ENV_RUNNABLE, r.Status)
}

func TestIpcBadTarget(t *testing.T) {
	f := newFixture(t)
	_, su := f.spawn(t, "sender")
	assert.Equal(t, models.E_BAD_ENV.Ret(), sys(su, models.SYS_ipc_try_send, 0x4005, 1, models.UTOP, 0))
}

func TestIpcRecvBadDst(t *testing.T) {
	f := newFixture(t)
	r, ru := f.spawn(t, "receiver")
	assert.Equal(t, models.E_INVAL.Ret(), sys(ru, models.SYS_ipc_recv, 0x800004))
	assert.False(t, r.IPC.Recving)
	assert.Equal(t, models.ENV_RUNNABLE, r.Status)
}

func TestIpcValue(t *testing.T) {
	f := newFixture(t)
	s, su := f.spawn(t, "sender")
	r, ru := f.spawn(t, "receiver")

	assert.Equal(t, int32(0), sys(ru, models.SYS_ipc_recv, models.UTOP))
	assert.True(t, r.IPC.Recving)
	assert.Equal(t, models.ENV_NOT_RUNNABLE, r.Status)

	// the receiver need not be related to the sender
	assert.Equal(t, int32(0), sys(su, models.SYS_ipc_try_send, uint32(r.ID), 42, models.UTOP, 0))
	assert.Equal(t, env.IPC{DstVA: models.UTOP, Value: 42, From: s.ID}, r.IPC)
	assert.Equal(t, models.ENV_RUNNABLE, r.Status)
	assert.Equal(t, uint32(0), r.Tf.Regs.EAX)

	// single slot: a second send waits for the next recv
	assert.Equal(t, models.E_IPC_NOT_RECV.Ret(), sys(su, models.SYS_ipc_try_send, uint32(r.ID), 43, models.UTOP, 0))
	assert.Equal(t, uint32(42), r.IPC.Value)
}

func TestIpcPage(t *testing.T) {
	f := newFixture(t)
	s, su := f.spawn(t, "sender")
	r, ru := f.spawn(t, "receiver")
	const srcva, dstva = 0x800000, 0xa00000

	require.Equal(t, int32(0), sys(su, models.SYS_page_alloc, 0, srcva, PUW))
	require.NoError(t, s.Pgdir.WriteAt(srcva, []byte("page")))
	require.Equal(t, int32(0), sys(ru, models.SYS_ipc_recv, dstva))

	assert.Equal(t, int32(0), sys(su, models.SYS_ipc_try_send, uint32(r.ID), 7, srcva, PUW))
	assert.Equal(t, models.Perm(PUW), r.IPC.Perm)
	assert.Equal(t, s.Pgdir.PTE(srcva).Addr(), r.Pgdir.PTE(dstva).Addr())
	p := make([]byte, 4)
	require.NoError(t, r.Pgdir.ReadAt(dstva, p))
	assert.Equal(t, "page", string(p))
}

func TestIpcPageNotWanted(t *testing.T) {
	f := newFixture(t)
	_, su := f.spawn(t, "sender")
	r, ru := f.spawn(t, "receiver")
	require.Equal(t, int32(0), sys(su, models.SYS_page_alloc, 0, 0x800000, PUW))
	require.Equal(t, int32(0), sys(ru, models.SYS_ipc_recv, models.UTOP))

	assert.Equal(t, int32(0), sys(su, models.SYS_ipc_try_send, uint32(r.ID), 7, 0x800000, PUW))
	assert.Equal(t, models.Perm(0), r.IPC.Perm)
	assert.Equal(t, uint32(7), r.IPC.Value)
}

func TestIpcSendErrorsLeaveReceiverBlocked(t *testing.T) {
	f := newFixture(t)
	_, su := f.spawn(t, "sender")
	r, ru := f.spawn(t, "receiver")
	require.Equal(t, int32(0), sys(su, models.SYS_page_alloc, 0, 0x800000, PU))
	require.Equal(t, int32(0), sys(ru, models.SYS_ipc_recv, 0xa00000))
	blocked := r.IPC

	cases := []struct {
		name  string
		srcva uint32
		perm  models.Perm
	}{
		{"unaligned", 0x800004, PU},
		{"unmapped", 0x900000, PU},
		{"bad perm", 0x800000, models.PTE_P},
		{"write on read-only", 0x800000, PUW},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, models.E_INVAL.Ret(), sys(su, models.SYS_ipc_try_send, uint32(r.ID), 1, c.srcva, uint32(c.perm)))
			assert.Equal(t, blocked, r.IPC)
			assert.Equal(t, models.ENV_NOT_RUNNABLE, r.Status)
			assert.False(t, r.Pgdir.PTE(0xa00000).Present())
		})
	}
}

func TestIpcSendNoMemLeavesReceiverBlocked(t *testing.T) {
	f := newFixture(t, func(c *models.Config) { c.PhysPages = 16 })
	_, su := f.spawn(t, "sender")
	r, ru := f.spawn(t, "receiver")
	require.Equal(t, int32(0), sys(su, models.SYS_page_alloc, 0, 0x800000, PUW))
	// no page table covers dstva yet
	require.False(t, r.Pgdir.PDE(0x1000000).Present())
	require.Equal(t, int32(0), sys(ru, models.SYS_ipc_recv, 0x1000000))
	blocked := r.IPC

	var ret int32
	for va := uint32(0x801000); ret == 0; va += models.PGSIZE {
		ret = sys(su, models.SYS_page_alloc, 0, va, PU)
	}
	require.Equal(t, models.E_NO_MEM.Ret(), ret)

	assert.Equal(t, models.E_NO_MEM.Ret(), sys(su, models.SYS_ipc_try_send, uint32(r.ID), 1, 0x800000, PUW))
	assert.Equal(t, blocked, r.IPC)
	assert.Equal(t, models.ENV_NOT_RUNNABLE, r.Status)
	assert.False(t, r.Pgdir.PDE(0x1000000).Present())
}

func TestIpcRecvToSelf(t *testing.T) {
	f := newFixture(t)
	e, u := f.spawn(t, "loop")
	require.Equal(t, int32(0), sys(u, models.SYS_ipc_recv, models.UTOP))
	assert.Equal(t, int32(0), sys(u, models.SYS_ipc_try_send, 0, 5, models.UTOP, 0))
	assert.Equal(t, e.ID, e.IPC.From)
	assert.Equal(t, uint32(5), e.IPC.Value)
}
