package models

import (
	"bytes"
	"encoding/binary"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// guest structures are little-endian i386
var Order = binary.LittleEndian

// PushRegs is the register block saved by pushal.
type PushRegs struct {
	EDI  uint32
	ESI  uint32
	EBP  uint32
	OESP uint32 // useless
	EBX  uint32
	EDX  uint32
	ECX  uint32
	EAX  uint32
}

type Trapframe struct {
	Regs     PushRegs
	ES       uint16
	Padding1 uint16
	DS       uint16
	Padding2 uint16
	TrapNo   uint32
	Err      uint32
	EIP      uint32
	CS       uint16
	Padding3 uint16
	EFlags   uint32
	ESP      uint32
	SS       uint16
	Padding4 uint16
}

// UTrapframe is the fault record pushed onto the user exception stack.
type UTrapframe struct {
	FaultVA uint32
	Err     uint32
	Regs    PushRegs
	EIP     uint32
	EFlags  uint32
	ESP     uint32
}

const (
	TrapframeSize  = 68
	UTrapframeSize = 52
)

func pack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, v, Order); err != nil {
		return nil, errors.Wrap(err, "struc.Pack() failed")
	}
	return buf.Bytes(), nil
}

func unpack(p []byte, v interface{}) error {
	return errors.Wrap(struc.UnpackWithOrder(bytes.NewReader(p), v, Order), "struc.Unpack() failed")
}

func (tf *Trapframe) Pack() ([]byte, error)  { return pack(tf) }
func (tf *Trapframe) Unpack(p []byte) error  { return unpack(p, tf) }
func (tf *UTrapframe) Pack() ([]byte, error) { return pack(tf) }
func (tf *UTrapframe) Unpack(p []byte) error { return unpack(p, tf) }
