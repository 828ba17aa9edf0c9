package common

import (
	"github.com/pkg/errors"
)

type (
	// Buf is a user pointer whose length is the next argument.
	Buf struct {
		Addr uint32
		K    *KernelBase
	}
	Len uint32
	VA  uint32
)

// Peek reads n bytes behind the pointer for tracing, without permission checks.
func (b Buf) Peek(n Len) ([]byte, error) {
	if b.K == nil || b.K.Peek == nil {
		return nil, errors.New("no memory reader")
	}
	return b.K.Peek(b.Addr, uint32(n))
}
