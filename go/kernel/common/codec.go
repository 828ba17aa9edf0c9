package common

import (
	"github.com/lunixbochs/argjoy"

	"github.com/exocorn/exocorn/go/models"
)

// registers are 32 bits wide, anything above is dropped
func (k *KernelBase) commonArgCodec(arg interface{}, vals []interface{}) error {
	if reg, ok := vals[0].(uint64); ok {
		r := uint32(reg)
		switch v := arg.(type) {
		case *Buf:
			*v = Buf{Addr: r, K: k}
		case *Len:
			*v = Len(r)
		case *VA:
			*v = VA(r)
		case *models.EnvID:
			*v = models.EnvID(int32(r))
		case *models.Perm:
			*v = models.Perm(r)
		case *models.Status:
			*v = models.Status(r)
		case *uint32:
			*v = r
		default:
			return argjoy.NoMatch
		}
		return nil
	}
	return argjoy.NoMatch
}
