package monitor

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lunixbochs/argjoy"

	"github.com/exocorn/exocorn/go/kernel/env"
	"github.com/exocorn/exocorn/go/kernel/jos"
	"github.com/exocorn/exocorn/go/models"
)

type Context struct {
	io.Writer
	K *jos.Kernel
}

func (c *Context) Printf(format string, a ...interface{}) (n int, err error) {
	return fmt.Fprintf(c, format, a...)
}

func (c *Context) env(id models.EnvID) (*env.Env, error) {
	return c.K.Envs.Resolve(id, nil, false)
}

// Addr is a virtual address argument, written in hex.
type Addr uint32

func parseHex(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	return uint32(n), err
}

// env ids and addresses are hex, counts use Go number syntax
func numCodec(arg interface{}, vals []interface{}) error {
	s, ok := vals[0].(string)
	if !ok {
		return argjoy.NoMatch
	}
	switch v := arg.(type) {
	case *models.EnvID:
		n, err := parseHex(s)
		if err != nil {
			return err
		}
		*v = models.EnvID(n)
	case *Addr:
		n, err := parseHex(s)
		if err != nil {
			return err
		}
		*v = Addr(n)
	case *int:
		n, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return err
		}
		*v = int(n)
	default:
		return argjoy.NoMatch
	}
	return nil
}
