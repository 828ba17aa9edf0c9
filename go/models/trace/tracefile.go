package trace

import (
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/exocorn/exocorn/go/models"
)

var TRACE_MAGIC = "EXOT"

const TRACE_VERSION = 1

type TraceHeader struct {
	// MAGIC ("EXOT")
	Magic string `struc:"[4]byte" json:"-"`
	// file format version
	Version uint32 `json:"version"`

	// machine shape the trace was recorded on
	PhysPages uint32 `json:"phys_pages"`
	MaxEnvs   uint32 `json:"max_envs"`
}

// TraceWriter records kernel events. Errors are sticky and reported by Err and Close.
type TraceWriter struct {
	mu     sync.Mutex
	w, zw  io.WriteCloser
	err    error
	Header TraceHeader
}

func NewWriter(w io.WriteCloser, c *models.Config) (*TraceWriter, error) {
	header := TraceHeader{
		Magic:     TRACE_MAGIC,
		Version:   TRACE_VERSION,
		PhysPages: uint32(c.PhysPages),
		MaxEnvs:   uint32(c.MaxEnvs),
	}
	if err := struc.Pack(w, &header); err != nil {
		return nil, errors.Wrap(err, "failed to pack header")
	}
	zw := snappy.NewBufferedWriter(w)
	return &TraceWriter{w: w, zw: zw, Header: header}, nil
}

// write an op at a time
func (t *TraceWriter) Pack(op Op) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	buf := make([]byte, op.Sizeof())
	op.Pack(buf)
	if _, err := t.zw.Write(buf); err != nil {
		t.err = errors.Wrap(err, "writing trace")
	}
	return t.err
}

func (t *TraceWriter) Syscall(id models.EnvID, num uint32, args []uint64, ret int32) {
	op := &OpSyscall{Env: id, Num: num, Ret: ret, Args: make([]uint32, len(args))}
	for i, v := range args {
		op.Args[i] = uint32(v)
	}
	t.Pack(op)
}

func (t *TraceWriter) Spawn(id models.EnvID, typ models.EnvType, name string) {
	t.Pack(&OpSpawn{Env: id, Type: typ, Name: name})
}

func (t *TraceWriter) PageFault(id models.EnvID, va, code uint32) {
	t.Pack(&OpFault{Env: id, Addr: va, Code: code})
}

func (t *TraceWriter) EnvExit(id models.EnvID) {
	t.Pack(&OpExit{Env: id})
}

func (t *TraceWriter) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *TraceWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.zw.Close()
	if cerr := t.w.Close(); err == nil {
		err = cerr
	}
	if t.err != nil {
		return t.err
	}
	return errors.Wrap(err, "closing trace")
}

type TraceReader struct {
	r      io.ReadCloser
	zr     *snappy.Reader
	Header TraceHeader
}

func NewReader(r io.ReadCloser) (*TraceReader, error) {
	t := &TraceReader{r: r}
	if err := struc.Unpack(r, &t.Header); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if t.Header.Magic != TRACE_MAGIC {
		return nil, errors.New("invalid trace file magic")
	}
	if t.Header.Version != TRACE_VERSION {
		return nil, errors.Errorf("unsupported trace version %d", t.Header.Version)
	}
	t.zr = snappy.NewReader(r)
	return t, nil
}

// Next returns the next op, or io.EOF after the last one.
func (t *TraceReader) Next() (Op, error) {
	op, _, err := Unpack(t.zr)
	return op, err
}

func (t *TraceReader) Close() error {
	t.zr.Reset(nil)
	return t.r.Close()
}
