package trace

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/exocorn/exocorn/go/models"
)

var allOps = []Op{
	&OpNop{},
	&OpSpawn{Env: 0x1000, Type: models.ENV_TYPE_FS, Name: "fs"},
	&OpSyscall{Env: 0x1000, Num: models.SYS_page_alloc, Ret: -3, Args: []uint32{0, 0x800000, 7, 0, 0}},
	&OpSyscall{Env: 0x1001, Num: models.SYS_yield, Args: []uint32{}},
	&OpFault{Env: 0x1001, Addr: 0xeebfdffc, Code: 7},
	&OpExit{Env: 0x1001},
}

func TestOpStream(t *testing.T) {
	var buf bytes.Buffer
	for _, op := range allOps {
		p := make([]byte, op.Sizeof())
		op.Pack(p)
		buf.Write(p)
	}
	size := buf.Len()
	total := 0
	var got []Op
	for {
		op, n, err := Unpack(&buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		total += n
		got = append(got, op)
	}
	if total != size {
		t.Errorf("read %d bytes, wrote %d", total, size)
	}
	if diff := cmp.Diff(allOps, got); diff != "" {
		t.Errorf("ops differ (-want +got):\n%s", diff)
	}
}

func TestUnpackTruncated(t *testing.T) {
	op := allOps[2]
	p := make([]byte, op.Sizeof())
	op.Pack(p)
	if _, _, err := Unpack(bytes.NewReader(p[:len(p)-2])); err != io.ErrUnexpectedEOF {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	if _, _, err := Unpack(bytes.NewReader([]byte{0xff})); err == nil {
		t.Error("expected unknown op error")
	}
}

func TestOpString(t *testing.T) {
	cases := map[string]Op{
		"[00001000] page_alloc(0x0, 0x800000, 0x7, 0x0, 0x0) = -E_INVAL": allOps[2],
		"[00001001] yield() = 0x0":                                       allOps[3],
		"[00001001] page fault write va eebfdffc err 7":                  allOps[4],
		"[00001000] spawn fs (fs)":                                       allOps[1],
		"[00001001] syscall_99() = 0x1":                                  &OpSyscall{Env: 0x1001, Num: 99, Ret: 1},
	}
	for want, op := range cases {
		if got := op.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func TestOpJSON(t *testing.T) {
	for _, op := range allOps {
		b, err := json.Marshal(op)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]interface{}
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("%T produced invalid json %s: %v", op, b, err)
		}
	}
	b, _ := json.Marshal(allOps[2])
	want := `{"op":2,"env":4096,"num":4,"name":"page_alloc","ret":-3,"args":[0,8388608,7,0,0]}`
	if string(b) != want {
		t.Errorf("got %s", b)
	}
}
