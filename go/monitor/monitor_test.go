package monitor

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/exocorn/exocorn/go/cons"
	"github.com/exocorn/exocorn/go/kernel/jos"
	"github.com/exocorn/exocorn/go/models"
)

func newContext(t *testing.T) (*Context, *bytes.Buffer) {
	c := models.DefaultConfig()
	c.PhysPages = 64
	c.MaxEnvs = 4
	c.Output = io.Discard
	k, err := jos.New(c, cons.New(io.Discard, false), zaptest.NewLogger(t))
	require.NoError(t, err)
	var out bytes.Buffer
	return &Context{Writer: &out, K: k}, &out
}

func exec(t *testing.T, c *Context, out *bytes.Buffer, line string) string {
	out.Reset()
	require.NoError(t, Exec(c, line))
	return out.String()
}

func TestHelp(t *testing.T) {
	c, out := newContext(t)
	var names []string
	for _, line := range strings.Split(strings.TrimSpace(exec(t, c, out, "help")), "\n") {
		names = append(names, strings.Fields(line)[0])
	}
	assert.Equal(t, []string{"c", "envs", "help", "kill", "pgdir", "stats", "text", "x"}, names)
}

func TestInspect(t *testing.T) {
	c, out := newContext(t)
	e, err := c.K.Spawn("sh", models.ENV_TYPE_USER, func(models.User) {})
	require.NoError(t, err)
	u := c.K.Handle(e)
	require.Equal(t, int32(0), u.Syscall(models.SYS_page_alloc, 0, 0x900000, models.PTE_P|models.PTE_U|models.PTE_W, 0, 0))
	require.NoError(t, u.Write(0x900000, []byte("hi there")))

	assert.Contains(t, exec(t, c, out, "envs"), "00001000 00000000 user runnable")
	assert.Equal(t, "  00800000 sh\n", exec(t, c, out, "text"))

	maps := exec(t, c, out, "pgdir 1000")
	assert.Contains(t, maps, "  00900000 -> ")
	assert.Contains(t, maps, "--UWP ref=1")
	assert.Equal(t, 2, strings.Count(maps, "\n"))

	dump := exec(t, c, out, "x 0x1000 900000 8")
	assert.Contains(t, dump, "0x00900000: 68692074 68657265")
	assert.Contains(t, dump, "[hi there]")

	assert.Contains(t, exec(t, c, out, "stats"), "envs  1/4")
}

func TestKill(t *testing.T) {
	c, out := newContext(t)
	_, err := c.K.Spawn("sh", models.ENV_TYPE_USER, func(models.User) {})
	require.NoError(t, err)
	assert.Empty(t, exec(t, c, out, "kill 1000"))
	assert.Equal(t, 0, c.K.Envs.Live())
	assert.Contains(t, exec(t, c, out, "kill 1000"), "error: ")
	assert.Contains(t, exec(t, c, out, "pgdir 1000"), "error: ")
}

func TestBadInput(t *testing.T) {
	c, out := newContext(t)
	assert.Equal(t, "command not found.\n", exec(t, c, out, "frobnicate"))
	assert.Equal(t, "error: usage: x <env> <va> <size>\n", exec(t, c, out, "x 1000"))
	assert.Contains(t, exec(t, c, out, "pgdir zz"), "usage: pgdir <env>")
	assert.Contains(t, exec(t, c, out, `x "1000`), "parse error")
	assert.Empty(t, exec(t, c, out, "   "))
}

func TestContinue(t *testing.T) {
	c, _ := newContext(t)
	assert.Equal(t, ErrContinue, Exec(c, "c"))
}
