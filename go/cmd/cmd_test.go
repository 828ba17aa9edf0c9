package cmd

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCmd() (*ExoCmd, *bytes.Buffer, *bytes.Buffer) {
	c := NewExoCmd()
	var stdout, stderr bytes.Buffer
	c.Stdin = strings.NewReader("")
	c.Stdout = &stdout
	c.Stderr = &stderr
	return c, &stdout, &stderr
}

func TestRunHello(t *testing.T) {
	t.Setenv("EXOCORN_LOG_LEVEL", "error")
	c, stdout, _ := newCmd()
	code := c.Run([]string{"exocorn run", "-o", filepath.Join(t.TempDir(), "log"), "hello"})
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello, world\ni am environment 00001000\n[00001000] exiting gracefully\n", stdout.String())
	assert.Equal(t, 0, c.Machine.Kernel.Envs.Live())
}

func TestRunStrace(t *testing.T) {
	log := filepath.Join(t.TempDir(), "log")
	c, _, _ := newCmd()
	code := c.Run([]string{"exocorn run", "-strace", "-o", log, "-pages", "128", "hello"})
	require.Equal(t, 0, code)
	assert.True(t, c.Config.TraceSys)
	assert.Equal(t, 128, c.Config.PhysPages)
	data, err := os.ReadFile(log)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[00001000] getenvid() = 00001000")
}

func TestRunTraceFile(t *testing.T) {
	dir := t.TempDir()
	tf := filepath.Join(dir, "out.trace")
	c, _, _ := newCmd()
	code := c.Run([]string{"exocorn run", "-o", filepath.Join(dir, "log"), "-to", tf, "pingpong"})
	require.Equal(t, 0, code)
	st, err := os.Stat(tf)
	require.NoError(t, err)
	assert.True(t, st.Size() > 16)
}

func TestRunErrors(t *testing.T) {
	c, _, stderr := newCmd()
	assert.Equal(t, 1, c.Run([]string{"exocorn run", "nosuchprog"}))
	assert.Contains(t, stderr.String(), `unknown program "nosuchprog"`)

	c, _, stderr = newCmd()
	assert.Equal(t, 1, c.Run([]string{"exocorn run"}))
	assert.Contains(t, stderr.String(), "Usage: exocorn run [options] <program>")
	assert.Contains(t, stderr.String(), "forktree")

	c, _, _ = newCmd()
	assert.Equal(t, 2, c.Run([]string{"exocorn run", "-bogus", "hello"}))

	c, _, stderr = newCmd()
	assert.Equal(t, 1, c.Run([]string{"exocorn run", "-envs", "5000", "hello"}))
	assert.Contains(t, stderr.String(), "max_envs out of range")
}

func TestPrintFlags(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	fs.String("name", "abc", strings.TrimSpace(strings.Repeat("word ", 30)))
	var flags []*flag.Flag
	fs.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })
	var buf bytes.Buffer
	printFlags(&buf, flags)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.True(t, len(lines) > 1)
	assert.True(t, strings.HasPrefix(lines[0], "  -name (abc) word"))
	for _, line := range lines {
		assert.True(t, len(line) <= 80, line)
	}
	assert.Equal(t, 30, strings.Count(buf.String(), "word"))
}
