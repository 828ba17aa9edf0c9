package progs

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exocorn "github.com/exocorn/exocorn/go"
	"github.com/exocorn/exocorn/go/models"
)

func boot(t *testing.T, name string) string {
	p, ok := Lookup(name)
	require.True(t, ok, "missing program %s", name)
	c := models.DefaultConfig()
	c.PhysPages = 1024
	c.Output = io.Discard
	var out bytes.Buffer
	m, err := exocorn.NewMachine(c, &out)
	require.NoError(t, err)
	defer m.Close()
	_, err = m.Spawn(p.Name, p.Type, p.Main)
	require.NoError(t, err)
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, 0, m.Kernel.Envs.Live())
	return out.String()
}

func TestRegistry(t *testing.T) {
	var names []string
	for _, p := range All() {
		names = append(names, p.Name)
		assert.NotEmpty(t, p.Desc)
		assert.Equal(t, models.ENV_TYPE_USER, p.Type)
	}
	assert.Equal(t, []string{"cowcheck", "faultalloc", "faultdie", "forktree", "hello", "pingpong", "primes", "sendpage", "spin"}, names)
	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestHello(t *testing.T) {
	assert.Equal(t, "hello, world\ni am environment 00001000\n[00001000] exiting gracefully\n", boot(t, "hello"))
}

func TestSpin(t *testing.T) {
	want := "I am the parent.  Forking the child...\n" +
		"I am the parent.  Running the child...\n" +
		"I am the child.  Spinning...\n" +
		"I am the parent.  Killing the child...\n" +
		"[00001000] destroying 00001001\n" +
		"[00001000] exiting gracefully\n"
	assert.Equal(t, want, boot(t, "spin"))
}

func TestCowcheck(t *testing.T) {
	want := "child sees parent\n" +
		"child wrote child\n" +
		"[00001001] exiting gracefully\n" +
		"parent sees parent\n" +
		"[00001000] exiting gracefully\n"
	assert.Equal(t, want, boot(t, "cowcheck"))
}

func TestForktree(t *testing.T) {
	out := boot(t, "forktree")
	re := regexp.MustCompile(`(?m)^[0-9a-f]{4}: I am '([01]*)'$`)
	var names []string
	for _, m := range re.FindAllStringSubmatch(out, -1) {
		names = append(names, m[1])
	}
	want := []string{"", "0", "1", "00", "01", "10", "11",
		"000", "001", "010", "011", "100", "101", "110", "111"}
	assert.ElementsMatch(t, want, names)
	assert.Equal(t, 15, strings.Count(out, "exiting gracefully"))
}

func TestPingpong(t *testing.T) {
	var want strings.Builder
	want.WriteString("send 0 from 1000 to 1001\n")
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			want.WriteString("1001 got " + strconv.Itoa(i) + " from 1000\n")
		} else {
			want.WriteString("1000 got " + strconv.Itoa(i) + " from 1001\n")
		}
	}
	want.WriteString("[00001000] exiting gracefully\n")
	want.WriteString("1001 got 10 from 1000\n")
	want.WriteString("[00001001] exiting gracefully\n")
	assert.Equal(t, want.String(), boot(t, "pingpong"))
}

func TestPrimes(t *testing.T) {
	out := boot(t, "primes")
	var got []int
	for _, line := range strings.Split(out, "\n") {
		if n, err := strconv.Atoi(line); err == nil {
			got = append(got, n)
		}
	}
	assert.Equal(t, []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47}, got)
	assert.NotContains(t, out, "user panic")
}

func TestSendpage(t *testing.T) {
	want := "1000 got message: hello child environment! how are you?\n" +
		"child received correct message\n" +
		"[00001001] exiting gracefully\n" +
		"1001 got message: hello parent environment! I'm good.\n" +
		"parent received correct message\n" +
		"[00001000] exiting gracefully\n"
	assert.Equal(t, want, boot(t, "sendpage"))
}

func TestFaultalloc(t *testing.T) {
	want := "fault deadbeef\n" +
		"this string was faulted in at deadbeef\n" +
		"fault cafebffe\n" +
		"fault cafec000\n" +
		"this string was faulted in at cafebffe\n" +
		"[00001000] exiting gracefully\n"
	assert.Equal(t, want, boot(t, "faultalloc"))
}

func TestFaultdie(t *testing.T) {
	out := boot(t, "faultdie")
	assert.Contains(t, out, "[00001000] user fault va deadbeef ip ")
	assert.NotContains(t, out, "not reached")
}
