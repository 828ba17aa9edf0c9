package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

func printable(b byte) bool { return b >= 0x20 && b <= 0x7e }

// Repr quotes p for trace output, truncating to strsize characters.
func Repr(p []byte, strsize int) string {
	tmp := make([]string, len(p))
	for i, b := range p {
		if printable(b) {
			tmp[i] = string(b)
		} else {
			tmp[i] = fmt.Sprintf("\\x%02x", b)
		}
	}
	out := strings.Join(tmp, "")
	if strsize > 0 && len(out) > strsize {
		for i := len(tmp) - 1; len(out) > strsize-3 && i >= 0; i-- {
			out = strings.Join(tmp[:i], "")
		}
		return "\"" + out + "\"..."
	}
	return "\"" + out + "\""
}

// HexDump formats mem as 16-byte rows of little-endian words with an ascii column.
func HexDump(base uint32, mem []byte) []string {
	const word = 4
	const perLine = 4
	var out []string
	for i := 0; i < len(mem); i += word * perLine {
		row := mem[i:]
		if len(row) > word*perLine {
			row = row[:word*perLine]
		}
		blocks := make([]string, perLine)
		tail := make([]byte, 0, word*perLine)
		for j := 0; j < perLine; j++ {
			start := j * word
			if start >= len(row) {
				blocks[j] = strings.Repeat(" ", word*2)
				continue
			}
			end := start + word
			if end > len(row) {
				end = len(row)
			}
			block := row[start:end]
			blocks[j] = hex.EncodeToString(block) + strings.Repeat("  ", word-len(block))
			for _, c := range block {
				if printable(c) {
					tail = append(tail, c)
				} else {
					tail = append(tail, '.')
				}
			}
		}
		out = append(out, fmt.Sprintf("0x%08x: %s [%s]", base+uint32(i), strings.Join(blocks, " "), tail))
	}
	return out
}
