package protocol

import (
	"bufio"
	"bytes"
	"io"
)

// MaxLineSize - longest accepted line in bytes, including terminator.
const MaxLineSize = 64 * 1024

// NewScanner - builds line scanner over r, longer lines terminate scanning with bufio.ErrTooLong.
// Carriage return before '\n' is dropped.
func NewScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxLineSize)
	s.Split(bufio.ScanLines)
	return s
}

// WriteLine - writes line terminated with '\n' as a single write.
func WriteLine(w io.Writer, line string) error {
	buf := bytes.Buffer{}
	buf.Grow(len(line) + 1)
	buf.WriteString(line)
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
