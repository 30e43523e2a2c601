// Package input reads chat input: single lines, ^^^ delimited multi-line
// blocks and /commands.
package input

import (
	"bufio"
	"io"
	"strings"
)

// DefaultDelimiter opens and closes a multi-line block
const DefaultDelimiter = "^^^"

const maxLineSize = 1 << 20

// LineSource yields one line at a time without its terminator. It returns
// io.EOF when there is no more input.
type LineSource interface {
	ReadLine() (string, error)
}

// ScannerSource reads lines from an io.Reader
type ScannerSource struct {
	scanner *bufio.Scanner
}

// NewScannerSource creates a LineSource over r
func NewScannerSource(r io.Reader) *ScannerSource {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &ScannerSource{scanner: s}
}

func (s *ScannerSource) ReadLine() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Reader groups lines from a LineSource into messages
type Reader struct {
	src   LineSource
	open  string
	close string
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithDelimiters sets the lines that open and close a multi-line block
func WithDelimiters(open, close string) ReaderOption {
	return func(r *Reader) {
		r.open = open
		r.close = close
	}
}

// NewReader creates a Reader with ^^^ as both delimiters
func NewReader(src LineSource, opts ...ReaderOption) *Reader {
	r := &Reader{src: src, open: DefaultDelimiter, close: DefaultDelimiter}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next returns the next message. A line equal to the open delimiter starts
// a block that runs until the close delimiter or the end of input; the
// block's lines are joined with "\n". Next returns io.EOF only when no
// message was started.
func (r *Reader) Next() (string, error) {
	line, err := r.src.ReadLine()
	if err != nil {
		return "", err
	}
	if line != r.open {
		return line, nil
	}

	var lines []string
	for {
		line, err := r.src.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if line == r.close {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}
