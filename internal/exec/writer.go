package exec

import (
	"bufio"
	"io"
	"strings"
)

// PrefixWriter adds a prefix to each line of output.
// Hook commands stream through this so their output reads as part of
// the install log rather than interleaving with it.
type PrefixWriter struct {
	prefix string
	writer io.Writer
	buffer []byte
}

// NewPrefixWriter creates a writer that prefixes each line
func NewPrefixWriter(writer io.Writer, prefix string) *PrefixWriter {
	return &PrefixWriter{
		prefix: prefix,
		writer: writer,
		buffer: make([]byte, 0),
	}
}

// Write adds prefix to each line
func (p *PrefixWriter) Write(data []byte) (n int, err error) {
	n = len(data)
	p.buffer = append(p.buffer, data...)

	// Process complete lines
	scanner := bufio.NewScanner(strings.NewReader(string(p.buffer)))
	var lastLine string
	var hasLastLine bool

	for scanner.Scan() {
		if hasLastLine {
			// Write the previous line (we know it's complete)
			if _, err := p.writer.Write([]byte(p.prefix + lastLine + "\n")); err != nil {
				return 0, err
			}
		}
		lastLine = scanner.Text()
		hasLastLine = true
	}

	// Check if we have a complete last line
	if hasLastLine {
		if strings.HasSuffix(string(data), "\n") {
			// Last line is complete, write it
			if _, err := p.writer.Write([]byte(p.prefix + lastLine + "\n")); err != nil {
				return 0, err
			}
			p.buffer = p.buffer[:0]
		} else {
			// Last line is incomplete, keep it in buffer
			p.buffer = []byte(lastLine)
		}
	}

	return n, nil
}
