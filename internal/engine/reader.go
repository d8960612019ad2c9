package engine

import (
	"bufio"
	"io"
)

// maxLineBytes caps a single log line. Proxy log lines are short; anything
// beyond this is garbage but must not abort the scan.
const maxLineBytes = 1024 * 1024

// batchReader yields successive bounded batches of lines from r, so a file
// of any size can be processed with bounded memory.
type batchReader struct {
	scanner   *bufio.Scanner
	batchSize int
}

func newBatchReader(r io.Reader, batchSize int) *batchReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &batchReader{scanner: scanner, batchSize: batchSize}
}

// Next returns the next batch of up to batchSize lines. It returns an empty
// slice at end of input, and the scanner's error if reading failed.
func (b *batchReader) Next() ([]string, error) {
	lines := make([]string, 0, 1024)
	for len(lines) < b.batchSize && b.scanner.Scan() {
		lines = append(lines, b.scanner.Text())
	}
	if err := b.scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
