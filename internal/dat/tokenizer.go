package dat

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry framing markers.
const (
	startPrefix = "ID   "
	terminator  = "//"
)

// EntryBlock is one raw DAT entry: the lines between its ID line and its
// "//" terminator, terminator excluded.
type EntryBlock struct {
	Lines     []string
	StartLine int // 1-based line number of the ID line
}

// EntryName returns the identifier from the block's ID line, or "" if the
// block does not start with one.
func (b *EntryBlock) EntryName() string {
	if len(b.Lines) == 0 || !strings.HasPrefix(b.Lines[0], startPrefix) {
		return ""
	}
	fields := strings.Fields(b.Lines[0][len(startPrefix):])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// tokenizer states
type tokenizerState int

const (
	betweenEntries tokenizerState = iota
	inEntry
)

// Tokenizer splits a DAT line stream into raw entry blocks. It is a
// single-pass streaming reader; construct a new Tokenizer to restart.
type Tokenizer struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	state      tokenizerState
	buf        []string
	bufStart   int
	done       bool
}

// NewTokenizer opens a DAT file for tokenizing. Plain and gzipped input are
// both accepted; gzip is detected from the magic bytes, not the file name.
func NewTokenizer(path string) (*Tokenizer, error) {
	if path == "-" {
		return NewTokenizerFromReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dat file: %w", err)
	}

	t := &Tokenizer{file: file}

	buf := make([]byte, 2)
	if _, err := file.Read(buf); err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read dat file: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek dat file: %w", err)
	}

	// gzip magic number (0x1f, 0x8b)
	if buf[0] == 0x1f && buf[1] == 0x8b {
		t.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		t.reader = bufio.NewReader(t.gzipReader)
	} else {
		t.reader = bufio.NewReader(file)
	}

	return t, nil
}

// NewTokenizerFromReader creates a tokenizer over an io.Reader.
func NewTokenizerFromReader(r io.Reader) *Tokenizer {
	return &Tokenizer{reader: bufio.NewReader(r)}
}

// Next returns the next entry block. It returns (nil, nil) at end of input.
//
// Structural faults are recoverable: a *MalformedEntryError means the
// offending line was discarded and the caller may keep calling Next. An
// unterminated entry at end of input is returned as a partial block together
// with a *TruncatedEntryError so the caller can decide whether to keep it.
func (t *Tokenizer) Next() (*EntryBlock, error) {
	if t.done {
		return nil, nil
	}

	for {
		line, err := t.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read dat line %d: %w", t.lineNumber+1, err)
		}
		atEOF := err == io.EOF

		if line != "" {
			t.lineNumber++
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == terminator || strings.HasPrefix(line, terminator):
			if t.state != inEntry {
				return nil, &MalformedEntryError{
					Line:    t.lineNumber,
					Message: "terminator with no open entry",
				}
			}
			block := &EntryBlock{Lines: t.buf, StartLine: t.bufStart}
			t.buf = nil
			t.state = betweenEntries
			return block, nil

		case strings.HasPrefix(line, startPrefix):
			if t.state == inEntry {
				// Abandon the unterminated entry and reopen on this line so
				// one bad record does not desynchronize the whole stream.
				name := (&EntryBlock{Lines: t.buf}).EntryName()
				t.buf = []string{line}
				t.bufStart = t.lineNumber
				return nil, &MalformedEntryError{
					Line:    t.lineNumber,
					Message: fmt.Sprintf("new entry started before %q terminated", name),
				}
			}
			t.state = inEntry
			t.buf = []string{line}
			t.bufStart = t.lineNumber

		case t.state == inEntry && line != "":
			t.buf = append(t.buf, line)
		}

		if atEOF {
			t.done = true
			if t.state == inEntry {
				block := &EntryBlock{Lines: t.buf, StartLine: t.bufStart}
				t.buf = nil
				t.state = betweenEntries
				return block, &TruncatedEntryError{Line: t.lineNumber, EntryName: block.EntryName()}
			}
			return nil, nil
		}
	}
}

// LineNumber returns the current line number being processed.
func (t *Tokenizer) LineNumber() int {
	return t.lineNumber
}

// Close closes the tokenizer and underlying file.
func (t *Tokenizer) Close() error {
	if t.gzipReader != nil {
		t.gzipReader.Close()
	}
	if t.file != nil {
		return t.file.Close()
	}
	return nil
}
