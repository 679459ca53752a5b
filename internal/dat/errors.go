package dat

import "fmt"

// MalformedEntryError reports a structural fault in the entry framing:
// a terminator with no open entry, or a new entry start inside an
// unterminated entry.
type MalformedEntryError struct {
	Line    int
	Message string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("malformed entry at line %d: %s", e.Line, e.Message)
}

// TruncatedEntryError reports an entry still open when the stream ended.
// The partial entry is emitted alongside this error rather than dropped.
type TruncatedEntryError struct {
	Line      int
	EntryName string
}

func (e *TruncatedEntryError) Error() string {
	if e.EntryName != "" {
		return fmt.Sprintf("entry %q unterminated at end of input (line %d)", e.EntryName, e.Line)
	}
	return fmt.Sprintf("unterminated entry at end of input (line %d)", e.Line)
}

// MissingFieldError reports a mandatory field absent from an entry.
// The entry is dropped and the parse continues.
type MissingFieldError struct {
	Field     string
	EntryName string
}

func (e *MissingFieldError) Error() string {
	if e.EntryName != "" {
		return fmt.Sprintf("entry %q missing mandatory %s field", e.EntryName, e.Field)
	}
	return fmt.Sprintf("entry missing mandatory %s field", e.Field)
}
