package domain

import (
	"fmt"
	"strings"
)

// SourceError reports a missing upload or a sheet that cannot be located.
// It aborts the whole run.
type SourceError struct {
	Source string // upload slot or file name
	Sheet  string // empty when the whole source is missing
	Err    error
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("source %q", e.Source)
	if e.Sheet != "" {
		msg = fmt.Sprintf("sheet %q in %s", e.Sheet, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg + ": not found"
}

func (e *SourceError) Unwrap() error { return e.Err }

// SchemaError reports a canonical column that none of its aliases resolved.
// It aborts the whole run.
type SchemaError struct {
	Table   string
	Column  string
	Aliases []string
}

func (e *SchemaError) Error() string {
	if len(e.Aliases) == 0 {
		return fmt.Sprintf("missing required column %q in %s", e.Column, e.Table)
	}
	return fmt.Sprintf("missing required column %q in %s (tried: %s)",
		e.Column, e.Table, strings.Join(e.Aliases, ", "))
}

// MergeError reports an inventory row that cannot be identified for merging.
// The row is dropped and the run continues.
type MergeError struct {
	Brand  string
	Branch Branch
	Row    int
	Reason string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("inventory row %d (%s, brand %q) dropped: %s", e.Row, e.Branch, e.Brand, e.Reason)
}
