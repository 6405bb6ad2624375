package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes attached to row errors
const (
	ErrCodeMalformedRow  = "MALFORMED_ROW"
	ErrCodeRequired      = "REQUIRED"
	ErrCodeInvalidFormat = "INVALID_FORMAT"
	ErrCodeOutOfRange    = "OUT_OF_RANGE"
	ErrCodeReference     = "REFERENCE_NOT_FOUND"
)

var (
	ErrEmptyFile       = errors.New("csv file is empty")
	ErrInvalidEncoding = errors.New("csv file is not valid UTF-8")
	ErrMissingHeader   = errors.New("csv file has no header row")
	ErrTooManyRows     = errors.New("csv file has too many rows")
)

// MissingColumnsError lists required headers absent from the file
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// RowError describes why a single line was rejected
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, %s: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// RowErrors joins several errors of one row into a single message
type RowErrors []RowError

func (es RowErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		if e.Column != "" {
			msgs[i] = e.Column + ": " + e.Message
		} else {
			msgs[i] = e.Message
		}
	}
	return strings.Join(msgs, "; ")
}
