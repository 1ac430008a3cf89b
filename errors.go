package agreement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/agreement/domain/model"
)

// Standard error messages and error creation functions for consistency
var (
	// ErrColumnNotFound indicates a group, boundary or mask column is absent from the table
	ErrColumnNotFound = model.ErrColumnNotFound

	// ErrInvalidRange indicates the first boundary column comes after the last one
	ErrInvalidRange = model.ErrInvalidRange

	// ErrEmptyData indicates that the data source contains no header
	ErrEmptyData = errors.New("agreement: empty data source")

	// ErrUnsupportedFormat indicates an unsupported file format
	ErrUnsupportedFormat = errors.New("agreement: unsupported file format")

	// ErrInvalidForm indicates a form definition that cannot be read
	ErrInvalidForm = errors.New("agreement: invalid form definition")

	// ErrInvalidSeparator indicates a group separator other than ':' or '-'
	ErrInvalidSeparator = errors.New("agreement: invalid group separator")

	// ErrGroupNotFound indicates a lookup of an unknown group identifier
	ErrGroupNotFound = errors.New("agreement: group not found")

	// ErrFileNotFound indicates file not found
	ErrFileNotFound = errors.New("agreement: file not found")
)

type (
	// ColumnNotFoundError reports which column was missing and in what role
	ColumnNotFoundError = model.ColumnNotFoundError
	// InvalidRangeError reports boundary columns given in the wrong order
	InvalidRangeError = model.InvalidRangeError
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	Column    string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithColumn adds column context to the error
func (ec *ErrorContext) WithColumn(column string) *ErrorContext {
	ec.Column = column
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("agreement: %s failed", ec.Operation))

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}

	if ec.Column != "" {
		parts = append(parts, "column: "+ec.Column)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}
