package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateColumnName is returned when a file contains duplicate column names
	ErrDuplicateColumnName = errors.New("duplicate column name")

	// ErrColumnNotFound is returned when a named column is absent from a table
	ErrColumnNotFound = errors.New("agreement: column not found")

	// ErrInvalidRange is returned when the first boundary column comes after the last
	ErrInvalidRange = errors.New("agreement: invalid column range")
)

// ColumnNotFoundError reports which column was missing and in what role
// ("group", "first", "last" or "mask").
type ColumnNotFoundError struct {
	Column string
	Role   string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("%v: %q", ErrColumnNotFound, e.Column)
	}
	return fmt.Sprintf("%v: %s column %q", ErrColumnNotFound, e.Role, e.Column)
}

// Unwrap makes errors.Is(err, ErrColumnNotFound) hold.
func (e *ColumnNotFoundError) Unwrap() error {
	return ErrColumnNotFound
}

// InvalidRangeError reports boundary columns given in the wrong order.
type InvalidRangeError struct {
	First      string
	Last       string
	FirstIndex int
	LastIndex  int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("%v: first column %q (position %d) is after last column %q (position %d)",
		ErrInvalidRange, e.First, e.FirstIndex, e.Last, e.LastIndex)
}

// Unwrap makes errors.Is(err, ErrInvalidRange) hold.
func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}
