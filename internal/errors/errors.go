// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientData = errors.New("insufficient data for calculation")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrNoData           = errors.New("no data available")
	ErrNotConfigured    = errors.New("not configured")
	ErrRateLimited      = errors.New("rate limited")
	ErrTimeout          = errors.New("operation timed out")
	ErrConfigInvalid    = errors.New("invalid configuration")
)

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// StoreError represents a persistence failure for a keyed write or read.
type StoreError struct {
	Table  string
	Symbol string
	Op     string
	Err    error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store error [%s] %s %s: %v", e.Table, e.Op, e.Symbol, e.Err)
	}
	return fmt.Sprintf("store error [%s] %s %s", e.Table, e.Op, e.Symbol)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(table, symbol, op string, err error) *StoreError {
	return &StoreError{
		Table:  table,
		Symbol: symbol,
		Op:     op,
		Err:    err,
	}
}

// OracleError represents an error from the sentiment oracle.
type OracleError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle error [%s] %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// NewOracleError creates a new OracleError.
func NewOracleError(provider, operation string, err error) *OracleError {
	return &OracleError{
		Provider:  provider,
		Operation: operation,
		Err:       err,
	}
}

// FetchError represents a failure retrieving data from a PSX endpoint.
type FetchError struct {
	Endpoint string
	Symbol   string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("fetch error [%s] %s: %v", e.Endpoint, e.Symbol, e.Err)
	}
	return fmt.Sprintf("fetch error [%s]: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(endpoint, symbol string, err error) *FetchError {
	return &FetchError{
		Endpoint: endpoint,
		Symbol:   symbol,
		Err:      err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
