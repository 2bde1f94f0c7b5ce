// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrNoSyncState   = errors.New("sync state not initialized: run a company sync first")
	ErrConfigInvalid = errors.New("invalid configuration")
	ErrSourceFailed  = errors.New("remote source call failed")
)

// SourceError represents an error from a remote or local data source.
type SourceError struct {
	Source string
	Ticker string
	Page   int
	Err    error
}

func (e *SourceError) Error() string {
	switch {
	case e.Ticker != "":
		return fmt.Sprintf("source error [%s] %s: %v", e.Source, e.Ticker, e.Err)
	case e.Page > 0:
		return fmt.Sprintf("source error [%s] page %d: %v", e.Source, e.Page, e.Err)
	default:
		return fmt.Sprintf("source error [%s]: %v", e.Source, e.Err)
	}
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new SourceError.
func NewSourceError(source, ticker string, page int, err error) *SourceError {
	return &SourceError{
		Source: source,
		Ticker: ticker,
		Page:   page,
		Err:    err,
	}
}

// StoreError represents a persistence failure. Commit failures are fatal to
// the in-flight operation and surface through this type.
type StoreError struct {
	Op     string
	Entity string
	Key    string
	Err    error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store error [%s] %s %s: %v", e.Op, e.Entity, e.Key, e.Err)
	}
	return fmt.Sprintf("store error [%s] %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, entity, key string, err error) *StoreError {
	return &StoreError{
		Op:     op,
		Entity: entity,
		Key:    key,
		Err:    err,
	}
}

// SyncError represents a failure during a sync pass, carrying the checkpoint
// so the caller can surface a resumable retry.
type SyncError struct {
	Stage      string
	Checkpoint int
	TotalPages int
	Err        error
}

func (e *SyncError) Error() string {
	if e.TotalPages > 0 {
		return fmt.Sprintf("sync error [%s] at page %d of %d: %v", e.Stage, e.Checkpoint, e.TotalPages, e.Err)
	}
	return fmt.Sprintf("sync error [%s]: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError.
func NewSyncError(stage string, checkpoint, totalPages int, err error) *SyncError {
	return &SyncError{
		Stage:      stage,
		Checkpoint: checkpoint,
		TotalPages: totalPages,
		Err:        err,
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
