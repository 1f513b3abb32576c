package documents

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("documents: not found")
	// ErrInvalidInstallments is returned for a negative installment count.
	ErrInvalidInstallments = errors.New("documents: negative installment count")
	// ErrNilRecord is returned when a provider yields no record.
	ErrNilRecord = errors.New("documents: nil record")
)

// NotFoundError reports an id lookup miss.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("documents: %s %q not found", e.Entity, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFound builds a NotFoundError.
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// MissingRelatedDataError reports related rows a render cannot go without.
type MissingRelatedDataError struct {
	Entity  string
	ID      string
	Missing []string
}

func (e *MissingRelatedDataError) Error() string {
	return fmt.Sprintf("documents: %s %q is missing %s", e.Entity, e.ID, strings.Join(e.Missing, ", "))
}

// BindingViolation is one placeholder problem found in a template.
type BindingViolation struct {
	Part   string `json:"part"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v BindingViolation) String() string {
	if v.Part == "" {
		return v.Field + ": " + v.Reason
	}
	return v.Part + ": " + v.Field + ": " + v.Reason
}

// TemplateBindingError reports a template that cannot be bound to a field set.
type TemplateBindingError struct {
	Violations []BindingViolation
	Err        error
}

func (e *TemplateBindingError) Error() string {
	var b strings.Builder
	b.WriteString("documents: template binding failed")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	for i, v := range e.Violations {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(v.String())
	}
	return b.String()
}

func (e *TemplateBindingError) Unwrap() error { return e.Err }

// ConversionServiceError reports a failure of the remote converter.
type ConversionServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ConversionServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("documents: conversion %s failed with http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("documents: conversion %s failed: %v", e.Op, e.Err)
}

func (e *ConversionServiceError) Unwrap() error { return e.Err }
