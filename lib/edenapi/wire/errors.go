// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"
)

// ConversionErrorKind classifies a failed wire-to-domain conversion.
type ConversionErrorKind int

const (
	// CannotPopulateRequiredField means a field the domain value
	// needs, given the other fields present, is absent on the wire.
	CannotPopulateRequiredField ConversionErrorKind = iota + 1

	// InvalidLength means a fixed-size value (a hash) arrived with
	// the wrong number of bytes.
	InvalidLength

	// UnrecognizedVariant means an enumerated value is outside the
	// set this build understands.
	UnrecognizedVariant

	// InvalidValue means a value is well-typed but out of range.
	InvalidValue
)

func (kind ConversionErrorKind) String() string {
	switch kind {
	case CannotPopulateRequiredField:
		return "cannot populate required field"
	case InvalidLength:
		return "invalid length"
	case UnrecognizedVariant:
		return "unrecognized variant"
	case InvalidValue:
		return "invalid value"
	default:
		return fmt.Sprintf("unknown(%d)", int(kind))
	}
}

// ConversionError reports why a wire value could not be converted to
// its domain form. Field is the dotted path of the offending field
// relative to the value ToAPI was called on, e.g. "content.metadata"
// or "requests[3].location.descendant".
type ConversionError struct {
	Kind   ConversionErrorKind
	Field  string
	Detail string
}

func (e *ConversionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("wire conversion: %s: %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("wire conversion: %s: %s (%s)", e.Kind, e.Field, e.Detail)
}

// MissingField returns the field path if err is a
// CannotPopulateRequiredField conversion error.
func MissingField(err error) (string, bool) {
	var conversion *ConversionError
	if errors.As(err, &conversion) && conversion.Kind == CannotPopulateRequiredField {
		return conversion.Field, true
	}
	return "", false
}

func missingField(field string) *ConversionError {
	return &ConversionError{Kind: CannotPopulateRequiredField, Field: field}
}

func invalidLength(field string, got, want int) *ConversionError {
	return &ConversionError{
		Kind:   InvalidLength,
		Field:  field,
		Detail: fmt.Sprintf("got %d bytes, want %d", got, want),
	}
}

// within re-roots a nested conversion error under the parent field
// name. Errors that are not conversion errors pass through.
func within(parent string, err error) error {
	var conversion *ConversionError
	if !errors.As(err, &conversion) {
		return err
	}
	field := parent
	if conversion.Field != "" {
		if conversion.Field[0] == '[' {
			field = parent + conversion.Field
		} else {
			field = parent + "." + conversion.Field
		}
	}
	return &ConversionError{Kind: conversion.Kind, Field: field, Detail: conversion.Detail}
}
