/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package panchangam

import (
	"fmt"

	"github.com/friendsincode/panchangam/internal/astro"
)

// InputValidationError rejects a request before any computation runs.
type InputValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// AstronomicalComputationError reports ephemeris coverage gaps and dates
// without a sunrise or sunset.
type AstronomicalComputationError = astro.ComputationError

func invalid(field, value, reason string) error {
	return &InputValidationError{Field: field, Value: value, Reason: reason}
}
