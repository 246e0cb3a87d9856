/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package astro

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfCoverage is returned for instants outside the supported years.
	ErrOutOfCoverage = errors.New("instant outside ephemeris coverage")

	// ErrNoSunEvent is returned when the sun does not rise or set on a date.
	ErrNoSunEvent = errors.New("no sunrise or sunset")
)

// ComputationError reports a failed astronomical computation.
type ComputationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ComputationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("astro %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("astro %s: %s: %v", e.Op, e.Reason, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
