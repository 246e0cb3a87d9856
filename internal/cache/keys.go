/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/friendsincode/panchangam/internal/panchangam"
)

// Default TTLs per data kind.
const (
	DefaultPanchangamTTL = 7 * 24 * time.Hour
	DefaultFestivalTTL   = 30 * 24 * time.Hour
	DefaultMuhurthamTTL  = 7 * 24 * time.Hour
	DefaultSummaryTTL    = 24 * time.Hour
)

// Key namespaces.
const (
	KindPanchangam = "panchangam"
	KindFestivals  = "festivals"
	KindMuhurtham  = "muhurtham"

	// SummaryKey holds the last precompute run summary.
	SummaryKey = "precompute:summary"
)

// PanchangamKey is panchangam:<lat>,<lon>,<tz>:<YYYY-MM-DD>.
func PanchangamKey(loc panchangam.Location, date panchangam.Date) string {
	return KindPanchangam + ":" + loc.Canonical() + ":" + date.String()
}

// FestivalKey is festivals:<lat>,<lon>,<tz>:<REGION>:<YYYY>-<MM>, or
// :<YYYY> for a whole year when month is zero.
func FestivalKey(loc panchangam.Location, region string, year int, month time.Month) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = "ALL"
	}
	period := fmt.Sprintf("%04d", year)
	if month != 0 {
		period = fmt.Sprintf("%04d-%02d", year, int(month))
	}
	return KindFestivals + ":" + loc.Canonical() + ":" + region + ":" + period
}

// MuhurthamKey is muhurtham:<lat>,<lon>,<tz>:<YYYY-MM-DD>:<event_type>.
func MuhurthamKey(loc panchangam.Location, date panchangam.Date, eventType string) string {
	return KindMuhurtham + ":" + loc.Canonical() + ":" + date.String() + ":" + eventType
}
