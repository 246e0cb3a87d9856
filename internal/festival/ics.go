/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package festival

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// icsNamespace derives stable event UIDs from date, name and regions.
var icsNamespace = uuid.MustParse("6f1c1f4e-2a53-4d71-9a57-6c2f0c9e8b10")

// ICSOptions labels an exported calendar.
type ICSOptions struct {
	Name      string
	ProductID string
	Stamp     time.Time // DTSTAMP for every event; zero means now
}

// ICS renders festival days as an iCalendar feed of all-day events.
func ICS(days []Day, opts ICSOptions) string {
	if opts.ProductID == "" {
		opts.ProductID = "-//Friends Incode//panchangd//EN"
	}
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now().UTC()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(opts.ProductID)
	if opts.Name != "" {
		cal.SetName(opts.Name)
		cal.SetXWRCalName(opts.Name)
	}

	for _, d := range days {
		start := d.Date.In(time.UTC)
		uid := uuid.NewSHA1(icsNamespace, []byte(d.Date.String()+"|"+d.Name+"|"+strings.Join(d.Regions, ","))).String()

		ev := cal.AddEvent(uid + "@panchangd")
		ev.SetDtStampTime(opts.Stamp)
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
		ev.SetSummary(d.Name)
		ev.SetDescription(describe(d))
		ev.AddProperty(ics.ComponentPropertyCategories, string(d.Type))
		if d.PublicHoliday {
			ev.AddProperty(ics.ComponentPropertyCategories, "public_holiday")
		}
	}
	return cal.Serialize()
}

func describe(d Day) string {
	var b strings.Builder
	b.WriteString(d.Description)
	if d.LunarDate != "" {
		fmt.Fprintf(&b, " (%s)", d.LunarDate)
	}
	fmt.Fprintf(&b, ". Importance: %s. Observed at %s.", d.Importance, d.Observance)
	return b.String()
}
