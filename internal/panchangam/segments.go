/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package panchangam

import "time"

// Split partitions [start, end) into n contiguous intervals. Boundary i is
// start + floor(i*(end-start)/n) in integer nanoseconds, so the parts tile
// the span exactly and the last part ends at end. Sunrise and sunset are
// whole seconds, which makes daylight eighths exactly equal.
func Split(start, end time.Time, n int) []Interval {
	total := int64(end.Sub(start))
	out := make([]Interval, n)
	prev := start
	for i := 1; i <= n; i++ {
		next := start.Add(time.Duration(total * int64(i) / int64(n)))
		out[i-1] = NewInterval(prev, next)
		prev = next
	}
	return out
}

func horas(parts []Interval, lord, firstIndex int) []Hora {
	out := make([]Hora, len(parts))
	for i, p := range parts {
		out[i] = Hora{
			Index:    firstIndex + i,
			Planet:   horaOrder[(lord+i)%len(horaOrder)],
			Interval: p,
		}
	}
	return out
}

func gowri(parts []Interval, weekday time.Weekday) Gowri {
	g := Gowri{Segments: make([]GowriSegment, len(parts))}
	offset := gowriOffset[weekday]
	for i, p := range parts {
		name := gowriNames[(offset+i)%len(gowriNames)]
		g.Segments[i] = GowriSegment{Name: name, Auspicious: gowriAuspicious[name], Interval: p}
	}
	for _, name := range gowriNames {
		if gowriAuspicious[name] {
			g.Auspicious = append(g.Auspicious, name)
		} else {
			g.Inauspicious = append(g.Inauspicious, name)
		}
	}
	return g
}
