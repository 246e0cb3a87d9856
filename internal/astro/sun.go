/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package astro

import (
	"math"
	"time"
)

// sunApparentLongitude returns the apparent tropical longitude of the sun
// (Meeus 25.2-25.8), aberration and nutation included.
func sunApparentLongitude(T float64) float64 {
	L0 := 280.46646 + 36000.76983*T + 0.0003032*T*T
	M := rad(357.52911 + 35999.05029*T - 0.0001537*T*T)
	C := (1.914602-0.004817*T-0.000014*T*T)*math.Sin(M) +
		(0.019993-0.000101*T)*math.Sin(2*M) +
		0.000289*math.Sin(3*M)
	omega := rad(125.04 - 1934.136*T)
	return normalize(L0 + C - 0.00569 - 0.00478*math.Sin(omega))
}

// sunEquatorial returns apparent right ascension and declination in degrees.
func sunEquatorial(t time.Time) (ra, dec float64) {
	T := centuriesTT(t)
	lambda := rad(sunApparentLongitude(T))
	omega := rad(125.04 - 1934.136*T)
	eps := rad(23.439291 - 0.0130042*T + 0.00256*math.Cos(omega))

	ra = normalize(deg(math.Atan2(math.Cos(eps)*math.Sin(lambda), math.Cos(lambda))))
	dec = deg(math.Asin(math.Sin(eps) * math.Sin(lambda)))
	return ra, dec
}

// siderealTime returns Greenwich mean sidereal time in degrees.
func siderealTime(t time.Time) float64 {
	jd := julianDayUT(t)
	T := (jd - 2451545.0) / 36525
	return normalize(280.46061837 + 360.98564736629*(jd-2451545.0) + 0.000387933*T*T - T*T*T/38710000)
}
