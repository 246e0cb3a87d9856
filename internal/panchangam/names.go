/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package panchangam

import (
	"strings"
	"time"
)

var tithiNames = [15]string{
	"Pratipada", "Dvitiya", "Tritiya", "Chaturthi", "Panchami",
	"Shashthi", "Saptami", "Ashtami", "Navami", "Dashami",
	"Ekadashi", "Dvadashi", "Trayodashi", "Chaturdashi", "Purnima",
}

var nakshatraNames = [27]string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira", "Ardra",
	"Punarvasu", "Pushya", "Ashlesha", "Magha", "Purva Phalguni",
	"Uttara Phalguni", "Hasta", "Chitra", "Swati", "Vishakha", "Anuradha",
	"Jyeshtha", "Mula", "Purva Ashadha", "Uttara Ashadha", "Shravana",
	"Dhanishta", "Shatabhisha", "Purva Bhadrapada", "Uttara Bhadrapada", "Revati",
}

var yogaNames = [27]string{
	"Vishkambha", "Preeti", "Ayushman", "Saubhagya", "Shobhana", "Atiganda",
	"Sukarma", "Dhriti", "Shoola", "Ganda", "Vriddhi", "Dhruva", "Vyaghata",
	"Harshana", "Vajra", "Siddhi", "Vyatipata", "Variyan", "Parigha", "Shiva",
	"Siddha", "Sadhya", "Shubha", "Shukla", "Brahma", "Indra", "Vaidhriti",
}

// movableKaranas repeat eight times between the fixed karanas.
var movableKaranas = [7]string{"Bava", "Balava", "Kaulava", "Taitila", "Garaja", "Vanija", "Vishti"}

// KaranaNames lists every distinct karana name.
var KaranaNames = []string{
	"Bava", "Balava", "Kaulava", "Taitila", "Garaja", "Vanija", "Vishti",
	"Shakuni", "Chatushpada", "Naga", "Kimstughna",
}

// karanaName maps a half-tithi slot in [0,60) to its name. Slot 0 is the
// first half of Shukla Pratipada.
func karanaName(slot int) string {
	switch slot {
	case 0:
		return "Kimstughna"
	case 57:
		return "Shakuni"
	case 58:
		return "Chatushpada"
	case 59:
		return "Naga"
	default:
		return movableKaranas[(slot-1)%7]
	}
}

// IsKaranaName reports whether name is a karana, ignoring case.
func IsKaranaName(name string) bool {
	for _, k := range KaranaNames {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// Planet names in Chaldean hora order.
var horaOrder = [7]string{"Sun", "Venus", "Mercury", "Moon", "Saturn", "Jupiter", "Mars"}

// weekdayLord is the index into horaOrder of each weekday's ruler.
var weekdayLord = [7]int{
	time.Sunday:    0,
	time.Monday:    3,
	time.Tuesday:   6,
	time.Wednesday: 2,
	time.Thursday:  5,
	time.Friday:    1,
	time.Saturday:  4,
}

// Gowri segment names in cycle order.
var gowriNames = [8]string{"amrutha", "siddha", "marana", "rogam", "laabha", "dhanam", "sugam", "kantaka"}

var gowriAuspicious = map[string]bool{
	"amrutha": true,
	"siddha":  true,
	"laabha":  true,
	"dhanam":  true,
	"sugam":   true,
}

// gowriOffset is the cycle position of each weekday's first daytime segment.
var gowriOffset = [7]int{
	time.Sunday:    1,
	time.Monday:    0,
	time.Tuesday:   3,
	time.Wednesday: 4,
	time.Thursday:  5,
	time.Friday:    6,
	time.Saturday:  2,
}

// GowriNames returns the eight segment names in cycle order.
func GowriNames() []string {
	return append([]string(nil), gowriNames[:]...)
}

// IsGowriAuspicious reports the static classification of a segment name.
func IsGowriAuspicious(name string) bool {
	return gowriAuspicious[name]
}

// Daylight eighths (0-based) for each weekday.
var (
	rahuSegment    = [7]int{time.Sunday: 7, time.Monday: 1, time.Tuesday: 6, time.Wednesday: 4, time.Thursday: 5, time.Friday: 3, time.Saturday: 2}
	yamaSegment    = [7]int{time.Sunday: 4, time.Monday: 3, time.Tuesday: 2, time.Wednesday: 1, time.Thursday: 0, time.Friday: 6, time.Saturday: 5}
	gulikaiSegment = [7]int{time.Sunday: 6, time.Monday: 5, time.Tuesday: 4, time.Wednesday: 3, time.Thursday: 2, time.Friday: 1, time.Saturday: 0}
)

// WeekdayName returns the lowercase English weekday name.
func WeekdayName(w time.Weekday) string {
	return strings.ToLower(w.String())
}
