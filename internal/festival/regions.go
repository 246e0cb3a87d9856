/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package festival

import "strings"

// RegionAll matches every region.
const RegionAll = "ALL"

var regionStates = map[string][]string{
	"ALL": {"All States"},
	"TN":  {"Tamil Nadu"},
	"KL":  {"Kerala"},
	"KA":  {"Karnataka"},
	"AP":  {"Andhra Pradesh", "Telangana"},
	"TS":  {"Telangana"},
	"MH":  {"Maharashtra"},
	"GJ":  {"Gujarat"},
	"RJ":  {"Rajasthan"},
	"UP":  {"Uttar Pradesh"},
	"MP":  {"Madhya Pradesh"},
	"WB":  {"West Bengal"},
	"OR":  {"Odisha"},
	"AS":  {"Assam"},
	"PB":  {"Punjab"},
	"HR":  {"Haryana"},
	"DL":  {"Delhi"},
	"JK":  {"Jammu and Kashmir"},
	"HP":  {"Himachal Pradesh"},
	"UK":  {"Uttarakhand"},
	"BR":  {"Bihar"},
	"JH":  {"Jharkhand"},
	"CT":  {"Chhattisgarh"},
	"GA":  {"Goa"},
	"MN":  {"Manipur"},
	"MZ":  {"Mizoram"},
	"NL":  {"Nagaland"},
	"TR":  {"Tripura"},
	"SK":  {"Sikkim"},
	"AR":  {"Arunachal Pradesh"},
	"ML":  {"Meghalaya"},
	"CH":  {"Chandigarh"},
}

// NormalizeRegion uppercases a region code. Empty means ALL.
func NormalizeRegion(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return RegionAll
	}
	return region
}

// KnownRegion reports whether the code is in the catalogue.
func KnownRegion(region string) bool {
	_, ok := regionStates[NormalizeRegion(region)]
	return ok
}

// StatesFor returns the state names covered by a region code. Unknown codes
// map to themselves.
func StatesFor(region string) []string {
	region = NormalizeRegion(region)
	if states, ok := regionStates[region]; ok {
		return append([]string(nil), states...)
	}
	return []string{region}
}

// RegionForState returns the region code whose primary state is state, or
// ALL.
func RegionForState(state string) string {
	for _, code := range regionCodesByState {
		if strings.EqualFold(regionStates[code][0], state) {
			return code
		}
	}
	return RegionAll
}

// Codes looked up by their first state, in catalogue order.
var regionCodesByState = []string{
	"TN", "KL", "KA", "AP", "TS", "MH", "GJ", "RJ", "UP", "MP", "WB", "OR", "AS",
	"PB", "HR", "DL", "JK", "HP", "UK", "BR", "JH", "CT", "GA", "MN", "MZ",
	"NL", "TR", "SK", "AR", "ML", "CH",
}

// RegionMatches reports whether a rule region applies to a query region: a
// rule for ALL applies everywhere, a query for ALL sees every rule, and
// otherwise the codes must be equal.
func RegionMatches(ruleRegion, queryRegion string) bool {
	ruleRegion = NormalizeRegion(ruleRegion)
	queryRegion = NormalizeRegion(queryRegion)
	return ruleRegion == RegionAll || queryRegion == RegionAll || ruleRegion == queryRegion
}
