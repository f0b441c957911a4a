// Package registry holds the static case-type catalogue and the selectable
// filing-year range for the search form.
package registry

import (
	"strconv"
	"time"
)

// YearSpan is how many filing years, counting back from the current year,
// the portal lets a search target.
const YearSpan = 20

var caseTypes = []string{
	"Writ Petition (Civil)",
	"Writ Petition (Criminal)",
	"Civil Appeal",
	"Criminal Appeal",
	"Civil Suit",
	"Criminal Case",
	"Company Petition",
	"Arbitration Petition",
	"Tax Case",
	"Service Matter",
}

// CaseTypes returns the recognized case categories.
func CaseTypes() []string {
	out := make([]string, len(caseTypes))
	copy(out, caseTypes)
	return out
}

// IsValidCaseType reports whether t is a recognized case category.
func IsValidCaseType(t string) bool {
	for _, ct := range caseTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// Years returns the selectable filing years, most recent first.
func Years() []string {
	current := time.Now().Year()
	years := make([]string, 0, YearSpan)
	for y := current; y > current-YearSpan; y-- {
		years = append(years, strconv.Itoa(y))
	}
	return years
}
