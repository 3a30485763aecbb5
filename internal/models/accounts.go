package models

import (
	"regexp"
	"strings"
)

// VirtualAccountPrefix marks a placeholder cost-account code whose amount must
// be redistributed across real cost accounts by fixed percentage.
const VirtualAccountPrefix = "SPL-"

// costAccountPattern is the two-segment location-department syntax, e.g. "458-50".
var costAccountPattern = regexp.MustCompile(`^\d+-\d+$`)

// IsVirtualAccount reports whether code uses the virtual split naming convention.
func IsVirtualAccount(code string) bool {
	return strings.HasPrefix(code, VirtualAccountPrefix)
}

// IsValidCostAccount reports whether code matches the location-department
// syntax. Virtual split accounts do not match and are checked separately.
func IsValidCostAccount(code string) bool {
	return costAccountPattern.MatchString(code)
}

// LocationKey builds the composite lookup key for a location mapping.
func LocationKey(location, team string) string {
	return strings.TrimSpace(location) + "|" + strings.TrimSpace(team)
}
