package dataset

import "strings"

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(s, lowerSub string) bool {
	return strings.Contains(strings.ToLower(s), lowerSub)
}
