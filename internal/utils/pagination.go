// Package utils provides small helpers with no domain knowledge.
package utils

import "strconv"

// AtoiDefault parses s as an int, falling back to def when s is empty or not
// a number. The pagination handlers use it for the page and page_size query
// parameters, where a garbled value should mean "use the default" rather
// than an error.
//
//	utils.AtoiDefault("3", 1)  // 3
//	utils.AtoiDefault("", 1)   // 1
//	utils.AtoiDefault("x", 20) // 20
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
