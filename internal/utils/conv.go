package utils

import (
	"strconv"
)

// StringToInt converts s to an int, returning def when s is empty or invalid.
func StringToInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
