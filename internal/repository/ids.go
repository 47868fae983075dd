package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// nextEventID returns "A" + the smallest positive integer whose id is not
// already in use, zero-padded to the configured width. Ids that do not fit
// the "A<number>" shape are ignored when collecting used numbers.
func nextEventID(existing []string, padding int) string {
	used := make(map[int]bool, len(existing))
	for _, id := range existing {
		rest, ok := strings.CutPrefix(id, "A")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			continue
		}
		used[n] = true
	}
	n := 1
	for used[n] {
		n++
	}
	return fmt.Sprintf("A%0*d", padding, n)
}
