// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"github.com/dustin/go-humanize"
)

// formatCell renders a value for display. It never changes the value.
func formatCell(v Value, nullText string, truncateAt int) string {
	switch v.Kind {
	case Null:
		return nullText
	case Blob:
		return "(BLOB " + humanize.Bytes(uint64(len(v.Blob))) + ")"
	}
	return truncate(v.String(), truncateAt)
}

// truncate shortens s to at most n runes, marking the cut with "...".
// n <= 0 disables truncation.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
