/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
)

// humanReadableSize formats a byte count with SI prefixes for serve logs.
func humanReadableSize(bytes int64) string {
	const unit = 1000

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	value := float64(bytes)
	prefixes := "kMGTPE"

	i := -1
	for value >= unit && i < len(prefixes)-1 {
		value /= unit
		i++
	}

	return fmt.Sprintf("%.1f %cB", value, prefixes[i])
}
