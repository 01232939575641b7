// Package timeutil provides time formatting utilities for progress output.
package timeutil

import (
	"fmt"
	"time"
)

// FormatSeconds converts seconds to HH:MM:SS.ss format.
//
// Example:
//
//	FormatSeconds(0)      // "00:00:00.00"
//	FormatSeconds(90)     // "00:01:30.00"
//	FormatSeconds(3661)   // "01:01:01.00"
//	FormatSeconds(30.53)  // "00:00:30.53"
func FormatSeconds(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, secs)
}

// FormatDuration formats a duration like FormatSeconds.
func FormatDuration(d time.Duration) string {
	return FormatSeconds(d.Seconds())
}
