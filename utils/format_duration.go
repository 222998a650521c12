package utils

import (
	"fmt"
	"time"
)

// FormatDuration renders an elapsed scan time. Sub-second times keep one
// decimal of milliseconds; longer ones are rounded to what a person reads.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
