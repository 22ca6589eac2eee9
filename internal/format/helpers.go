package format

import (
	"fmt"
	"time"
)

// FmtMoney formats an amount with a K/M suffix for readability.
func FmtMoney(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000.0)
	case v >= 1000:
		return fmt.Sprintf("%.1fK", v/1000.0)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// FmtPercent formats a fraction in [0,1] as a percentage.
func FmtPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FmtPValue formats a p-value, collapsing very small values to a bound.
func FmtPValue(p float64) string {
	if p < 0.0001 {
		return "<0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}

// FmtDay formats a 1-based day index; zero means the milestone was never
// reached within the horizon.
func FmtDay(day int) string {
	if day <= 0 {
		return "never"
	}
	return fmt.Sprintf("d%d", day)
}

// FmtDuration formats a duration as "Xm Ys" or "Ys".
func FmtDuration(d time.Duration) string {
	s := int(d.Seconds())
	if s >= 60 {
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	}
	return fmt.Sprintf("%ds", s)
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}
