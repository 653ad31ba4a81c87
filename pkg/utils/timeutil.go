package utils

import (
	"fmt"
	"time"
)

// ReportTimeLayout is the human-readable timestamp printed on reports.
const ReportTimeLayout = "Monday, January 02, 2006 03:04 PM"

// FormatReportTime formats t with ReportTimeLayout in t's own location.
func FormatReportTime(t time.Time) string {
	return t.Format(ReportTimeLayout)
}

// FormatDate formats a time.Time as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDateTime formats a time.Time as "2006-01-02 15:04:05 MST".
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05 MST")
}

// ParseDate parses a date string in "2006-01-02" format in the given location.
// A nil location means UTC.
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation("2006-01-02", dateStr, loc)
}

// Ago renders the age of t relative to now: "just now", "5m ago", "3h ago", "2d ago".
func Ago(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
