package bell

import (
	"fmt"
	"time"
)

// FormatTimeAgo renders how long before now t happened, at the coarsest unit
// that fits. Times in the future read as "Just now".
func FormatTimeAgo(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

// Badge is the unread counter shown on the bell. Zero renders as an empty string.
func Badge(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > 9:
		return "9+"
	default:
		return fmt.Sprintf("%d", unread)
	}
}
