package timer

import "fmt"

// Tier is a display emphasis level derived from remaining time.
type Tier string

const (
	TierNormal   Tier = "normal"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

// TierFor returns critical at or under five minutes, warning at or under
// ten, normal otherwise.
func TierFor(remaining int) Tier {
	switch {
	case remaining <= 300:
		return TierCritical
	case remaining <= 600:
		return TierWarning
	default:
		return TierNormal
	}
}

// Label is the status line shown above the clock.
func (t Tier) Label() string {
	switch t {
	case TierCritical:
		return "CRITICAL - Less than 5 minutes!"
	case TierWarning:
		return "WARNING - Less than 10 minutes!"
	default:
		return "Time Remaining"
	}
}

// Format renders seconds as H:MM:SS from one hour up, M:SS below.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
