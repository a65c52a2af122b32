package evidence

import (
	"fmt"
	"time"
)

// BranchName derives the evidence branch for one submission. Resolution is
// one second; two submissions for the same employee within the same second
// collide at branch creation and the later one fails.
func BranchName(employeeID string, now time.Time) string {
	date, clock := timestampParts(now)
	return fmt.Sprintf("evidencia/%s/%s-%s", SanitizeSegment(employeeID), date, clock)
}

func timestampParts(now time.Time) (date, clock string) {
	return now.Format("2006-01-02"), now.Format("150405")
}
