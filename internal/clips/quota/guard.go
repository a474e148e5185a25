// Package quota gates job admission against subscription plan limits.
package quota

import (
	"fmt"

	"github.com/binhocut/clipforge/internal/clips/models"
)

// Decision is the outcome of an admission check. Cause carries the
// sentinel for a denial so callers can map it with errors.Is.
type Decision struct {
	Allowed bool
	Reason  string
	Cause   error
}

// Admit checks whether a user may start a new job. Checks run in order:
// monthly job count, source duration (when known, pass <= 0 to skip),
// subscription standing. The first failing check wins. Admit never mutates
// state and is safe to call repeatedly.
func Admit(u *models.User, durationSec float64) (Decision, error) {
	if u == nil {
		return Decision{}, models.ErrInvalidArgument
	}

	limits := u.Plan.Limits()

	if limits.VideosPerMonth != models.Unlimited && u.VideosThisMonth >= limits.VideosPerMonth {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("monthly limit reached (%d videos)", limits.VideosPerMonth),
			Cause:   models.ErrQuotaExceeded,
		}, nil
	}

	if durationSec > 0 && limits.MaxDurationSec != models.Unlimited && durationSec > float64(limits.MaxDurationSec) {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("video too long (max %ds for %s plan)", limits.MaxDurationSec, u.Plan),
			Cause:   models.ErrDurationLimit,
		}, nil
	}

	switch u.SubscriptionStatus {
	case models.SubscriptionActive, models.SubscriptionTrialing:
	default:
		return Decision{Allowed: false, Reason: "subscription inactive", Cause: models.ErrSubscriptionInactive}, nil
	}

	return Decision{Allowed: true, Reason: "OK"}, nil
}

// MaxClips bounds a requested clip count by the plan limit and the
// absolute [1,10] range.
func MaxClips(plan models.Plan, requested int) int {
	n := requested
	if n < 1 {
		n = 1
	}
	if n > models.MaxClipsAbsolute {
		n = models.MaxClipsAbsolute
	}
	if limit := plan.Limits().MaxClipsPerVideo; limit != models.Unlimited && n > limit {
		n = limit
	}
	return n
}
