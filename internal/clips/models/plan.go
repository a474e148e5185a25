package models

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Unlimited is the sentinel for limits that do not apply.
const Unlimited = -1

// PlanLimits caps what one subscription tier may process.
type PlanLimits struct {
	VideosPerMonth   int
	MaxDurationSec   int
	MaxClipsPerVideo int
}

var planLimits = map[Plan]PlanLimits{
	PlanFree: {
		VideosPerMonth:   5,
		MaxDurationSec:   600,
		MaxClipsPerVideo: 3,
	},
	PlanPro: {
		VideosPerMonth:   50,
		MaxDurationSec:   3600,
		MaxClipsPerVideo: 10,
	},
	PlanEnterprise: {
		VideosPerMonth:   Unlimited,
		MaxDurationSec:   Unlimited,
		MaxClipsPerVideo: Unlimited,
	},
}

// Limits returns the caps for a plan. Unknown plans get the free tier,
// which is the most restrictive.
func (p Plan) Limits() PlanLimits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[PlanFree]
}
