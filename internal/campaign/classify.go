package campaign

import "github.com/mchalk/repset/internal/model"

// Inactivity thresholds, in days, for each campaign tier.
const (
	weMissYouDays     = 14
	comeBackDays      = 30
	specialReturnDays = 90
)

// TierFor maps an inactivity duration to the campaign tier it warrants,
// ignoring history. Below the first threshold no tier applies.
func TierFor(daysInactive int) model.CampaignTier {
	switch {
	case daysInactive >= specialReturnDays:
		return model.TierSpecialReturn
	case daysInactive >= comeBackDays:
		return model.TierComeBack
	case daysInactive >= weMissYouDays:
		return model.TierWeMissYou
	default:
		return model.TierNone
	}
}

// Classify decides whether a member should receive a new intervention.
// It returns the next tier and true only when the warranted tier is
// strictly more severe than the member's current tier, which guards
// against repeat sends at the same severity. Tiers never regress.
func Classify(daysInactive int, current model.CampaignTier) (model.CampaignTier, bool) {
	next := TierFor(daysInactive)
	if next == model.TierNone {
		return model.TierNone, false
	}
	if next.Severity() <= current.Severity() {
		return model.TierNone, false
	}
	return next, true
}
