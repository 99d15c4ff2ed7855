package campaign

import (
	"fmt"

	"github.com/mchalk/repset/internal/model"
)

// Content is the tier-specific message handed to the outbound notifier.
type Content struct {
	Subject string
	Body    string
}

// ContentFor renders the message for a tier, personalized with the member's
// first name.
func ContentFor(tier model.CampaignTier, memberName string) Content {
	switch tier {
	case model.TierWeMissYou:
		return Content{
			Subject: "We miss you at the gym!",
			Body:    fmt.Sprintf("Hi %s, it's been a couple of weeks since your last visit. Your next workout is waiting. Come say hi!", memberName),
		}
	case model.TierComeBack:
		return Content{
			Subject: "Ready for a comeback?",
			Body:    fmt.Sprintf("Hi %s, a month away is a long time. Ease back in with a light session this week. We'll help you pick up where you left off.", memberName),
		}
	case model.TierSpecialReturn:
		return Content{
			Subject: "A special welcome-back offer",
			Body:    fmt.Sprintf("Hi %s, we'd love to see you again. Stop by the front desk on your next visit for a welcome-back offer on us.", memberName),
		}
	default:
		return Content{}
	}
}
