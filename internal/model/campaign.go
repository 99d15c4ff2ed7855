package model

import "time"

// CampaignTier is a stage of the re-engagement campaign. Tiers escalate
// with inactivity and never regress.
type CampaignTier string

const (
	TierNone          CampaignTier = ""
	TierWeMissYou     CampaignTier = "we_miss_you"
	TierComeBack      CampaignTier = "come_back"
	TierSpecialReturn CampaignTier = "special_return"
)

// Severity orders tiers for escalation comparison. Higher is more severe.
func (t CampaignTier) Severity() int {
	switch t {
	case TierWeMissYou:
		return 1
	case TierComeBack:
		return 2
	case TierSpecialReturn:
		return 3
	default:
		return 0
	}
}

// Valid reports whether t is one of the three concrete tiers.
func (t CampaignTier) Valid() bool {
	return t.Severity() > 0
}

// CampaignRecord tracks one (member, tier) intervention. Open, click, and
// convert timestamps are monotonic: first occurrence wins.
type CampaignRecord struct {
	ID           int64        `json:"id"`
	MemberID     int64        `json:"member_id"`
	Tier         CampaignTier `json:"tier"`
	DaysInactive int          `json:"days_inactive"`
	SentAt       time.Time    `json:"sent_at"`
	OpenedAt     *time.Time   `json:"opened_at,omitempty"`
	ClickedAt    *time.Time   `json:"clicked_at,omitempty"`
	ConvertedAt  *time.Time   `json:"converted_at,omitempty"`
}
