package model

import "time"

// Membership status values, kept in sync by the billing webhook.
const (
	MembershipActive    = "active"
	MembershipPaused    = "paused"
	MembershipCancelled = "cancelled"
)

// Membership tiers.
const (
	TierBasic   = "basic"
	TierPremium = "premium"
)

type Member struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	MembershipStatus string    `json:"membership_status"`
	MembershipTier   string    `json:"membership_tier"`
	StripeCustomerID string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasActiveMembership reports whether the member currently holds an active
// membership.
func (m *Member) HasActiveMembership() bool {
	return m.MembershipStatus == MembershipActive
}
