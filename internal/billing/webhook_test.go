package billing

import (
	"log/slog"
	"testing"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/mchalk/repset/internal/model"
)

func TestMembershipStatusMapping(t *testing.T) {
	tests := []struct {
		stripe stripe.SubscriptionStatus
		want   string
	}{
		{stripe.SubscriptionStatusActive, model.MembershipActive},
		{stripe.SubscriptionStatusTrialing, model.MembershipActive},
		{stripe.SubscriptionStatusPastDue, model.MembershipPaused},
		{stripe.SubscriptionStatusUnpaid, model.MembershipPaused},
		{stripe.SubscriptionStatusPaused, model.MembershipPaused},
		{stripe.SubscriptionStatusCanceled, model.MembershipCancelled},
		{stripe.SubscriptionStatusIncompleteExpired, model.MembershipCancelled},
	}

	for _, tt := range tests {
		if got := membershipStatus(tt.stripe); got != tt.want {
			t.Errorf("membershipStatus(%s) = %s, want %s", tt.stripe, got, tt.want)
		}
	}
}

func TestMembershipTier(t *testing.T) {
	h := NewWebhookHandler(nil, "whsec", "price_premium", slog.New(slog.DiscardHandler))

	premium := &stripe.Subscription{
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{Price: &stripe.Price{ID: "price_premium"}},
			},
		},
	}
	if got := h.membershipTier(premium); got != model.TierPremium {
		t.Errorf("premium price should map to premium tier, got %s", got)
	}

	basic := &stripe.Subscription{
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{Price: &stripe.Price{ID: "price_other"}},
			},
		},
	}
	if got := h.membershipTier(basic); got != model.TierBasic {
		t.Errorf("unknown price should map to basic tier, got %s", got)
	}

	if got := h.membershipTier(&stripe.Subscription{}); got != model.TierBasic {
		t.Errorf("missing items should map to basic tier, got %s", got)
	}
}
