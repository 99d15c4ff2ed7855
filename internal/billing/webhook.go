// Package billing keeps membership status in sync with Stripe. Checkout,
// invoicing, and dunning all live in Stripe; the gym platform only mirrors
// the resulting subscription state onto members.
package billing

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/mchalk/repset/internal/model"
	"github.com/mchalk/repset/internal/store"
)

const maxWebhookBody = 65536

type WebhookHandler struct {
	memberStore    *store.MemberStore
	webhookSecret  string
	premiumPriceID string
	logger         *slog.Logger
}

func NewWebhookHandler(ms *store.MemberStore, webhookSecret, premiumPriceID string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		memberStore:    ms,
		webhookSecret:  webhookSecret,
		premiumPriceID: premiumPriceID,
		logger:         logger,
	}
}

// HandleWebhook processes Stripe events. Unhandled event types are
// acknowledged with 200 so Stripe stops retrying them.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(event)
	case "customer.subscription.created", "customer.subscription.updated":
		h.handleSubscriptionChanged(event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(event)
	}

	w.WriteHeader(http.StatusOK)
}

// handleCheckoutCompleted links the Stripe customer to the member record.
// Members sign up at the front desk first, so the email should already
// exist; a missing member is logged and skipped, never an error to Stripe.
func (h *WebhookHandler) handleCheckoutCompleted(event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("unmarshal checkout session", "error", err)
		return
	}

	if sess.CustomerDetails == nil || sess.Customer == nil {
		h.logger.Warn("checkout session missing customer details")
		return
	}
	email := strings.ToLower(sess.CustomerDetails.Email)

	member, err := h.memberStore.GetByEmail(email)
	if err != nil {
		h.logger.Error("lookup member by email", "error", err)
		return
	}
	if member == nil {
		h.logger.Warn("checkout completed for unknown member", "email", email)
		return
	}

	if err := h.memberStore.LinkStripeCustomer(member.ID, sess.Customer.ID); err != nil {
		h.logger.Error("link stripe customer", "member_id", member.ID, "error", err)
		return
	}

	h.logger.Info("linked stripe customer", "member_id", member.ID)
}

func (h *WebhookHandler) handleSubscriptionChanged(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("unmarshal subscription", "error", err)
		return
	}

	member := h.memberForSubscription(&sub)
	if member == nil {
		return
	}

	status := membershipStatus(sub.Status)
	tier := h.membershipTier(&sub)
	if err := h.memberStore.SetMembership(member.ID, status, tier); err != nil {
		h.logger.Error("set membership", "member_id", member.ID, "error", err)
		return
	}

	h.logger.Info("membership synced", "member_id", member.ID, "status", status, "tier", tier)
}

func (h *WebhookHandler) handleSubscriptionDeleted(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("unmarshal subscription", "error", err)
		return
	}

	member := h.memberForSubscription(&sub)
	if member == nil {
		return
	}

	if err := h.memberStore.SetMembership(member.ID, model.MembershipCancelled, member.MembershipTier); err != nil {
		h.logger.Error("set membership cancelled", "member_id", member.ID, "error", err)
		return
	}

	h.logger.Info("membership cancelled", "member_id", member.ID)
}

func (h *WebhookHandler) memberForSubscription(sub *stripe.Subscription) *model.Member {
	if sub.Customer == nil {
		return nil
	}
	member, err := h.memberStore.GetByStripeCustomer(sub.Customer.ID)
	if err != nil {
		h.logger.Error("lookup member by stripe customer", "error", err)
		return nil
	}
	if member == nil {
		h.logger.Warn("subscription event for unlinked customer", "customer_id", sub.Customer.ID)
	}
	return member
}

// membershipStatus collapses Stripe's subscription lifecycle onto the three
// membership states the retention engine cares about.
func membershipStatus(s stripe.SubscriptionStatus) string {
	switch s {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return model.MembershipActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusPaused:
		return model.MembershipPaused
	default:
		return model.MembershipCancelled
	}
}

func (h *WebhookHandler) membershipTier(sub *stripe.Subscription) string {
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item.Price != nil && item.Price.ID == h.premiumPriceID {
				return model.TierPremium
			}
		}
	}
	return model.TierBasic
}
