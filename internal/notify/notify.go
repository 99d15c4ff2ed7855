// Package notify delivers campaign messages to members. The retention
// engine decides what to send; this package only attempts delivery and
// reports success or failure. It never retries; that is the transport's
// concern.
package notify

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mchalk/repset/internal/model"
	"github.com/mchalk/repset/internal/store"
)

// Message is a fully rendered campaign notification.
type Message struct {
	Subject      string
	Body         string
	ClickURL     string
	OpenPixelURL string
	Tag          string
}

// Dispatcher fans a message out to a member's configured channels: web push
// to every registered device, and email. Delivery succeeds if at least one
// channel accepts the message.
type Dispatcher struct {
	push      *PushService
	pushStore *store.PushStore
	email     *EmailClient
	logger    *slog.Logger
}

func NewDispatcher(push *PushService, pushStore *store.PushStore, email *EmailClient, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{push: push, pushStore: pushStore, email: email, logger: logger}
}

// Send delivers the message to the member. Expired push subscriptions are
// pruned as they are discovered.
func (d *Dispatcher) Send(member *model.Member, msg Message) error {
	delivered := 0

	if d.push != nil {
		subs, err := d.pushStore.ListByMember(member.ID)
		if err != nil {
			d.logger.Error("list push subscriptions", "member_id", member.ID, "error", err)
		}
		payload := PushPayload{Title: msg.Subject, Body: msg.Body, URL: msg.ClickURL, Tag: msg.Tag}
		for i := range subs {
			if err := d.push.Send(&subs[i], payload); err != nil {
				if errors.Is(err, ErrExpired) {
					d.pushStore.DeleteByEndpoint(subs[i].Endpoint)
				} else {
					d.logger.Warn("push delivery failed", "member_id", member.ID, "error", err)
				}
				continue
			}
			delivered++
		}
	}

	if d.email != nil && d.email.Configured() && member.Email != "" {
		if err := d.email.SendCampaign(member.Email, msg.Subject, msg.Body, msg.ClickURL, msg.OpenPixelURL); err != nil {
			d.logger.Warn("email delivery failed", "member_id", member.ID, "error", err)
		} else {
			delivered++
		}
	}

	if delivered == 0 {
		return fmt.Errorf("no channel delivered message to member %d", member.ID)
	}
	return nil
}
