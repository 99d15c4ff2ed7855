package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mchalk/repset/internal/model"
	"github.com/mchalk/repset/internal/store"
	"github.com/mchalk/repset/internal/tracking"
	"github.com/mchalk/repset/internal/websocket"
)

type CampaignHandler struct {
	campaignStore *store.CampaignStore
	signer        *tracking.Signer
	redirectURL   string
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewCampaignHandler(cs *store.CampaignStore, signer *tracking.Signer, redirectURL string, hub *websocket.Hub, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{campaignStore: cs, signer: signer, redirectURL: redirectURL, hub: hub, logger: logger}
}

// ListByMember handles GET /api/members/{id}/campaigns.
func (h *CampaignHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	records, err := h.campaignStore.ListByMember(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list campaigns"})
		return
	}
	if records == nil {
		records = []model.CampaignRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// onePixelGIF is a transparent 1x1 GIF served from the open-tracking URL.
var onePixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// TrackOpen handles GET /t/o/{token}, the pixel embedded in campaign
// email. The pixel is always served, even for bad tokens, so a broken
// tracker never shows up as a broken image.
func (h *CampaignHandler) TrackOpen(w http.ResponseWriter, r *http.Request) {
	if id, err := h.signer.Parse(r.PathValue("token")); err == nil {
		if err := h.campaignStore.MarkOpened(id, time.Now().UTC()); err != nil {
			h.logger.Error("mark campaign opened", "campaign_id", id, "error", err)
		} else {
			h.broadcastEngagement(id, "opened")
		}
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(onePixelGIF)
}

// TrackClick handles GET /t/c/{token} and redirects to the comeback page.
func (h *CampaignHandler) TrackClick(w http.ResponseWriter, r *http.Request) {
	id, err := h.signer.Parse(r.PathValue("token"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	now := time.Now().UTC()
	if err := h.campaignStore.MarkClicked(id, now); err != nil {
		h.logger.Error("mark campaign clicked", "campaign_id", id, "error", err)
	} else {
		h.broadcastEngagement(id, "clicked")
	}
	// A click implies an open even when the pixel was blocked.
	if err := h.campaignStore.MarkOpened(id, now); err != nil {
		h.logger.Error("mark campaign opened", "campaign_id", id, "error", err)
	}

	http.Redirect(w, r, h.redirectURL, http.StatusFound)
}

func (h *CampaignHandler) broadcastEngagement(campaignID int64, action string) {
	if h.hub == nil {
		return
	}
	rec, err := h.campaignStore.GetByID(campaignID)
	if err != nil || rec == nil {
		return
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.KindCampaign, rec.MemberID, map[string]any{
		"tier":   string(rec.Tier),
		"action": action,
	}))
}
