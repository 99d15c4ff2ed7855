package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mchalk/repset/internal/model"
	"github.com/mchalk/repset/internal/store"
	"github.com/mchalk/repset/internal/websocket"
)

type MemberHandler struct {
	memberStore   *store.MemberStore
	activityStore *store.ActivityStore
	campaignStore *store.CampaignStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewMemberHandler(ms *store.MemberStore, as *store.ActivityStore, cs *store.CampaignStore, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{memberStore: ms, activityStore: as, campaignStore: cs, hub: hub, logger: logger}
}

func (h *MemberHandler) broadcast(ev websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(ev)
	}
}

type memberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Tier  string `json:"tier"`
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and email are required"})
		return
	}
	if req.Tier == "" {
		req.Tier = model.TierBasic
	}
	if req.Tier != model.TierBasic && req.Tier != model.TierPremium {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tier"})
		return
	}

	existing, err := h.memberStore.GetByEmail(req.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check email"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
		return
	}

	member, err := h.memberStore.Create(req.Name, req.Email, req.Tier)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create member"})
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		members []model.Member
		err     error
	)
	if r.URL.Query().Get("status") == model.MembershipActive {
		members, err = h.memberStore.ListActive()
	} else {
		members, err = h.memberStore.List()
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list members"})
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, ok := h.lookupMember(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	member, ok := h.lookupMember(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and email are required"})
		return
	}

	updated, err := h.memberStore.Update(member.ID, req.Name, req.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update member"})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	member, ok := h.lookupMember(w, r)
	if !ok {
		return
	}

	if err := h.memberStore.Delete(member.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete member"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckIn records a gym visit. A visit from a member with outstanding
// re-engagement campaigns converts all of them.
func (h *MemberHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	member, ok := h.lookupMember(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	checkIn, err := h.activityStore.RecordCheckIn(member.ID, now)
	if err != nil {
		h.logger.Error("record check-in", "member_id", member.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record check-in"})
		return
	}

	if err := h.campaignStore.MarkConverted(member.ID, now); err != nil {
		h.logger.Error("mark campaigns converted", "member_id", member.ID, "error", err)
	}

	h.broadcast(websocket.NewEvent(websocket.KindCheckIn, member.ID, nil))

	writeJSON(w, http.StatusCreated, checkIn)
}

type workoutRequest struct {
	Status string `json:"status"`
}

func (h *MemberHandler) LogWorkout(w http.ResponseWriter, r *http.Request) {
	member, ok := h.lookupMember(w, r)
	if !ok {
		return
	}

	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Status != model.WorkoutCompleted && req.Status != model.WorkoutSkipped {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be completed or skipped"})
		return
	}

	log, err := h.activityStore.RecordWorkout(member.ID, req.Status, time.Now().UTC())
	if err != nil {
		h.logger.Error("record workout", "member_id", member.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record workout"})
		return
	}

	writeJSON(w, http.StatusCreated, log)
}

// lookupMember resolves the {id} path parameter, writing the error response
// itself when the member cannot be found.
func (h *MemberHandler) lookupMember(w http.ResponseWriter, r *http.Request) (*model.Member, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil, false
	}

	member, err := h.memberStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get member"})
		return nil, false
	}
	if member == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "member not found"})
		return nil, false
	}
	return member, true
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
