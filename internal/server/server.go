package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mchalk/repset/internal/backup"
	"github.com/mchalk/repset/internal/billing"
	"github.com/mchalk/repset/internal/config"
	"github.com/mchalk/repset/internal/handler"
	"github.com/mchalk/repset/internal/middleware"
	"github.com/mchalk/repset/internal/notify"
	"github.com/mchalk/repset/internal/retention"
	"github.com/mchalk/repset/internal/store"
	"github.com/mchalk/repset/internal/tracking"
	ws "github.com/mchalk/repset/internal/websocket"
)

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH           *handler.AuthHandler
	memberH         *handler.MemberHandler
	predictionH     *handler.PredictionHandler
	recommendationH *handler.RecommendationHandler
	campaignH       *handler.CampaignHandler
	planH           *handler.PlanHandler
	recipeH         *handler.RecipeHandler
	pushH           *handler.PushHandler
	retentionH      *handler.RetentionHandler
	webhookH        *billing.WebhookHandler

	sessionStore *store.SessionStore
	staffStore   *store.StaffStore
	rateLimiter  *middleware.RateLimiter

	orchestrator  *retention.Orchestrator
	scheduler     *retention.Scheduler
	backupManager *backup.Manager

	logger *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	memberStore := store.NewMemberStore(db)
	activityStore := store.NewActivityStore(db)
	planStore := store.NewPlanStore(db)
	recipeStore := store.NewRecipeStore(db)
	predictionStore := store.NewPredictionStore(db)
	campaignStore := store.NewCampaignStore(db)
	pushStore := store.NewPushStore(db)
	staffStore := store.NewStaffStore(db)
	sessionStore := store.NewSessionStore(db)
	runStore := store.NewRunStore(db)

	var pushSvc *notify.PushService
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = notify.NewPushService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
	}
	emailClient := notify.NewEmailClient(cfg.Email.ServerToken, cfg.Email.FromEmail)
	dispatcher := notify.NewDispatcher(pushSvc, pushStore, emailClient, logger.With("component", "notify"))

	signer := tracking.NewSigner(cfg.Tracking.Secret)

	orchestrator := retention.NewOrchestrator(
		memberStore,
		activityStore,
		predictionStore,
		campaignStore,
		dispatcher,
		signer,
		cfg.Server.BaseURL,
		cfg.Retention.Workers,
		func(e retention.Event) {
			switch e.Type {
			case "campaign_sent":
				hub.Broadcast(ws.NewEvent(ws.KindCampaign, e.MemberID, map[string]any{
					"tier":   e.Tier,
					"action": "sent",
				}))
			case "run_finished":
				hub.Broadcast(ws.NewEvent(ws.KindRun, 0, map[string]any{"stats": e.Stats}))
			}
		},
		logger.With("component", "retention"),
	)

	scheduler := retention.NewScheduler(
		orchestrator,
		runStore,
		cfg.Retention.TickInterval,
		cfg.Retention.RunHour,
		logger.With("component", "scheduler"),
	)

	backupMgr := backup.NewManager(backup.Config{
		Endpoint:      cfg.Backup.Endpoint,
		Bucket:        cfg.Backup.Bucket,
		Region:        cfg.Backup.Region,
		AccessKey:     cfg.Backup.AccessKey,
		SecretKey:     cfg.Backup.SecretKey,
		Interval:      cfg.Backup.Interval,
		RetentionDays: cfg.Backup.RetentionDays,
		DBPath:        cfg.Database.Path,
	}, db, func(s backup.Status) {
		hub.Broadcast(ws.NewEvent(ws.KindBackup, 0, map[string]any{
			"state": string(s.State),
			"error": s.Error,
		}))
	}, logger.With("component", "backup"))

	secureCookie := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	redirectURL := cfg.Server.BaseURL + "/welcome-back"

	var pushH *handler.PushHandler
	if pushSvc != nil {
		pushH = handler.NewPushHandler(memberStore, pushStore, pushSvc, logger.With("component", "push"))
	}

	return &Server{
		db:              db,
		hub:             hub,
		authH:           handler.NewAuthHandler(staffStore, sessionStore, secureCookie, logger.With("component", "auth")),
		memberH:         handler.NewMemberHandler(memberStore, activityStore, campaignStore, hub, logger.With("component", "member")),
		predictionH:     handler.NewPredictionHandler(memberStore, predictionStore, orchestrator, hub, logger.With("component", "prediction")),
		recommendationH: handler.NewRecommendationHandler(memberStore, planStore, recipeStore, logger.With("component", "recommendation")),
		campaignH:       handler.NewCampaignHandler(campaignStore, signer, redirectURL, hub, logger.With("component", "campaign")),
		planH:           handler.NewPlanHandler(memberStore, planStore, logger.With("component", "plan")),
		recipeH:         handler.NewRecipeHandler(recipeStore, logger.With("component", "recipe")),
		pushH:           pushH,
		retentionH:      handler.NewRetentionHandler(orchestrator, runStore, logger.With("component", "retention")),
		webhookH:        billing.NewWebhookHandler(memberStore, cfg.Billing.WebhookSecret, cfg.Billing.PremiumPriceID, logger.With("component", "billing")),
		sessionStore:    sessionStore,
		staffStore:      staffStore,
		rateLimiter:     middleware.NewRateLimiter(),
		orchestrator:    orchestrator,
		scheduler:       scheduler,
		backupManager:   backupMgr,
		logger:          logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// StaffStore returns the staff store for bootstrap tasks.
func (s *Server) StaffStore() *store.StaffStore {
	return s.staffStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Scheduler returns the retention scheduler.
func (s *Server) Scheduler() *retention.Scheduler {
	return s.scheduler
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/login", s.rateLimited("login", 10, s.authH.Login))
	outerMux.HandleFunc("GET /t/o/{token}", s.rateLimited("tracking", 120, s.campaignH.TrackOpen))
	outerMux.HandleFunc("GET /t/c/{token}", s.rateLimited("tracking", 120, s.campaignH.TrackClick))
	outerMux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleWebhook)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Staff routes
	staffMux := http.NewServeMux()
	s.registerStaffRoutes(staffMux)

	authMiddleware := middleware.RequireStaff(s.sessionStore, s.staffStore)
	outerMux.Handle("/api/", authMiddleware(staffMux))
	outerMux.Handle("GET /ws", authMiddleware(ws.Handle(s.hub)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited wraps a public handler with a per-IP fixed-window limit.
func (s *Server) rateLimited(scope string, limit int, h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return scope + ":" + middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, limit, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}

func (s *Server) registerStaffRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Members
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.Handle("DELETE /api/members/{id}", middleware.RequireAdmin(http.HandlerFunc(s.memberH.Delete)))

	// Activity
	mux.HandleFunc("POST /api/members/{id}/checkins", s.memberH.CheckIn)
	mux.HandleFunc("POST /api/members/{id}/workouts", s.memberH.LogWorkout)

	// Predictions
	mux.HandleFunc("GET /api/members/{id}/prediction", s.predictionH.Get)
	mux.HandleFunc("POST /api/members/{id}/prediction/refresh", s.predictionH.Refresh)

	// Recommendations
	mux.HandleFunc("GET /api/members/{id}/recommendations", s.recommendationH.Get)

	// Fitness plans
	mux.HandleFunc("POST /api/members/{id}/plan", s.planH.Create)
	mux.HandleFunc("GET /api/members/{id}/plan", s.planH.GetActive)

	// Campaigns
	mux.HandleFunc("GET /api/members/{id}/campaigns", s.campaignH.ListByMember)

	// Recipes
	mux.HandleFunc("GET /api/recipes", s.recipeH.List)
	mux.HandleFunc("GET /api/recipes/{id}", s.recipeH.Get)
	mux.Handle("POST /api/recipes", middleware.RequireAdmin(http.HandlerFunc(s.recipeH.Create)))

	// Retention runs
	mux.Handle("POST /api/retention/run", middleware.RequireAdmin(http.HandlerFunc(s.retentionH.TriggerRun)))
	mux.HandleFunc("GET /api/retention/last-run", s.retentionH.LastRun)

	// Push subscriptions
	if s.pushH != nil {
		mux.HandleFunc("POST /api/members/{id}/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}
}
