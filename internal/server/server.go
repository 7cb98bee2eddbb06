package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/hearth/internal/audit"
	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/email"
	"github.com/dukerupert/hearth/internal/handler"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/identity"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/middleware"
	"github.com/dukerupert/hearth/internal/notification"
	"github.com/dukerupert/hearth/internal/push"
	"github.com/dukerupert/hearth/internal/store"
	ws "github.com/dukerupert/hearth/internal/websocket"
)

// rateLimitIdle is how long a rate limit bucket survives without requests.
const rateLimitIdle = 10 * time.Minute

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	billsH       *handler.BillsHandler
	choresH      *handler.ChoresHandler
	shoppingH    *handler.ShoppingHandler
	maintenanceH *handler.MaintenanceHandler
	householdH   *handler.HouseholdHandler
	auditH       *handler.AuditHandler
	notifH       *handler.NotificationHandler
	wsH          *ws.Handler
	notifier     *notification.Service
	verifier     middleware.TokenVerifier
	userStore    *store.UserStore
	resolver     *household.Resolver
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	if err := metrics.RegisterWebsocketClients(hub.ClientCount); err != nil {
		logger.Warn("register websocket metrics", "error", err)
	}

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	pushStore := store.NewPushStore(db)

	var directory identity.Directory = identity.NewStoreDirectory(userStore)
	if cfg.ProfileURL != "" {
		directory = identity.NewClient(cfg.ProfileURL, identity.WithToken(cfg.ProfileToken))
	}

	emailClient := email.NewClient(cfg.PostmarkToken, cfg.FromEmail, cfg.InviteURL)
	if !emailClient.Configured() {
		logger.Info("invite emails disabled: Postmark is not configured")
	}

	// A nil *push.Service must not reach the notifier as a non-nil Pusher.
	var pusher notification.Pusher
	pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber, pushStore, logger.With("component", "push"))
	if pushSvc.Configured() {
		pusher = pushSvc
	} else {
		logger.Info("web push disabled: VAPID keys are not configured")
	}

	notifier := notification.NewService(store.NewNotificationStore(db), pushStore, hub, pusher, logger.With("component", "notification"))
	auditSvc := audit.NewService(store.NewAuditLogStore(db), logger.With("component", "audit"))
	fx := handler.NewEffects(auditSvc, notifier, hub, logger.With("component", "effects"))

	vapidKey := ""
	if pushSvc.Configured() {
		vapidKey = pushSvc.VAPIDPublicKey()
	}

	return &Server{
		db:           db,
		hub:          hub,
		billsH:       handler.NewBillsHandler(store.NewBillStore(db), fx, logger.With("component", "bills")),
		choresH:      handler.NewChoresHandler(store.NewChoreStore(db), fx, logger.With("component", "chores")),
		shoppingH:    handler.NewShoppingHandler(store.NewShoppingStore(db), fx, logger.With("component", "shopping")),
		maintenanceH: handler.NewMaintenanceHandler(store.NewMaintenanceStore(db), fx, logger.With("component", "maintenance")),
		householdH: handler.NewHouseholdHandler(
			household.NewService(householdStore, directory, emailClient, logger.With("component", "household")),
			hub, logger.With("component", "household_handler"),
		),
		auditH:      handler.NewAuditHandler(auditSvc, logger.With("component", "audit_handler")),
		notifH:      handler.NewNotificationHandler(notifier, vapidKey, logger.With("component", "notification_handler")),
		wsH:         ws.NewHandler(hub, cfg.AllowedOrigins, logger.With("component", "websocket")),
		notifier:    notifier,
		verifier:    identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		userStore:   userStore,
		resolver:    household.NewResolver(householdStore, logger.With("component", "resolver")),
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, rateLimitIdle),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Drain waits for background notification delivery to finish or ctx to end.
func (s *Server) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.notifier.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	routes := metrics.Routes{}

	// Public routes (no auth required)
	handle(outerMux, routes, "GET /health", http.HandlerFunc(s.healthHandler))
	outerMux.Handle("GET /metrics", metrics.Handler())

	// Everything else requires an identity token.
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux, routes)

	authMiddleware := middleware.RequireAuth(s.verifier, s.userStore, s.resolver, s.logger.With("component", "auth"))
	outerMux.Handle("/", authMiddleware(protectedMux))

	// Apply metrics and request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(metrics.InstrumentHandler(outerMux, routes))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// limited rate-limits a mutation per identity.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.IdentityKey)(h)
}

// editor gates a mutation on the owner or member role before rate limiting it.
func (s *Server) editor(h http.HandlerFunc) http.Handler {
	return middleware.RequireEditor(s.limited(h))
}

// handle registers h and records its path as a metrics label.
func handle(mux *http.ServeMux, routes metrics.Routes, pattern string, h http.Handler) {
	mux.Handle(pattern, h)
	routes.Add(pattern)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux, routes metrics.Routes) {
	// Bills
	handle(mux, routes, "GET /items/bills", http.HandlerFunc(s.billsH.List))
	handle(mux, routes, "GET /items/bills/count", http.HandlerFunc(s.billsH.Count))
	handle(mux, routes, "GET /items/bills/monthly", http.HandlerFunc(s.billsH.Monthly))
	handle(mux, routes, "POST /items/bills", s.editor(s.billsH.Create))
	handle(mux, routes, "POST /items/bills/update", s.editor(s.billsH.Update))
	handle(mux, routes, "POST /items/bills/delete", s.editor(s.billsH.Delete))
	handle(mux, routes, "POST /items/bills/check", s.editor(s.billsH.Check))

	// Chores
	handle(mux, routes, "GET /items/chores", http.HandlerFunc(s.choresH.List))
	handle(mux, routes, "GET /items/chores/count", http.HandlerFunc(s.choresH.Count))
	handle(mux, routes, "POST /items/chores", s.editor(s.choresH.Create))
	handle(mux, routes, "POST /items/chores/update", s.editor(s.choresH.Update))
	handle(mux, routes, "POST /items/chores/delete", s.editor(s.choresH.Delete))
	handle(mux, routes, "POST /items/chores/check", s.editor(s.choresH.Check))

	// Shopping
	handle(mux, routes, "GET /items/shopping", http.HandlerFunc(s.shoppingH.List))
	handle(mux, routes, "GET /items/shopping/count", http.HandlerFunc(s.shoppingH.Count))
	handle(mux, routes, "POST /items/shopping", s.editor(s.shoppingH.Create))
	handle(mux, routes, "POST /items/shopping/update", s.editor(s.shoppingH.Update))
	handle(mux, routes, "POST /items/shopping/delete", s.editor(s.shoppingH.Delete))
	handle(mux, routes, "POST /items/shopping/check", s.editor(s.shoppingH.Check))
	handle(mux, routes, "POST /items/shopping/reorder", s.editor(s.shoppingH.Reorder))
	handle(mux, routes, "POST /items/shopping/clear-checked", s.editor(s.shoppingH.ClearChecked))

	// Maintenance
	handle(mux, routes, "GET /items/maintenance", http.HandlerFunc(s.maintenanceH.List))
	handle(mux, routes, "GET /items/maintenance/count", http.HandlerFunc(s.maintenanceH.Count))
	handle(mux, routes, "POST /items/maintenance", s.editor(s.maintenanceH.Create))
	handle(mux, routes, "POST /items/maintenance/update", s.editor(s.maintenanceH.Update))
	handle(mux, routes, "POST /items/maintenance/delete", s.editor(s.maintenanceH.Delete))
	handle(mux, routes, "POST /items/maintenance/check", s.editor(s.maintenanceH.Check))

	// Household membership; permissions are checked per kind by the service.
	handle(mux, routes, "GET /household/init", http.HandlerFunc(s.householdH.Init))
	handle(mux, routes, "GET /household/members", http.HandlerFunc(s.householdH.Members))
	handle(mux, routes, "POST /household/members", s.limited(s.householdH.UpdateMembers))
	handle(mux, routes, "POST /household/accept", s.limited(s.householdH.Accept))
	handle(mux, routes, "POST /household/decline", s.limited(s.householdH.Decline))
	handle(mux, routes, "GET /household/invite-status", http.HandlerFunc(s.householdH.InviteStatus))

	// Audit log
	handle(mux, routes, "GET /audit-log", http.HandlerFunc(s.auditH.List))
	handle(mux, routes, "POST /audit-log", s.limited(s.auditH.Create))

	// Notifications
	handle(mux, routes, "GET /notifications", http.HandlerFunc(s.notifH.List))
	handle(mux, routes, "GET /notifications/unread-count", http.HandlerFunc(s.notifH.UnreadCount))
	handle(mux, routes, "GET /notifications/vapid-key", http.HandlerFunc(s.notifH.VAPIDKey))
	handle(mux, routes, "POST /notifications/delete", s.editor(s.notifH.Delete))
	handle(mux, routes, "POST /notifications/clear", s.editor(s.notifH.Clear))
	handle(mux, routes, "POST /notifications/read", s.limited(s.notifH.MarkRead))
	handle(mux, routes, "POST /notifications/subscribe", s.limited(s.notifH.Subscribe))
	handle(mux, routes, "POST /notifications/unsubscribe", s.limited(s.notifH.Unsubscribe))

	// Live updates
	handle(mux, routes, "GET /ws", s.wsH)
}
