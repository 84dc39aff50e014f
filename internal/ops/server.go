// Package ops serves the operational HTTP surface: health, Prometheus
// metrics and a token-protected admin API that mirrors the chat admin
// commands and exposes the daily audit hook to external schedulers.
package ops

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/admin"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/audit"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type AdminAPI interface {
	Stats(ctx context.Context) (*admin.Stats, error)
	Adjust(ctx context.Context, actorID, accountID int64, amount money.Amount, reason string) (*admin.Adjustment, error)
}

type AuditAPI interface {
	Run(ctx context.Context, force bool) (*audit.Report, error)
}

type Config struct {
	Listen     string
	AdminToken string
	Version    string
}

type Server struct {
	app   *fiber.App
	cfg   Config
	admin AdminAPI
	audit AuditAPI
	ping  func(ctx context.Context) error
}

func New(cfg Config, adminAPI AdminAPI, auditAPI AuditAPI, ping func(ctx context.Context) error) *Server {
	s := &Server{cfg: cfg, admin: adminAPI, audit: auditAPI, ping: ping}
	s.app = fiber.New(fiber.Config{
		AppName:               "botim ops",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          5 * time.Minute,
	})
	s.app.Use(recover.New())
	s.app.Use(requestLogger())
	s.routes()
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) routes() {
	s.app.Get("/healthz", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/admin", bearerAuth(s.cfg.AdminToken))
	api.Get("/stats", s.stats)
	api.Post("/accounts/:id/adjust", s.adjust)
	api.Post("/audit", s.runAudit)
}

// Listen blocks until the server stops.
func (s *Server) Listen() error {
	slog.Info("Starting ops server",
		slog.String("type", "sys"),
		slog.String("address", s.cfg.Listen))
	return s.app.Listen(s.cfg.Listen)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c *fiber.Ctx) error {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "degraded",
				"database": err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ok", "version": s.cfg.Version})
}

type statsView struct {
	Accounts      int    `json:"accounts"`
	TotalBalance  string `json:"total_balance"`
	PendingOrders int    `json:"pending_orders"`
}

func (s *Server) stats(c *fiber.Ctx) error {
	st, err := s.admin.Stats(c.UserContext())
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, statsView{
		Accounts:      st.Accounts,
		TotalBalance:  st.TotalBalance.String(),
		PendingOrders: st.PendingOrders,
	}, "")
}

type adjustRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

type adjustView struct {
	AccountID int64  `json:"account_id"`
	EventID   int64  `json:"event_id"`
	Amount    string `json:"amount"`
	Balance   string `json:"balance"`
}

func (s *Server) adjust(c *fiber.Ctx) error {
	accountID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || accountID <= 0 {
		return sendDomainError(c, domain.ErrInvalidRecipient)
	}

	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, fiber.StatusBadRequest, "bad_request", "Body must be JSON with amount and reason")
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return sendDomainError(c, domain.ErrInvalidAmount)
	}

	adj, err := s.admin.Adjust(c.UserContext(), 0, accountID, amount, req.Reason)
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, adjustView{
		AccountID: accountID,
		EventID:   adj.Event.ID,
		Amount:    amount.Signed(),
		Balance:   adj.Balance.String(),
	}, "Balance adjusted")
}

func (s *Server) runAudit(c *fiber.Ctx) error {
	force := c.QueryBool("force", false)
	report, err := s.audit.Run(c.UserContext(), force)
	if err != nil {
		return sendDomainError(c, err)
	}
	return sendSuccess(c, report, "")
}
