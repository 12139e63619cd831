package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/naveenhacks/KVISION/internal/messaging"
	"github.com/naveenhacks/KVISION/internal/metrics"
	"github.com/naveenhacks/KVISION/internal/middleware"
	"github.com/naveenhacks/KVISION/internal/models"
	"github.com/naveenhacks/KVISION/internal/ws"
)

type ServerConfig struct {
	JWTSecret       string
	RateLimitPerMin int
	SendLimitPerMin int
}

// NewApp assembles the fiber application: health and metrics outside auth,
// everything else behind JWT, plus the websocket feed.
func NewApp(cfg ServerConfig, svc *messaging.Service, hub *ws.Hub, rdb *redis.Client, log *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(middleware.NewIPRateLimiter(cfg.RateLimitPerMin, log).Handler())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	h := NewHandlers(svc)
	auth := middleware.JWTAuth(cfg.JWTSecret)

	api := app.Group("/api", auth)
	sendHandlers := []fiber.Handler{h.sendMessage}
	if rdb != nil {
		limiter := middleware.NewRateLimiter(rdb, "ratelimit:send", cfg.SendLimitPerMin, time.Minute)
		sendHandlers = []fiber.Handler{limiter.MiddlewareByKey(userKey), h.sendMessage}
	}
	api.Post("/messages", sendHandlers...)
	api.Get("/conversations", h.listConversations)
	api.Post("/conversations/:key/read", h.markRead)
	api.Delete("/conversations/:key/messages/:msg_id", h.deleteMessage)
	api.Get("/unread", h.unreadTotal)

	app.Use("/ws", auth, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		uid, _ := conn.Locals(middleware.LocalUserID).(string)
		role, _ := conn.Locals(middleware.LocalRole).(models.Role)
		hub.HandleConn(conn, uid, role)
	}))

	return app
}

func userKey(c *fiber.Ctx) string {
	uid, _ := middleware.UserFromCtx(c)
	if uid == "" {
		return c.IP()
	}
	return uid
}
