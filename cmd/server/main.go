package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/naveenhacks/KVISION/internal/api"
	"github.com/naveenhacks/KVISION/internal/cache"
	"github.com/naveenhacks/KVISION/internal/config"
	"github.com/naveenhacks/KVISION/internal/directory"
	"github.com/naveenhacks/KVISION/internal/events"
	"github.com/naveenhacks/KVISION/internal/logger"
	"github.com/naveenhacks/KVISION/internal/messaging"
	"github.com/naveenhacks/KVISION/internal/models"
	"github.com/naveenhacks/KVISION/internal/store"
	"github.com/naveenhacks/KVISION/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger not up yet.
		panic(err)
	}

	log, err := logger.New(logger.Config{Development: cfg.App.Env == "development"})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Mongo
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	cancel()
	if err != nil {
		log.Fatalw("mongo connect", "err", err)
	}
	defer client.Disconnect(context.Background())
	coll := client.Database(cfg.Mongo.DB).Collection(cfg.Mongo.Collection)
	convStore := store.NewMongoStore(coll, log)

	// Redis
	rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer rc.Close()
	if err := rc.Ping(context.Background()); err != nil {
		log.Warnw("redis unavailable, continuing without cache", "err", err)
	}

	// Identity directory, with the shared admin inbox layered on top.
	inboxID := cfg.Messaging.AdminInboxID
	if inboxID == "" {
		inboxID = messaging.DefaultAdminInboxID
	}
	dirClient := directory.NewClient(directory.ClientConfig{
		BaseURL:         cfg.Directory.BaseURL,
		Timeout:         config.Duration(cfg.Directory.Timeout, 5*time.Second),
		RetryMaxElapsed: config.Duration(cfg.Directory.RetryMaxElapsed, 15*time.Second),
		CacheTTL:        config.Duration(cfg.Directory.CacheTTL, 30*time.Second),
	}, rc.Redis(), log)
	dir := directory.WithAdminInbox(dirClient, models.User{
		ID:          inboxID,
		DisplayName: "KVISION Admin",
		Role:        models.RoleAdmin,
	})

	// Kafka fan-out (optional)
	var pub *events.Publisher
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer pub.Close()
	}

	svc := messaging.NewService(convStore, dir, pub, log, inboxID)
	hub := ws.NewHub(svc, rc, log)

	app := api.NewApp(api.ServerConfig{
		JWTSecret:       cfg.JWT.HSSecret,
		RateLimitPerMin: cfg.App.RateLimitPerMin,
		SendLimitPerMin: cfg.App.SendLimitPerMin,
	}, svc, hub, rc.Redis(), log)

	addr := ":" + cfg.App.PortString()
	go func() {
		log.Infow("starting messaging service", "addr", addr, "env", cfg.App.Env)
		if err := app.Listen(addr); err != nil {
			log.Fatalw("server failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutdown requested")
	if err := app.ShutdownWithTimeout(cfg.App.ShutdownTimeoutDuration()); err != nil {
		log.Errorw("shutdown", "err", err)
	}
	log.Infow("messaging service stopped")
}
