package server

import (
	"errors"

	"backend-corevia/internal/auth"
	"backend-corevia/internal/config"
	"backend-corevia/internal/db"
	"backend-corevia/internal/route"
	"backend-corevia/internal/stream"
	"backend-corevia/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Tracking *tracking.Service
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pool,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "live_sessions": s.Tracking.Active()})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	q := querier(s.DB)
	authSvc := auth.NewService(s.Cfg.JWTSecret, q)
	routeSvc := route.NewService(q)

	// Without a database, sessions still run but fall back to the default
	// weight and are not stored.
	var (
		weights tracking.WeightSource
		store   tracking.RecordStore
	)
	if q != nil {
		weights, store = authSvc, routeSvc
	}
	s.Tracking = tracking.NewService(weights, store, s.Stream,
		tracking.WithDefaultWeight(s.Cfg.DefaultWeightKg),
		tracking.WithTickInterval(s.Cfg.TickInterval),
		tracking.WithIdleTimeout(s.Cfg.SessionIdleTimeout),
	)

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc, jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, jwtMiddleware)
	route.RegisterRoutes(s.App.Group("/routes"), routeSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware, s.canWatch)
}

// canWatch admits only the owner of a session running here. With the redis
// relay, a session unknown here may live on another instance and is let
// through, since ownership is only known where the session runs.
func (s *Server) canWatch(userID, sessionID string) error {
	err := s.Tracking.CanWatch(userID, sessionID)
	if errors.Is(err, tracking.ErrSessionNotFound) && s.Redis != nil {
		return nil
	}
	return err
}

// querier avoids handing services a typed nil when no pool is configured.
func querier(pool *pgxpool.Pool) db.Querier {
	if pool == nil {
		return nil
	}
	return pool
}
