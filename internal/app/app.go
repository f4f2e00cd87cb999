// Package app wires configuration, middleware and routes into a runnable
// echo server.  The listener is bound before serving so the greeting can
// report the port that was actually bound.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hello-db/internal/config"
	"github.com/iliyamo/hello-db/internal/database"
	"github.com/iliyamo/hello-db/internal/handler"
	"github.com/iliyamo/hello-db/internal/middleware"
	"github.com/iliyamo/hello-db/internal/router"
)

// Deps are the collaborators built in main.  Status is required; a nil Redis
// client disables rate limiting and caching.
type Deps struct {
	Status    *database.Status
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	CORS      config.CORSConfig
}

type App struct {
	Echo *echo.Echo

	cfg  config.Config
	port atomic.Int64
}

func New(cfg config.Config, deps Deps) *App {
	if deps.Status == nil {
		panic("app: nil database status")
	}
	a := &App{cfg: cfg}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(logLevel(cfg.Env))
	e.IPExtractor = ipExtractor(cfg.TrustProxy)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echo.WrapMiddleware(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORS.AllowedOrigins,
		AllowedMethods: deps.CORS.AllowedMethods,
		MaxAge:         deps.CORS.MaxAge,
	})))
	e.Use(middleware.NewTokenBucket(deps.RateLimit, deps.Redis))
	e.Use(middleware.NewRedisCache(deps.Cache, deps.Redis))

	root := handler.NewRootHandler(a.Port, deps.Status)
	router.RegisterRoutes(e, root)
	router.RegisterOperator(e, root, cfg.JWTSecret)

	a.Echo = e
	return a
}

func logLevel(env string) glog.Lvl {
	if env == "prod" || env == "production" {
		return glog.WARN
	}
	return glog.INFO
}

// ipExtractor picks the client IP source for RealIP.  Without a trusted
// proxy in front, forwarding headers are client-controlled and ignored.
func ipExtractor(trustProxy bool) echo.IPExtractor {
	if trustProxy {
		return echo.ExtractIPFromXFFHeader(echo.TrustLoopback(true), echo.TrustPrivateNet(true))
	}
	return echo.ExtractIPDirect()
}

// Listen binds addr.  It must be called once before Serve.
func (a *App) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	tcp, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()
		return fmt.Errorf("listen %s: not a TCP address", addr)
	}
	a.port.Store(int64(tcp.Port))
	a.Echo.Listener = ln
	log.Printf("Hello World! listening on %s (env=%s)", ln.Addr(), a.cfg.Env)
	return nil
}

// Port is the bound TCP port, or 0 before Listen.
func (a *App) Port() int { return int(a.port.Load()) }

// Serve blocks serving on the bound listener until Shutdown.
func (a *App) Serve() error {
	if a.Echo.Listener == nil {
		return errors.New("app: Serve called before Listen")
	}
	if err := a.Echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}
