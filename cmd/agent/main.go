package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/curamed/chartcache/internal/api/middleware"
	"github.com/curamed/chartcache/internal/api/route"
	appctx "github.com/curamed/chartcache/internal/app"
	"github.com/curamed/chartcache/internal/config"
	"github.com/curamed/chartcache/internal/logger"

	"github.com/enrichman/httpgrace"
)

func main() {
	// .env is optional; it carries local overrides like the remote token.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	logger.SetLevel(cfg.Misc.LogLevel)
	logger.WithComponent("main").Infof("agent will run on port: %d", cfg.Server.Port)
	logger.WithComponent("main").Infof("remote API: %s", cfg.Remote.BaseURL)

	app, err := appctx.New(cfg)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	if err := app.StartWatchers(); err != nil {
		logger.WithComponent("main").Fatalf("cannot start queue watchers: %v", err)
	}

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(logger.Logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins))
	r.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	r.Use(middleware.HTTPMetrics(app.Metrics))

	route.SetupRoutes(r, app)

	srv := createGraceHTTPServer(app.BaseCtx, "agent", cfg.Server, r)
	if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
}

func createGraceHTTPServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
