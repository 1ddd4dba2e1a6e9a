package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/subwatch/subwatch/docs"
	"github.com/subwatch/subwatch/internal/app/api/handlers"
	mw "github.com/subwatch/subwatch/internal/app/api/middleware"
	"github.com/subwatch/subwatch/internal/app/service/mailer"
	"github.com/subwatch/subwatch/internal/app/service/reminder"
	subsvc "github.com/subwatch/subwatch/internal/app/service/subscription"
	usersvc "github.com/subwatch/subwatch/internal/app/service/user"
	cfgpkg "github.com/subwatch/subwatch/pkg/config"
	"github.com/subwatch/subwatch/pkg/metrics"
)

func newEngine(met *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Tracing and metrics run on every route; request logger & access log
	// are attached per group in registerRoutes.
	r.Use(mw.TraceMiddleware())
	r.Use(met.GinMiddleware())
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	met *metrics.Metrics,
	users *usersvc.Service,
	subs *subsvc.Service,
	mail *mailer.Service,
	batch *reminder.Batch,
) {
	// Prometheus metrics on a dedicated listener so scrapes bypass the
	// public middleware chain.
	if cfg.MetricsAddr != "" {
		go func() {
			msrv := &http.Server{Addr: cfg.MetricsAddr, Handler: met.Handler(), ReadHeaderTimeout: 5 * time.Second}
			if err := msrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("metrics server error: %v", err)
			}
		}()
		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Everything under /api/v1 except register/login sits behind the JWT guard.
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())

	authed := apiV1.Group("/")
	authed.Use(mw.AuthMiddleware(cfg, users))

	handlers.RegisterAuthRoutes(apiV1, authed, users)
	handlers.RegisterSubscriptionRoutes(authed, subs, mail)
	handlers.RegisterUserRoutes(authed, users, subs)
	handlers.RegisterAdminRoutes(authed, batch)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
