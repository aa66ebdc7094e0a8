package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"flyingbus/config"
	"flyingbus/handlers"
	"flyingbus/helper"
	"flyingbus/logger"
	"flyingbus/middleware"
	"flyingbus/repositories"
	"flyingbus/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}

	events := newEventPublisher(cfg, log)
	defer events.Close()
	search := newSearchIndexer(cfg, log)

	userRepo := repositories.NewUserRepository(db)
	articleRepo := repositories.NewArticleRepository(db)
	versionRepo := repositories.NewArticleVersionRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)

	authService := services.NewAuthService(userRepo)
	articleService := services.NewArticleService(articleRepo, versionRepo, categoryRepo, events, search, log)
	categoryService := services.NewCategoryService(categoryRepo)
	editorService := services.NewEditorService(
		articleService,
		services.NewGatewayFactory(cfg, articleService),
		cfg.AutosaveInterval,
		log,
	)
	defer editorService.CloseAll()

	httpHelper := helper.NewHTTPHelper()

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	handlers.RegisterRoutes(router, handlers.Handlers{
		Auth:       handlers.NewAuthHandler(authService, httpHelper),
		Article:    handlers.NewArticleHandler(articleService, httpHelper),
		Moderation: handlers.NewModerationHandler(articleService, httpHelper),
		Category:   handlers.NewCategoryHandler(categoryService, httpHelper),
		Editor:     handlers.NewEditorHandler(editorService, httpHelper),
		RPC:        handlers.NewRPCHandler(articleService, httpHelper),
	}, cfg.RPCAPIKey)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("port", cfg.Port).WithField("gateway_mode", cfg.GatewayMode).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SessionIdleTimeout / 4)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := editorService.ReapIdle(cfg.SessionIdleTimeout); n > 0 {
					log.WithField("closed", n).Info("reaped idle editor sessions")
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newEventPublisher(cfg *config.Config, log *logger.Logger) services.EventPublisher {
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set, article events are not published")
		return services.NoopPublisher{}
	}
	pub, err := services.NewRabbitMQService(cfg.RabbitMQURL, cfg.RabbitMQQueue)
	if err != nil {
		log.WithErr(err).Warn("RabbitMQ unavailable, article events are not published")
		return services.NoopPublisher{}
	}
	return pub
}

func newSearchIndexer(cfg *config.Config, log *logger.Logger) services.SearchIndexer {
	if cfg.ElasticsearchURL == "" {
		log.Info("ELASTICSEARCH_URL not set, search is disabled")
		return services.NoopSearch{}
	}
	search, err := services.NewElasticsearchService(cfg.ElasticsearchURL, cfg.ElasticsearchIndex)
	if err != nil {
		log.WithErr(err).Warn("Elasticsearch unavailable, search is disabled")
		return services.NoopSearch{}
	}
	return search
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithUser(middleware.UserID(c)).
			WithField("method", c.Request.Method).
			WithField("path", c.FullPath()).
			WithField("status", c.Writer.Status()).
			WithField("latency_ms", time.Since(start).Milliseconds()).
			Debug("request")
	}
}
