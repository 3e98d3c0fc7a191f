package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickbite-api/auth"
	"quickbite-api/cache"
	"quickbite-api/config"
	"quickbite-api/events"
	"quickbite-api/handlers"
	"quickbite-api/metrics"
	"quickbite-api/middleware"
	"quickbite-api/payment"
	"quickbite-api/repository"
	"quickbite-api/routes"
	"quickbite-api/services"
	"quickbite-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	Version = "1.0.0"
	appName = "quickbite-api"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "QuickBite food ordering API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath, logLevel)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath, logLevel)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(configPath, logLevel)
			if err != nil {
				return err
			}
			if _, err := openDB(cfg); err != nil {
				return err
			}
			logger.Info("migrations applied", "driver", cfg.Database.Driver)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account from ADMIN_EMAIL and ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(configPath, logLevel)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			svc := services.NewAuthService(repository.NewStore(db), auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), cfg.Auth.AdminSecretKey, logger)
			created, err := svc.EnsureAdmin(cmd.Context(), "Administrator", cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
			if err != nil {
				return err
			}
			if !created {
				logger.Info("admin account already exists", "email", cfg.Auth.AdminEmail)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func setup(configPath, logLevel string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := config.OpenDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := config.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func serve(ctx context.Context, configPath, logLevel string) error {
	cfg, logger, err := setup(configPath, logLevel)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	store := repository.NewStore(db)

	var catalogCache cache.Cache = cache.Noop{}
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			return err
		}
		catalogCache = rc
	}
	defer catalogCache.Close()

	publisher, err := events.New(cfg.Events, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	m := metrics.New()
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gateway := payment.NewRazorpayClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.Timeout)
	images, err := storage.NewLocal(cfg.UploadDir, "/uploads")
	if err != nil {
		return err
	}

	authSvc := services.NewAuthService(store, issuer, cfg.Auth.AdminSecretKey, logger)
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		if _, err := authSvc.EnsureAdmin(ctx, "Administrator", cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}
	orderSvc := services.NewOrderService(store, gateway, publisher, m, logger, services.OrderConfig{
		KeySecret:         cfg.Gateway.KeySecret,
		WebhookSecret:     cfg.Gateway.WebhookSecret,
		Currency:          cfg.Gateway.Currency,
		StrictTransitions: cfg.Orders.StrictTransitions,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger), middleware.CORS(cfg.CORSOrigins), m.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "QuickBite API",
			"version": Version,
		})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.Static("/uploads", cfg.UploadDir)

	routes.SetupRoutes(r, routes.Handlers{
		Issuer:  issuer,
		Auth:    handlers.NewAuthHandler(authSvc, cfg.Auth.TokenTTL, cfg.IsProduction(), logger),
		Catalog: handlers.NewCatalogHandler(services.NewCatalogService(store, catalogCache, cfg.Cache.TTL, logger), logger),
		Cart:    handlers.NewCartHandler(services.NewCartService(store, logger), logger),
		Orders:  handlers.NewOrderHandler(orderSvc, cfg.Gateway.KeyID, logger),
		Profile: handlers.NewProfileHandler(services.NewProfileService(store, images, logger), logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
