package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/siteops/siteops-backend/internal/alerts"
	assethandler "github.com/siteops/siteops-backend/internal/asset/handler"
	assetrepo "github.com/siteops/siteops-backend/internal/asset/repository"
	assetservice "github.com/siteops/siteops-backend/internal/asset/service"
	budgetconsumers "github.com/siteops/siteops-backend/internal/budget/consumers"
	budgetevents "github.com/siteops/siteops-backend/internal/budget/events"
	budgethandler "github.com/siteops/siteops-backend/internal/budget/handler"
	budgetrepo "github.com/siteops/siteops-backend/internal/budget/repository"
	budgetservice "github.com/siteops/siteops-backend/internal/budget/service"
	incidentevents "github.com/siteops/siteops-backend/internal/incident/events"
	incidenthandler "github.com/siteops/siteops-backend/internal/incident/handler"
	incidentrepo "github.com/siteops/siteops-backend/internal/incident/repository"
	incidentservice "github.com/siteops/siteops-backend/internal/incident/service"
	ticketevents "github.com/siteops/siteops-backend/internal/ticket/events"
	tickethandler "github.com/siteops/siteops-backend/internal/ticket/handler"
	ticketrepo "github.com/siteops/siteops-backend/internal/ticket/repository"
	ticketservice "github.com/siteops/siteops-backend/internal/ticket/service"
	vendorhandler "github.com/siteops/siteops-backend/internal/vendors/handler"
	vendorrepo "github.com/siteops/siteops-backend/internal/vendors/repository"
	vendorservice "github.com/siteops/siteops-backend/internal/vendors/service"
	"github.com/siteops/siteops-backend/pkg/config"
	"github.com/siteops/siteops-backend/pkg/database"
	"github.com/siteops/siteops-backend/pkg/httputil"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/messaging"
	"github.com/siteops/siteops-backend/pkg/metrics"
)

func main() {
	cfg, err := config.LoadWithValidation("siteops-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("siteops-server", cfg.Server.Environment)
	log.Info().Msg("starting SiteOps server")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Repositories
	allocationRepo := budgetrepo.NewAllocationRepository(db)
	costRepo := budgetrepo.NewCostRecordRepository(db)
	ticketRepo := ticketrepo.NewTicketRepository(db)
	assetRepo := assetrepo.NewAssetRepository(db)
	scheduleRepo := assetrepo.NewPMScheduleRepository(db)
	vendorRepo := vendorrepo.NewVendorRepository(db)
	documentRepo := vendorrepo.NewComplianceDocumentRepository(db)
	incidentRepo := incidentrepo.NewIncidentRepository(db)

	// Event publishers
	budgetPublisher, err := budgetevents.NewBudgetEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create budget event publisher")
	}
	ticketPublisher, err := ticketevents.NewTicketEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ticket event publisher")
	}
	incidentPublisher, err := incidentevents.NewIncidentEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create incident event publisher")
	}

	// Services
	budgetService := budgetservice.NewBudgetService(allocationRepo, costRepo, log)
	ticketService := ticketservice.NewTicketService(ticketRepo, ticketPublisher, log)
	assetService := assetservice.NewAssetService(assetRepo, log)
	pmService := assetservice.NewPMService(scheduleRepo, assetRepo, log)
	vendorService := vendorservice.NewVendorService(vendorRepo, documentRepo, log)
	incidentService := incidentservice.NewIncidentService(incidentRepo, incidentPublisher, log)

	// Handlers
	budgetHandler := budgethandler.NewBudgetHandler(budgetService, log)
	ticketHandler := tickethandler.NewTicketHandler(ticketService, log)
	assetHandler := assethandler.NewAssetHandler(assetService, pmService, log)
	vendorHandler := vendorhandler.NewVendorHandler(vendorService, log)
	incidentHandler := incidenthandler.NewIncidentHandler(incidentService, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ticket completion consumer feeds budget alerts
	ticketConsumer, err := budgetconsumers.NewTicketEventConsumer(rmq, budgetService, budgetPublisher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ticket event consumer")
	}
	if err := ticketConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start ticket event consumer")
	}

	// Background scanner for due maintenance and expiring documents
	var scheduler *alerts.Scheduler
	if cfg.Alerts.ScannerEnabled {
		scanner, err := alerts.NewScanner(pmService, vendorService, rmq, cfg.Alerts.ExpiryLookahead, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create alert scanner")
		}
		scheduler = alerts.NewScheduler(scanner, db, cfg.Alerts.ScanInterval, log)
		scheduler.Start(ctx)
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Tenant-ID", "X-User-ID", "X-User-Name", "X-User-Email", "X-User-Role", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.TenantMiddleware)
	r.Use(httputil.ActorMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "siteops-server",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/budgets", budgetHandler.Routes)
		r.Route("/tickets", ticketHandler.Routes)
		r.Route("/assets", assetHandler.Routes)
		r.Route("/vendors", vendorHandler.Routes)
		r.Route("/incidents", incidentHandler.Routes)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	cancel()
	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
