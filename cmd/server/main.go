// Command server is the composition root: it loads config, opens every
// storage/transport dependency, wires the domain services and the job
// pipeline (C5) together, and serves the HTTP surface until an
// interrupt asks it to stop.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/gorilla/mux"

	"ryotgo/api"
	"ryotgo/handlers"
	"ryotgo/internal/config"
	"ryotgo/internal/database"
	"ryotgo/internal/objectstorage"
	"ryotgo/services/analytics"
	"ryotgo/services/cache"
	"ryotgo/services/catalog"
	"ryotgo/services/consumption"
	"ryotgo/services/exporter"
	"ryotgo/services/fitness"
	"ryotgo/services/gateway"
	"ryotgo/services/importer"
	"ryotgo/services/integrations"
	"ryotgo/services/jobs"
	"ryotgo/services/notifications"
	"ryotgo/services/plex"
	"ryotgo/services/sessions"
)

// plexClientID identifies this server instance to Plex's API the same
// way every Plex client must; unlike the provider tokens in
// config.Providers this isn't a user secret, just an app identity, so
// it's a fixed literal rather than a config field.
const plexClientID = "ryotgo-server"

func main() {
	cfg, err := config.Load(os.Getenv("RYOTGO_CONFIG_DIR"))
	if err != nil {
		panic("loading config: " + err.Error())
	}

	log, rotator, err := config.NewLogger(cfg.Logging)
	if err != nil {
		panic("building logger: " + err.Error())
	}
	defer rotator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Config{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("opening database")
	}
	defer db.Close()

	userRepo := database.NewUserRepository(db)
	revokedRepo := database.NewRevokedTokenRepository(db)
	metadataRepo := database.NewMetadataRepository(db)
	metadataGroupRepo := database.NewMetadataGroupRepository(db)
	personRepo := database.NewPersonRepository(db)
	seenRepo := database.NewSeenRepository(db)
	reviewRepo := database.NewReviewRepository(db)
	exerciseRepo := database.NewExerciseRepository(db)
	workoutRepo := database.NewWorkoutRepository(db)
	measurementRepo := database.NewMeasurementRepository(db)
	collectionRepo := database.NewCollectionRepository(db)
	calendarRepo := database.NewCalendarRepository(db)
	monitoredRepo := database.NewMonitoredEntityRepository(db)
	notificationRepo := database.NewNotificationRepository(db)
	cacheRepo := database.NewCacheRepository(db)
	integrationRepo := database.NewIntegrationRepository(db)
	importRepo := database.NewImportRepository(db)
	activityRepo := database.NewActivityRepository(db)

	cacheSvc, err := cache.New(cacheRepo, 10_000)
	if err != nil {
		log.Fatal().Err(err).Msg("building cache service")
	}

	sessionsSvc := sessions.NewService([]byte(cfg.Auth.Secret), revokedRepo, userRepo, cfg.Auth.Issuer)

	notifications.Configure(cfg.Mailer.SendgridKey)
	notificationsSvc := notifications.NewService(notificationRepo, monitoredRepo, log)

	registry, err := catalog.NewRegistry(ctx, cfg.Providers)
	if err != nil {
		log.Fatal().Err(err).Msg("building provider registry")
	}
	catalogSvc := catalog.NewService(registry, metadataRepo, metadataGroupRepo, personRepo, notificationsSvc)

	store, err := objectstorage.New(ctx, objectstorage.Config{
		Bucket:          cfg.ObjectStorage.Bucket,
		Region:          cfg.ObjectStorage.Region,
		Endpoint:        cfg.ObjectStorage.Endpoint,
		AccessKeyID:     cfg.ObjectStorage.AccessKeyID,
		SecretAccessKey: cfg.ObjectStorage.SecretAccessKey,
		ForcePathStyle:  cfg.ObjectStorage.ForcePathStyle,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("building object store")
	}

	queues := jobs.New(jobs.Config{
		QueueDepth:       cfg.Jobs.QueueDepth,
		LpWorkers:        cfg.Jobs.LpWorkers,
		MpWorkers:        cfg.Jobs.MpWorkers,
		HpWorkers:        cfg.Jobs.HpWorkers,
		MaxImportRetries: cfg.Jobs.MaxImportRetries,
	}, log)
	enqueuer := jobEnqueuerAdapter{queues: queues}

	consumptionEngine := consumption.New(seenRepo, metadataRepo, collectionRepo, cacheSvc, enqueuer)
	fitnessEngine := fitness.New(exerciseRepo, workoutRepo, enqueuer)
	analyticsSvc := analytics.New(activityRepo, seenRepo, reviewRepo, measurementRepo, workoutRepo, metadataRepo)

	exporterSvc := exporter.NewService(
		metadataRepo, metadataGroupRepo, personRepo, seenRepo, measurementRepo,
		workoutRepo, collectionRepo, reviewRepo, store,
	)

	importProcessor := importer.NewProcessor(
		metadataRepo, metadataGroupRepo, personRepo, exerciseRepo, workoutRepo,
		measurementRepo, collectionRepo, reviewRepo, consumptionEngine,
	)
	importerRunner := importer.NewRunner(importRepo, importProcessor)

	plexClient := plex.NewClient(plexClientID)
	integrationsSvc := integrations.NewService(integrationRepo, collectionRepo, importProcessor, plexClient, log)

	registerJobHandlers(
		queues, log,
		userRepo, seenRepo, reviewRepo, metadataRepo, metadataGroupRepo, personRepo,
		exerciseRepo, workoutRepo, collectionRepo, calendarRepo, monitoredRepo, revokedRepo,
		catalogSvc, consumptionEngine, fitnessEngine, analyticsSvc, exporterSvc,
		importerRunner, integrationsSvc, notificationsSvc,
	)

	scheduler := jobs.NewScheduler(queues, log)
	if err := scheduler.ScheduleBackgroundTasks(cfg.Jobs.BackgroundTasksCron); err != nil {
		log.Fatal().Err(err).Msg("scheduling background tasks")
	}
	if err := scheduler.ScheduleMetadataRefresh(cfg.Jobs.MetadataRefreshCron, func(ctx context.Context) ([]string, error) {
		return monitoredRepo.DistinctMonitoredMetadataIDs(ctx, 500)
	}); err != nil {
		log.Fatal().Err(err).Msg("scheduling metadata refresh")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		queues.Run(ctx)
	}()
	scheduler.Start()

	webhookHandler := handlers.NewWebhookHandler(integrationsSvc)
	logsHandler := handlers.NewLogsHandler(sessionsSvc, cfg.Logging)
	webhookLimiter := api.NewWebhookRateLimiter()

	gatewayResolver := gateway.NewResolver(
		userRepo, metadataRepo, collectionRepo, reviewRepo, activityRepo, importRepo,
		sessionsSvc, consumptionEngine, fitnessEngine, exporterSvc, store, queues, cfg,
	)
	gatewayHandler := gateway.NewHandler(gatewayResolver, sessionsSvc)

	router := mux.NewRouter()
	router.Handle("/webhooks/integrations/{slug}", api.RateLimitHandlerFunc(webhookLimiter, webhookHandler.Receive)).Methods(http.MethodPost)
	router.PathPrefix("/logs/download/").HandlerFunc(logsHandler.Download).Methods(http.MethodGet)
	router.Handle("/graphql", gatewayHandler).Methods(http.MethodPost)
	if cfg.Server.PlaygroundEnabled {
		router.HandleFunc("/graphql/playground", gateway.Playground).Methods(http.MethodGet)
	}
	router.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cfg.Masked())
	}).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	scheduler.Stop()
	wg.Wait()
}
