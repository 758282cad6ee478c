package main

import (
	"context"

	"go.uber.org/zap"

	"mailtriage/config"
	"mailtriage/internal/api"
	"mailtriage/internal/httpserver"
	"mailtriage/internal/identity"
	"mailtriage/internal/repository"
	"mailtriage/internal/scheduler"
	"mailtriage/internal/service"
	"mailtriage/pkg/db"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/mq"
	"mailtriage/pkg/outbox"
	"mailtriage/pkg/redis"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	// 2. Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}

	// 3. Init redis (token cache) and event publisher
	rdb := redis.NewRedisClient(cfg.Redis)

	mqPublisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init publisher", zap.Error(err))
	}
	defer mqPublisher.Close()

	// With the outbox enabled, services write events to Postgres and a
	// background dispatcher drains them to the broker.
	var publisher service.Publisher = mqPublisher
	var outboxHandler *api.OutboxHandler
	if cfg.MQ.Outbox {
		outboxRepo := outbox.NewRepository(dbConn)
		publisher = outbox.NewPublisher(outboxRepo)
		outboxHandler = api.NewOutboxHandler(outboxRepo)

		dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
		defer cancelDispatcher()
		go outbox.NewDispatcher(outboxRepo, mqPublisher, log).Start(dispatcherCtx)
	}

	// 4. Init repositories
	emailRepo := repository.NewManagedEmailRepository(dbConn)
	statusRepo := repository.NewFilteringStatusRepository(dbConn)
	triageRepo := repository.NewTriageRepository(dbConn)

	// 5. Identity broker and classifier
	broker := identity.NewBroker(
		cfg.Broker.BaseURL,
		cfg.Broker.SecretKey,
		rdb,
		cfg.Broker.TokenTTL(),
		log,
	)

	var classifier service.Classifier
	switch cfg.Filtering.Classifier {
	case "gmail":
		classifier = service.NewGmailClassifier(broker, cfg.Filtering.MaxResults, log)
	default:
		classifier = service.StaticClassifier{}
	}

	// 6. Scheduler for deferred completion writes
	sched := scheduler.New()
	defer sched.Stop()

	// 7. Init services
	registryService := service.NewRegistryService(emailRepo, statusRepo, log)
	filteringService := service.NewFilteringService(
		emailRepo,
		statusRepo,
		triageRepo,
		classifier,
		sched,
		publisher,
		cfg.Filtering.CompletionDelay(),
		log,
	)
	triageService := service.NewTriageService(triageRepo, emailRepo, publisher, cfg.Filtering.ReleaseTarget, log)

	// 8. Init handlers
	managedHandler := api.NewManagedEmailHandler(registryService)
	filteringHandler := api.NewFilteringHandler(filteringService)
	triageHandler := api.NewTriageHandler(triageService)
	gmailHandler := api.NewGmailHandler(broker)

	// 9. Init router
	router := httpserver.NewRouter(managedHandler, filteringHandler, triageHandler, gmailHandler, outboxHandler, mqPublisher.IsConnected, cfg.JWT.Secret)

	// 10. Run server
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("Server start failed", zap.Error(err))
	}
}
