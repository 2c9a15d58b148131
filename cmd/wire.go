package main

import (
	"context"
	"fmt"

	"shoplit/config"
	"shoplit/internal/clients"
	"shoplit/internal/delivery"
	"shoplit/internal/domain"
	"shoplit/internal/queue"
	"shoplit/internal/repository"
	"shoplit/internal/repository/memory"
	"shoplit/internal/usecase"
	"shoplit/internal/worker"
	"shoplit/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// stores holds one implementation of every repository, all backed by the
// same storage driver.
type stores struct {
	tx            domain.Transactor
	users         domain.UserRepository
	categories    domain.CategoryRepository
	products      domain.ProductRepository
	orders        domain.OrderRepository
	payments      domain.PaymentRepository
	carts         domain.CartRepository
	notifications domain.NotificationRepository
	outbox        domain.OutboxRepository
	reviews       domain.ReviewRepository
	wishlists     domain.WishlistRepository
	pinger        pinger
	close         func()
}

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*stores, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &stores{
			tx:            store,
			users:         store,
			categories:    store,
			products:      store,
			orders:        store,
			payments:      store,
			carts:         store,
			notifications: store,
			outbox:        store,
			reviews:       store,
			wishlists:     store,
			pinger:        store,
			close:         func() {},
		}, nil
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established.")

	txManager := repository.NewTxManager(database, logger)
	notificationRepo := repository.NewPostgresNotificationRepository(database, logger)
	logger.Info("Repositories initialized.")
	return &stores{
		tx:            txManager,
		users:         repository.NewPostgresUserRepository(database, logger),
		categories:    repository.NewPostgresCategoryRepository(database, logger),
		products:      repository.NewPostgresProductRepository(database, logger),
		orders:        repository.NewPostgresOrderRepository(database, logger),
		payments:      repository.NewPostgresPaymentRepository(database, logger),
		carts:         repository.NewPostgresCartRepository(database, logger),
		notifications: notificationRepo,
		outbox:        notificationRepo,
		reviews:       repository.NewPostgresReviewRepository(database, logger),
		wishlists:     repository.NewPostgresWishlistRepository(database, logger),
		pinger:        txManager,
		close: func() {
			if err := database.Close(); err != nil {
				logger.Errorf("Error closing database connection: %v", err)
				return
			}
			logger.Info("Database connection closed.")
		},
	}, nil
}

func buildRouter(cfg *config.Config, s *stores, logger *logrus.Logger) (*gin.Engine, error) {
	gateway := clients.NewPaystackClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.PaystackTimeout, logger)
	notifier := usecase.NewOutboxNotifier(s.outbox, logger)

	orderUseCase := usecase.NewOrderUseCase(s.tx, s.orders, s.products, s.payments, notifier, logger)
	paymentUseCase := usecase.NewPaymentUseCase(s.tx, s.payments, s.orders, s.users, gateway, notifier, logger).
		WithCallbackURL(cfg.PaystackCallbackURL)
	logger.Info("Use cases initialized.")

	return delivery.NewRouter(delivery.Handlers{
		Users:         delivery.NewUserHandler(usecase.NewUserUseCase(s.users, logger), logger),
		Categories:    delivery.NewCategoryHandler(usecase.NewCategoryUseCase(s.categories, logger), logger),
		Products:      delivery.NewProductHandler(usecase.NewProductUseCase(s.products, s.categories, logger), logger),
		Carts:         delivery.NewCartHandler(usecase.NewCartUseCase(s.tx, s.carts, s.products, orderUseCase, logger), logger),
		Orders:        delivery.NewOrderHandler(orderUseCase, logger),
		Payments:      delivery.NewPaymentHandler(paymentUseCase, cfg.PaystackSecretKey, logger),
		Notifications: delivery.NewNotificationHandler(usecase.NewNotificationUseCase(s.notifications, logger), logger),
		Reviews:       delivery.NewReviewHandler(usecase.NewReviewUseCase(s.reviews, s.products, logger), logger),
		Wishlists:     delivery.NewWishlistHandler(usecase.NewWishlistUseCase(s.wishlists, s.products, logger), logger),
	}, s.pinger, logger)
}

// pipeline moves outbox rows to the queue and from the queue to the
// notification channels.
type pipeline struct {
	relay      *worker.OutboxRelay
	dispatcher *worker.Dispatcher
	closers    []func() error
	log        *logrus.Logger
}

func buildPipeline(cfg *config.Config, s *stores, logger *logrus.Logger) (*pipeline, error) {
	var (
		publisher queue.Publisher
		consumer  queue.Consumer
	)
	switch cfg.QueueBackend {
	case config.QueueKafka:
		pub, err := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationTopic, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		con, err := queue.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaNotificationTopic, cfg.KafkaConsumerGroup, logger)
		if err != nil {
			_ = pub.Close()
			return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		publisher, consumer = pub, con
		logger.Infof("Notification queue: kafka topic '%s'", cfg.KafkaNotificationTopic)
	default:
		q := queue.NewMemoryQueue(cfg.OutboxBatchSize * 4)
		publisher, consumer = q, q
		logger.Info("Notification queue: in-process channel")
	}

	sms := clients.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, logger)
	return &pipeline{
		relay:      worker.NewOutboxRelay(s.tx, s.outbox, publisher, cfg.OutboxBatchSize, cfg.OutboxPollInterval, logger),
		dispatcher: worker.NewDispatcher(consumer, s.notifications, s.users, sms, cfg.NotificationWorkers, logger),
		closers:    []func() error{publisher.Close, consumer.Close},
		log:        logger,
	}, nil
}

func (p *pipeline) close() {
	for _, closeFn := range p.closers {
		if err := closeFn(); err != nil {
			p.log.Errorf("Error closing notification queue: %v", err)
		}
	}
}
