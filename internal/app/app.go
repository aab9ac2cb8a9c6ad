package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/rodrigofontes/vendaspro/internal/health"
	"github.com/rodrigofontes/vendaspro/internal/httpapi"
	"github.com/rodrigofontes/vendaspro/internal/messaging/kafka"
	"github.com/rodrigofontes/vendaspro/internal/service/catalog"
	"github.com/rodrigofontes/vendaspro/internal/service/order"
	"github.com/rodrigofontes/vendaspro/internal/service/outbox"
	"github.com/rodrigofontes/vendaspro/internal/version"
)

const readHeaderTimeout = 10 * time.Second

// Run собирает зависимости по конфигурации и обслуживает HTTP API до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := deps.close(); closeErr != nil {
			logger.WithError(closeErr).Warn("failed to close storage")
		}
	}()

	orderService := order.NewService(
		deps.orders,
		deps.clients,
		deps.products,
		deps.history,
		deps.outbox,
		logger.WithField("layer", "service"),
	)
	catalogService := catalog.NewService(
		deps.clients,
		deps.products,
		logger.WithField("layer", "service"),
	)

	// Kafka опционален: без brokers события копятся в outbox как pending.
	kafkaProducer, kafkaErr := initKafkaProducer(cfg.KafkaBrokers, logger)
	if kafkaErr != nil {
		logger.WithError(kafkaErr).Warn("order events will stay pending in outbox until kafka is reachable")
	}
	defer closeKafka(kafkaProducer, logger)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	workerDone := make(chan struct{})
	close(workerDone)
	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, cfg.OrderEventsTopic)
		dlqPublisher := kafka.NewOutboxPublisher(kafkaProducer, cfg.DLQTopic)
		worker := outbox.NewWorker(
			deps.outbox,
			publisher,
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(dlqPublisher),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		workerDone = make(chan struct{})
		go func() {
			defer close(workerDone)
			worker.Run(workerCtx)
		}()
	}

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}

	var verifier httpapi.TokenVerifier
	if cfg.AuthToken != "" {
		verifier = httpapi.NewStaticTokenVerifier(cfg.AuthToken)
	} else {
		logger.Warn("auth token is not configured, API is served without authorization")
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Orders:    httpapi.NewOrderHandler(orderService),
		Catalog:   httpapi.NewCatalogHandler(catalogService, orderService),
		Verifier:  verifier,
		Liveness:  http.HandlerFunc(healthcheck.LivenessHandler),
		Readiness: http.HandlerFunc(healthHandler.ReadinessHandler),
		Logger:    logger.WithField("layer", "http"),
	})

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := apiSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("HTTP API shutdown with error")
		}
		shutdownHTTP(metricsSrv, logger)

		stopWorker()
		select {
		case <-workerDone:
		case <-time.After(cfg.ShutdownTimeout):
			logger.Warn("outbox worker did not stop in time")
		}

		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		stopWorker()
		<-workerDone

		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
