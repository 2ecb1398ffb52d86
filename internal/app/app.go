package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/oerazoo/orders-service/internal/health"
	"github.com/oerazoo/orders-service/internal/metrics"
	"github.com/oerazoo/orders-service/internal/service/order"
	"github.com/oerazoo/orders-service/internal/transport/httpapi"
	"github.com/oerazoo/orders-service/internal/version"
)

// Run собирает зависимости и держит сервис до отмены контекста.
// Порядок остановки: HTTP API, затем продюсер, затем пул хранилища.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	storage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	publisher, closePublisher, err := initPublisher(cfg, logger)
	if err != nil {
		return err
	}

	orderMetrics := metrics.NewOrderMetrics()
	svc := order.NewService(storage.orders, storage.history, publisher, orderMetrics)

	healthHandler := healthcheck.NewHandler(version.String())
	if storage.pg != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewPingChecker("postgres", storage.pg.Ping))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.NewHandler(svc)),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)

		if err := closePublisher(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		}

		return ctx.Err()

	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)

		if closeErr := closePublisher(); closeErr != nil {
			logger.WithError(closeErr).Warn("failed to close kafka producer")
		}

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

	srv := &http.Server{Addr: addr, Handler: mux}
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
		logger.WithError(err).Warn("http shutdown with error")
	}
}
