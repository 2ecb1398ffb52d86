package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/oerazoo/orders-service/internal/app"
	"github.com/oerazoo/orders-service/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if lvl, err := log.ParseLevel(os.Getenv("ORDERS_LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
}

func main() {
	// .env удобен локально; в продакшене переменные приходят из окружения.
	_ = godotenv.Load()
	setupLogger()

	cfg := app.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"version":      version.String(),
	}).Info("запускаем сервис заказов")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("сервис завершился с ошибкой")
	}

	log.Info("сервис заказов остановлен")
}
