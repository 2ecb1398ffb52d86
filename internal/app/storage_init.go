package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/oerazoo/orders-service/internal/domain"
	"github.com/oerazoo/orders-service/internal/storage/memory"
	"github.com/oerazoo/orders-service/internal/storage/postgres"
)

// storageSet — репозитории плюс опциональный Postgres-store для
// health-проверок и закрытия пула.
type storageSet struct {
	orders  domain.OrderRepository
	history domain.StatusHistoryRepository
	pg      *postgres.Store
}

func (s *storageSet) Close() error {
	if s.pg != nil {
		return s.pg.Close()
	}
	return nil
}

// initStorage выбирает драйвер хранилища по конфигурации. Неизвестный
// драйвер — ошибка конфигурации, а не тихий откат в память.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storageSet, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("using in-memory storage")
		store := memory.NewStore()
		return &storageSet{
			orders:  memory.NewOrderRepository(store),
			history: memory.NewStatusHistoryRepository(store),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres driver requires ORDERS_POSTGRES_DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}
		logger.Info("using postgres storage")
		return &storageSet{
			orders:  postgres.NewOrderRepository(store),
			history: postgres.NewStatusHistoryRepository(store),
			pg:      store,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
