package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestInitStorage_Memory(t *testing.T) {
	cfg := DefaultConfig()

	storage, err := initStorage(context.Background(), cfg, log.WithField("component", "test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NotNil(t, storage.orders)
	require.NotNil(t, storage.history)
	require.Nil(t, storage.pg)
}

func TestInitStorage_PostgresRequiresDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres

	_, err := initStorage(context.Background(), cfg, log.WithField("component", "test"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "ORDERS_POSTGRES_DSN")
}

func TestInitStorage_UnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = "cassandra"

	_, err := initStorage(context.Background(), cfg, log.WithField("component", "test"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown storage driver")
}
