package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rodrigofontes/vendaspro/internal/domain"
	healthcheck "github.com/rodrigofontes/vendaspro/internal/health"
	"github.com/rodrigofontes/vendaspro/internal/storage/memory"
	"github.com/rodrigofontes/vendaspro/internal/storage/postgres"
)

const storageCheckTimeout = 2 * time.Second

// runtimeDependencies собирает репозитории выбранного хранилища.
type runtimeDependencies struct {
	orders   domain.OrderRepository
	clients  domain.ClientRepository
	products domain.ProductRepository
	history  domain.HistoryRepository
	outbox   domain.OutboxRepository

	// storageChecker не nil только для внешнего хранилища.
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d *runtimeDependencies) close() error {
	if d == nil || d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}

// initRuntimeDependencies инициализирует хранилище согласно конфигурации.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("using in-memory storage")
		store := memory.NewStore()
		return &runtimeDependencies{
			orders:   memory.NewOrderRepository(store),
			clients:  memory.NewClientRepository(store),
			products: memory.NewProductRepository(store),
			history:  memory.NewHistoryRepository(),
			outbox:   memory.NewOutboxRepository(),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage driver requires a DSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}

		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}

		logger.Info("using postgres storage")
		checker := healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), storageCheckTimeout)
			defer cancel()
			return store.Ping(pingCtx)
		})

		return &runtimeDependencies{
			orders:         postgres.NewOrderRepository(store),
			clients:        postgres.NewClientRepository(store),
			products:       postgres.NewProductRepository(store),
			history:        postgres.NewHistoryRepository(store),
			outbox:         postgres.NewOutboxRepository(store),
			storageChecker: checker,
			closeFn:        store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
