// Package bootstrap arma las dependencias compartidas por los ejecutables (api y backupctl).
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-app/internal/application/backup"
	"github.com/jhoicas/facturacion-app/internal/application/setup"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
	"github.com/jhoicas/facturacion-app/internal/infrastructure/filestore"
	"github.com/jhoicas/facturacion-app/internal/infrastructure/memory"
	"github.com/jhoicas/facturacion-app/internal/infrastructure/postgres"
	"github.com/jhoicas/facturacion-app/pkg/config"
	"github.com/jhoicas/facturacion-app/pkg/logger"
)

// Store almacén abierto: runner transaccional y repositorios fuera de transacción.
type Store struct {
	Tx    repository.TxRunner
	Repos repository.Repositories
	close func()
}

// Close libera las conexiones del almacén.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore abre el almacén indicado por STORE_DRIVER. Con postgres aplica el esquema.
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	switch cfg.App.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn().Msg("almacén en memoria: los datos se pierden al salir")
		mem := memory.NewStore()
		return &Store{Tx: mem, Repos: mem.Repositories()}, nil
	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{Tx: postgres.NewTxRunner(pool), Repos: postgres.Repositories(pool), close: pool.Close}, nil
	default:
		return nil, fmt.Errorf("STORE_DRIVER desconocido: %q", cfg.App.StoreDriver)
	}
}

// Seed crea los roles y el administrador configurado si no existen.
func Seed(ctx context.Context, cfg *config.Config, store *Store, log *logger.Logger) error {
	return setup.NewSeeder(store.Tx, setup.AdminConfig{
		Username:            cfg.Admin.Username,
		Email:               cfg.Admin.Email,
		Password:            cfg.Admin.Password,
		ForcePasswordChange: cfg.Admin.ForcePasswordChange,
	}, log).Seed(ctx)
}

// NewBackupService construye el servicio de copias sobre el directorio configurado.
func NewBackupService(cfg *config.Config, store *Store, log *logger.Logger) *backup.Service {
	return backup.NewService(store.Tx, filestore.New(cfg.Backup.Dir), log, backup.Options{
		Policy:            backup.Policy(cfg.Backup.RestorePolicy),
		PreRestoreBackup:  cfg.Backup.PreRestoreBackup,
		TemporaryPassword: cfg.Backup.TemporaryPassword,
	})
}

// NewLogger construye el logger según la configuración.
func NewLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Env:        cfg.App.Env,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}
