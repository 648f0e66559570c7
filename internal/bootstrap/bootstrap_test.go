package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-app/internal/application/backup"
	"github.com/jhoicas/facturacion-app/pkg/config"
	"github.com/jhoicas/facturacion-app/pkg/logger"
)

func memoryConfig(t *testing.T) *config.Config {
	return &config.Config{
		App:    config.AppConfig{StoreDriver: config.StoreDriverMemory},
		Backup: config.BackupConfig{Dir: t.TempDir(), RestorePolicy: config.RestorePolicyAtomic, TemporaryPassword: "Temp123!"},
		Admin:  config.AdminConfig{Username: "admin", Password: "admin123"},
	}
}

func TestOpenStore_MemoriaConSeedYBackup(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)
	log := logger.Nop()

	store, err := OpenStore(ctx, cfg, log)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, Seed(ctx, cfg, store, log))
	admin, err := store.Repos.Users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, admin)

	svc := NewBackupService(cfg, store, log)
	assert.Equal(t, backup.PolicyAtomic, svc.DefaultPolicy())

	name, err := svc.CreateBackup(ctx)
	require.NoError(t, err)
	files, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, name, files[0].Name)
}

func TestOpenStore_DriverDesconocido(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.App.StoreDriver = "sqlite"

	_, err := OpenStore(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
