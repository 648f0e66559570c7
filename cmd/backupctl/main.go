// Command backupctl administra las copias de seguridad sin levantar el servidor HTTP.
package main

import (
	"context"
	"os"

	"github.com/jhoicas/facturacion-app/internal/application/backup"
	"github.com/jhoicas/facturacion-app/internal/bootstrap"
	"github.com/jhoicas/facturacion-app/pkg/config"
)

func main() {
	if err := newRootCmd(openFromEnv).Execute(); err != nil {
		os.Exit(1)
	}
}

// openFromEnv abre el almacén configurado por variables de entorno.
func openFromEnv(ctx context.Context) (*backup.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := bootstrap.NewLogger(cfg)
	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return bootstrap.NewBackupService(cfg, store, log), store.Close, nil
}
