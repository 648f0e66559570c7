package repository

import (
	"context"
	"io"
	"time"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
)

// BackupStorage puerto del directorio de copias de seguridad.
// Los nombres siguen el formato backup_<yyyyMMdd_HHmmss>[_nnn].json; cualquier otro se rechaza
// con domain.ErrInvalidInput. Un archivo inexistente devuelve domain.ErrNotFound.
type BackupStorage interface {
	// Save escribe data de forma atómica con un nombre derivado de at y devuelve ese nombre.
	Save(ctx context.Context, at time.Time, data []byte) (string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Open(ctx context.Context, name string) (io.ReadCloser, entity.BackupFile, error)
	// List devuelve los archivos del más reciente al más antiguo.
	List(ctx context.Context) ([]entity.BackupFile, error)
	Delete(ctx context.Context, name string) error
	// Path ruta completa del archivo, para mensajes y logs.
	Path(name string) string
}
