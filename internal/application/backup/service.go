// Package backup exporta el estado completo del almacén a un snapshot JSON y lo restaura
// reconstruyendo las relaciones con IDs nuevos.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/facturacion-app/internal/domain"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
	"github.com/jhoicas/facturacion-app/pkg/logger"
)

// DefaultTemporaryPassword contraseña asignada a los usuarios restaurados si no se configura otra.
const DefaultTemporaryPassword = "ChangeMe123!"

// Options comportamiento configurable del servicio.
type Options struct {
	Policy            Policy // política por defecto cuando la invocación no indica ninguna
	PreRestoreBackup  bool   // copia del estado actual antes de restaurar
	TemporaryPassword string
	BcryptCost        int              // 0 = bcrypt.DefaultCost
	Now               func() time.Time // nil = time.Now
}

// Service casos de uso de copia de seguridad y restauración.
// Dos restauraciones simultáneas sobre el mismo almacén no son seguras: el llamador debe serializarlas.
type Service struct {
	tx      repository.TxRunner
	storage repository.BackupStorage
	log     *logger.Logger
	opts    Options
}

// NewService construye el servicio inyectando sus dependencias.
func NewService(tx repository.TxRunner, storage repository.BackupStorage, log *logger.Logger, opts Options) *Service {
	if opts.Policy == "" {
		opts.Policy = PolicyIsolated
	}
	if opts.TemporaryPassword == "" {
		opts.TemporaryPassword = DefaultTemporaryPassword
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{tx: tx, storage: storage, log: log.Named("backup"), opts: opts}
}

// DefaultPolicy política usada cuando Restore recibe una vacía.
func (s *Service) DefaultPolicy() Policy {
	return s.opts.Policy
}

// CreateBackup lee todo el almacén en una transacción de solo lectura y escribe un snapshot nuevo.
// Devuelve el nombre del archivo creado.
func (s *Service) CreateBackup(ctx context.Context) (string, error) {
	start := time.Now()
	name, err := s.createBackup(ctx)
	operationDuration.WithLabelValues("backup").Observe(time.Since(start).Seconds())
	if err != nil {
		operationsTotal.WithLabelValues("backup", "error").Inc()
		s.log.Error().Err(err).Msg("copia de seguridad fallida")
		return "", err
	}
	operationsTotal.WithLabelValues("backup", "ok").Inc()
	return name, nil
}

func (s *Service) createBackup(ctx context.Context) (string, error) {
	now := s.opts.Now()
	var live liveData
	err := s.tx.RunInTx(ctx, repository.TxOptions{ReadOnly: true}, func(uow repository.UnitOfWork) error {
		repos := uow.Repos()
		var err error
		if live.company, err = repos.Companies.Get(ctx); err != nil {
			return err
		}
		if live.customers, err = repos.Customers.FindAll(ctx); err != nil {
			return err
		}
		if live.invoices, err = repos.Invoices.FindAll(ctx); err != nil {
			return err
		}
		if live.users, err = repos.Users.FindAll(ctx); err != nil {
			return err
		}
		if live.roles, err = repos.Roles.FindAll(ctx); err != nil {
			return err
		}
		live.audits, err = repos.LoginAudits.FindAll(ctx)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: leer datos: %w", ErrBackupWrite, err)
	}

	data, err := EncodeSnapshot(buildSnapshot(now, live))
	if err != nil {
		return "", fmt.Errorf("%w: serializar: %w", ErrBackupWrite, err)
	}
	name, err := s.storage.Save(ctx, now, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackupWrite, err)
	}
	lastBackupSizeBytes.Set(float64(len(data)))

	s.log.Info().
		Str("file", s.storage.Path(name)).
		Int("customers", len(live.customers)).
		Int("invoices", len(live.invoices)).
		Int("users", len(live.users)).
		Int("login_audits", len(live.audits)).
		Msg("copia de seguridad creada")
	return name, nil
}

// List copias disponibles, la más reciente primero.
func (s *Service) List(ctx context.Context) ([]entity.BackupFile, error) {
	return s.storage.List(ctx)
}

// Open abre una copia para descargarla.
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, entity.BackupFile, error) {
	rc, info, err := s.storage.Open(ctx, name)
	if err != nil {
		return nil, entity.BackupFile{}, notFound(name, err)
	}
	return rc, info, nil
}

// Delete borra una copia.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.storage.Delete(ctx, name); err != nil {
		return notFound(name, err)
	}
	s.log.Info().Str("file", name).Msg("copia de seguridad eliminada")
	return nil
}

// load etapa de validación: el archivo existe y es un snapshot soportado.
func (s *Service) load(ctx context.Context, name string) (*Snapshot, error) {
	data, err := s.storage.Read(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, notFound(name, err)
		}
		return nil, fmt.Errorf("%w: %s ilegible: %w", ErrBackupNotFound, name, err)
	}
	return DecodeSnapshot(data)
}

// notFound traduce los errores de nombre inválido o archivo inexistente a ErrBackupNotFound.
func notFound(name string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}
	return err
}
