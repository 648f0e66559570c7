// Package audit registra los intentos de inicio de sesión y permite consultarlos.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/internal/domain/repository"
	"github.com/jhoicas/facturacion-app/pkg/logger"
)

// RecentLimit cantidad de intentos devueltos por Recent.
const RecentLimit = 10

// Service escritor append-only del registro de accesos.
type Service struct {
	repo repository.LoginAuditRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewService construye el servicio.
func NewService(repo repository.LoginAuditRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, log: log.Named("audit"), now: time.Now}
}

// Record guarda un intento de login, exitoso o no.
func (s *Service) Record(ctx context.Context, username, ip, userAgent string, successful bool) error {
	a := &entity.LoginAudit{
		Username:   strings.TrimSpace(username),
		LoginTime:  s.now(),
		IPAddress:  ip,
		UserAgent:  userAgent,
		Successful: successful,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return fmt.Errorf("registrar intento de login: %w", err)
	}
	ev := s.log.Info()
	if !successful {
		ev = s.log.Warn()
	}
	ev.Str("username", a.Username).Str("ip", ip).Bool("successful", successful).Msg("intento de login")
	return nil
}

// Recent los últimos RecentLimit intentos, del más nuevo al más antiguo.
func (s *Service) Recent(ctx context.Context) ([]*entity.LoginAudit, error) {
	return s.repo.FindRecent(ctx, RecentLimit)
}

// Failed todos los intentos fallidos, del más nuevo al más antiguo.
func (s *Service) Failed(ctx context.Context) ([]*entity.LoginAudit, error) {
	return s.repo.FindFailed(ctx)
}

// ByUser historial de un usuario, del más nuevo al más antiguo.
func (s *Service) ByUser(ctx context.Context, username string) ([]*entity.LoginAudit, error) {
	return s.repo.FindByUsername(ctx, strings.TrimSpace(username))
}

// All todo el registro en orden cronológico.
func (s *Service) All(ctx context.Context) ([]*entity.LoginAudit, error) {
	return s.repo.FindAll(ctx)
}
