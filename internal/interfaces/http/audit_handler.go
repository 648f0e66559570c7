package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-app/internal/application/dto"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
)

// LoginAuditReader consultas sobre el registro de accesos.
type LoginAuditReader interface {
	Recent(ctx context.Context) ([]*entity.LoginAudit, error)
	Failed(ctx context.Context) ([]*entity.LoginAudit, error)
	ByUser(ctx context.Context, username string) ([]*entity.LoginAudit, error)
	All(ctx context.Context) ([]*entity.LoginAudit, error)
}

// AuditHandler expone el registro de accesos a los administradores.
type AuditHandler struct {
	audits LoginAuditReader
}

// NewAuditHandler construye el handler.
func NewAuditHandler(audits LoginAuditReader) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List godoc
// @Summary      Listar intentos de inicio de sesión
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        filter    query  string  false  "recent (por defecto) | failed | all"
// @Param        username  query  string  false  "historial de un usuario"
// @Success      200  {array}   dto.LoginAuditResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/admin/login-audits [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var q dto.LoginAuditQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if err := validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	ctx := c.UserContext()
	var (
		audits []*entity.LoginAudit
		err    error
	)
	switch {
	case q.Username != "":
		audits, err = h.audits.ByUser(ctx, q.Username)
	case q.Filter == "failed":
		audits, err = h.audits.Failed(ctx)
	case q.Filter == "all":
		audits, err = h.audits.All(ctx)
	default:
		audits, err = h.audits.Recent(ctx)
	}
	if err != nil {
		return writeError(c, err)
	}

	out := make([]dto.LoginAuditResponse, 0, len(audits))
	for _, a := range audits {
		out = append(out, dto.LoginAuditResponse{
			ID:         a.ID,
			Username:   a.Username,
			LoginTime:  a.LoginTime,
			IPAddress:  a.IPAddress,
			UserAgent:  a.UserAgent,
			Successful: a.Successful,
		})
	}
	return c.JSON(out)
}
