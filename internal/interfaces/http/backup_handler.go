package http

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-app/internal/application/backup"
	"github.com/jhoicas/facturacion-app/internal/application/dto"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/pkg/logger"
)

//go:generate mockgen -source=backup_handler.go -destination=backup_manager_mock.go -package=http

// BackupManager operaciones de copia de seguridad que usa el handler.
type BackupManager interface {
	CreateBackup(ctx context.Context) (string, error)
	List(ctx context.Context) ([]entity.BackupFile, error)
	Open(ctx context.Context, name string) (io.ReadCloser, entity.BackupFile, error)
	Delete(ctx context.Context, name string) error
	Restore(ctx context.Context, name string, policy backup.Policy) (*backup.RestoreReport, error)
	DefaultPolicy() backup.Policy
}

// BackupHandler endpoints de administración de copias (solo ROLE_ADMIN).
type BackupHandler struct {
	mgr BackupManager
	log *logger.Logger
	// restoring serializa las restauraciones; una segunda petición concurrente recibe 409.
	restoring sync.Mutex
}

// NewBackupHandler construye el handler.
func NewBackupHandler(mgr BackupManager, log *logger.Logger) *BackupHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &BackupHandler{mgr: mgr, log: log.Named("http.backup")}
}

// List godoc
// @Summary      Listar copias de seguridad (más nueva primero)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  dto.BackupFileResponse
// @Router       /api/admin/backups [get]
func (h *BackupHandler) List(c *fiber.Ctx) error {
	files, err := h.mgr.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.BackupFileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, dto.BackupFileResponse{Name: f.Name, Size: f.Size, CreatedAt: f.ModTime})
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear una copia de seguridad
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  dto.CreateBackupResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/admin/backups [post]
func (h *BackupHandler) Create(c *fiber.Ctx) error {
	name, err := h.mgr.CreateBackup(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().Str("file", name).Str("by", GetUsername(c)).Msg("copia creada desde la API")
	return c.Status(fiber.StatusCreated).JSON(dto.CreateBackupResponse{
		Name:    name,
		Message: "Copia de seguridad creada: " + name,
	})
}

// Download godoc
// @Summary      Descargar una copia de seguridad
// @Tags         admin
// @Produce      application/json
// @Security     BearerAuth
// @Param        name  path  string  true  "nombre del archivo"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/backups/{name} [get]
func (h *BackupHandler) Download(c *fiber.Ctx) error {
	rc, file, err := h.mgr.Open(c.UserContext(), c.Params("name"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.Name+`"`)
	c.Set(fiber.HeaderContentLength, strconv.FormatInt(file.Size, 10))
	return c.SendStream(rc, int(file.Size))
}

// Restore godoc
// @Summary      Restaurar una copia de seguridad
// @Description  Sustituye todo el contenido del almacén por el de la copia.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        name    path   string  true   "nombre del archivo"
// @Param        policy  query  string  false  "isolated | atomic"
// @Success      200  {object}  dto.RestoreResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.RestoreResponse
// @Router       /api/admin/backups/{name}/restore [post]
func (h *BackupHandler) Restore(c *fiber.Ctx) error {
	policy, err := backup.ParsePolicy(c.Query("policy"), h.mgr.DefaultPolicy())
	if err != nil {
		return writeError(c, err)
	}
	if !h.restoring.TryLock() {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "RESTORE_IN_PROGRESS",
			Message: "ya hay una restauración en curso",
		})
	}
	defer h.restoring.Unlock()

	name := c.Params("name")
	h.log.Warn().Str("file", name).Str("policy", string(policy)).Str("by", GetUsername(c)).Msg("restauración solicitada")
	report, err := h.mgr.Restore(c.UserContext(), name, policy)
	if err != nil {
		if report != nil && errors.Is(err, backup.ErrRestoreAborted) {
			resp := toRestoreResponse(report)
			resp.Message = err.Error()
			return c.Status(fiber.StatusInternalServerError).JSON(resp)
		}
		return writeError(c, err)
	}
	return c.JSON(toRestoreResponse(report))
}

// Delete godoc
// @Summary      Borrar una copia de seguridad
// @Tags         admin
// @Security     BearerAuth
// @Param        name  path  string  true  "nombre del archivo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/backups/{name} [delete]
func (h *BackupHandler) Delete(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.mgr.Delete(c.UserContext(), name); err != nil {
		return writeError(c, err)
	}
	h.log.Info().Str("file", name).Str("by", GetUsername(c)).Msg("copia borrada")
	return c.SendStatus(fiber.StatusNoContent)
}

func toRestoreResponse(r *backup.RestoreReport) dto.RestoreResponse {
	stages := make([]dto.RestoreStageResponse, 0, len(r.Stages))
	for _, s := range r.Stages {
		stages = append(stages, dto.RestoreStageResponse{
			Stage:    string(s.Stage),
			Restored: s.Restored,
			Failed:   s.Failed,
			Gaps:     s.Gaps,
			Error:    s.Error,
		})
	}
	return dto.RestoreResponse{
		RestoreID:    r.ID.String(),
		File:         r.File,
		Policy:       string(r.Policy),
		Status:       string(r.Status()),
		Message:      r.Message(),
		SafetyBackup: r.SafetyBackup,
		Stages:       stages,
	}
}
