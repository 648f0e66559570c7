package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/facturacion-app/internal/application/auth"
	"github.com/jhoicas/facturacion-app/internal/domain/entity"
	"github.com/jhoicas/facturacion-app/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName    string
	AuthUC     *auth.AuthUseCase
	Audits     LoginAuditReader
	Backups    BackupManager
	InvoicePDF InvoicePDFDownloader
	JWTSecret  string
	Log        *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	requireAuth := AuthMiddleware(deps.JWTSecret)

	// Auth
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/password", requireAuth, authHandler.ChangePassword)

	// Invoices (autenticado)
	invoiceHandler := NewInvoiceHandler(deps.InvoicePDF)
	api.Get("/invoices/:id/pdf", requireAuth, invoiceHandler.DownloadPDF)

	// Admin (solo ROLE_ADMIN)
	admin := api.Group("/admin", requireAuth, RequireRole(string(entity.RoleAdmin)))

	backupHandler := NewBackupHandler(deps.Backups, deps.Log)
	admin.Get("/backups", backupHandler.List)
	admin.Post("/backups", backupHandler.Create)
	admin.Get("/backups/:name", backupHandler.Download)
	admin.Post("/backups/:name/restore", backupHandler.Restore)
	admin.Delete("/backups/:name", backupHandler.Delete)

	auditHandler := NewAuditHandler(deps.Audits)
	admin.Get("/login-audits", auditHandler.List)
}
