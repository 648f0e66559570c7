package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/text/language"

	"github.com/jhoicas/facturacion-app/internal/application/audit"
	"github.com/jhoicas/facturacion-app/internal/application/auth"
	"github.com/jhoicas/facturacion-app/internal/application/billing"
	"github.com/jhoicas/facturacion-app/internal/bootstrap"
	infrapdf "github.com/jhoicas/facturacion-app/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/facturacion-app/internal/interfaces/http"
	"github.com/jhoicas/facturacion-app/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := bootstrap.NewLogger(cfg)
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer store.Close()

	if err := bootstrap.Seed(ctx, cfg, store, log); err != nil {
		log.Fatal().Err(err).Msg("datos iniciales")
	}

	backupSvc := bootstrap.NewBackupService(cfg, store, log)
	auditSvc := audit.NewService(store.Repos.LoginAudits, log)
	authUC := auth.NewAuthUseCase(store.Repos.Users, auditSvc, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)

	pdfGenerator := infrapdf.NewMarotoPDFGenerator(language.Spanish, "PLN")
	invoicePDFUC := billing.NewPDFUseCase(store.Repos.Invoices, store.Repos.Companies, pdfGenerator)

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		// La restauración puede tardar: solo se acota la lectura de la petición.
		ReadTimeout: time.Second * 10,
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Facturación API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AppName:    cfg.App.Name,
		AuthUC:     authUC,
		Audits:     auditSvc,
		Backups:    backupSvc,
		InvoicePDF: invoicePDFUC,
		JWTSecret:  cfg.JWT.Secret,
		Log:        log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
