package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alenk/profilio-api/internal/cache"
	"github.com/alenk/profilio-api/internal/config"
	"github.com/alenk/profilio-api/internal/database"
	"github.com/alenk/profilio-api/internal/events"
	"github.com/alenk/profilio-api/internal/handlers"
	authmw "github.com/alenk/profilio-api/internal/middleware"
	"github.com/alenk/profilio-api/internal/services"
	"github.com/alenk/profilio-api/internal/store"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	st := store.New(db)
	entityCache := cache.New(st, cfg.CacheSize, cfg.CacheTTL)
	limits := services.NewStaticLimits(cfg.ElevatedGuilds)

	hub := events.NewHub()
	go hub.Run()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	templateService := services.NewTemplateService(st, entityCache, limits)
	fieldService := services.NewFieldService(st, entityCache, limits)
	assembler := services.NewAssemblerService(entityCache)
	profileService := services.NewProfileService(st, entityCache, assembler, services.NewHubNotifier(hub), services.LogGranter{})
	sessionManager := services.NewSessionManager(templateService, fieldService, st, entityCache, limits, hub, cfg.SessionStepTimeout)

	templateHandler := handlers.NewTemplateHandler(templateService)
	sessionHandler := handlers.NewSessionHandler(sessionManager)
	profileHandler := handlers.NewProfileHandler(templateService, profileService, assembler)
	eventsHandler := handlers.NewEventsHandler(hub)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Get("/guilds/:guildId/templates", templateHandler.List)
	protected.Post("/guilds/:guildId/templates", templateHandler.Create)
	protected.Get("/guilds/:guildId/templates/:templateRef", templateHandler.Get)
	protected.Delete("/guilds/:guildId/templates/:templateRef", templateHandler.Delete)

	protected.Post("/guilds/:guildId/sessions", sessionHandler.Begin)
	protected.Get("/guilds/:guildId/sessions/:sessionId", sessionHandler.Get)
	protected.Post("/guilds/:guildId/sessions/:sessionId/select", sessionHandler.Select)
	protected.Post("/guilds/:guildId/sessions/:sessionId/value", sessionHandler.Submit)
	protected.Delete("/guilds/:guildId/sessions/:sessionId", sessionHandler.Cancel)

	protected.Post("/guilds/:guildId/templates/:templateRef/profiles", profileHandler.Create)
	protected.Get("/guilds/:guildId/templates/:templateRef/profiles/:ownerId/:profileName", profileHandler.Get)
	protected.Delete("/guilds/:guildId/templates/:templateRef/profiles/:ownerId/:profileName", profileHandler.Delete)
	protected.Post("/guilds/:guildId/templates/:templateRef/profiles/:ownerId/:profileName/verify", profileHandler.Verify)
	protected.Post("/guilds/:guildId/templates/:templateRef/profiles/:ownerId/:profileName/archive", profileHandler.Archive)
	protected.Patch("/guilds/:guildId/fields/:fieldId/value", profileHandler.SetValue)

	protected.Get("/guilds/:guildId/events", eventsHandler.Connect)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
