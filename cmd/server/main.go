package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filedepot/backend/internal/cache"
	"github.com/filedepot/backend/internal/config"
	"github.com/filedepot/backend/internal/database"
	"github.com/filedepot/backend/internal/handlers"
	"github.com/filedepot/backend/internal/middleware"
	"github.com/filedepot/backend/internal/services"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	appLogger := logger.New(os.Stdout)

	cfg := config.Load()
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("configuration invalid: %v", err)
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	disk, err := storage.NewDisk(cfg.Storage, appLogger)
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}

	cacheBackend := cache.Connect(cfg.Redis, appLogger)
	cacheService := cache.NewService(cacheBackend, cfg.Cache.Prefix, appLogger)

	accessService := services.NewAccessService(db)
	thumbnailService := services.NewThumbnailService(db, disk, cfg.Storage, appLogger)
	folderService := services.NewFolderService(db, disk, cacheService, accessService, appLogger)
	fileService := services.NewFileService(db, disk, cacheService, accessService, thumbnailService, cfg.Storage, appLogger)

	foldersHandler := handlers.NewFoldersHandler(folderService)
	filesHandler := handlers.NewFilesHandler(fileService)
	requester := middleware.NewRequesterMiddleware(appLogger)

	app := fiber.New(fiber.Config{BodyLimit: int(cfg.Storage.MaxUploadSize) + 1024*1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":          "ok",
			"cache_backend":   cacheService.BackendName(),
			"cache_connected": cacheService.IsConnected(),
		})
	})

	api := app.Group("/api", requester.RequireRequester)

	folderRoutes := api.Group("/folders")
	folderRoutes.Post("/", foldersHandler.Create)
	folderRoutes.Get("/", foldersHandler.List)
	folderRoutes.Get("/tree", foldersHandler.Tree)
	folderRoutes.Get("/shared-with-me", foldersHandler.SharedWithMe)
	folderRoutes.Post("/:id/share", foldersHandler.Share)
	folderRoutes.Put("/:id", foldersHandler.Update)
	folderRoutes.Delete("/:id", foldersHandler.Delete)

	fileRoutes := api.Group("/files")
	fileRoutes.Post("/upload", filesHandler.Upload)
	fileRoutes.Post("/move", filesHandler.Move)
	fileRoutes.Get("/search", filesHandler.Search)
	fileRoutes.Get("/shared-with-me", filesHandler.SharedWithMe)
	fileRoutes.Get("/:id/download", filesHandler.Download)
	fileRoutes.Post("/:id/share", filesHandler.Share)
	fileRoutes.Put("/:id", filesHandler.Rename)
	fileRoutes.Delete("/:id", filesHandler.Delete)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	appLogger.Info("server_starting", map[string]interface{}{
		"port":          cfg.Server.Port,
		"upload_root":   cfg.Storage.UploadRoot,
		"cache_backend": cacheService.BackendName(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(cfg.Server.ShutdownTimeout):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
