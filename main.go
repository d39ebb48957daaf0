package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"katalog/internal/handlers"
	"katalog/internal/media"
	"katalog/internal/services"
	"katalog/internal/storage"
	"katalog/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	// Set up Viper to read configuration from environment variables
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATA_FILE", "data/products.json")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("RABBITMQ_URL", "") // empty disables event publishing
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	dataFile := viper.GetString("DATA_FILE")
	uploadDir := viper.GetString("UPLOAD_DIR")
	rabbitMQURL := viper.GetString("RABBITMQ_URL")

	// --- Initialize RabbitMQ Client (optional) ---
	// Product lifecycle events are published when a broker is configured;
	// without one the catalog runs standalone.
	var mqClient *rabbitmq.Client
	if rabbitMQURL != "" {
		var err error
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
	}

	// --- Initialize Storage ---
	// The product store mirrors the in-memory collection to one JSON
	// document; the ingestor owns the upload directory.
	store := storage.NewProductStore(dataFile)
	if err := store.Load(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load product store")
	}

	ingestor, err := media.NewIngestor(uploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize media ingestor")
	}

	// --- Initialize Services and Handlers ---
	productService := services.NewProductService(store, ingestor, mqClient)
	productHandler := handlers.NewProductHandler(productService)

	// --- Initialize Fiber App ---
	// The body limit must cover a full upload batch (10 images of 5 MiB
	// each) plus multipart overhead; Fiber's 4 MiB default would reject
	// valid uploads before the handler runs.
	app := fiber.New(fiber.Config{
		BodyLimit: 64 << 20,
	})

	// --- Middleware ---
	app.Use(logger.New()) // Request logger
	app.Use(cors.New())   // The admin UI is served from another origin

	// --- API Routes ---
	api := app.Group("/api")
	productHandler.RegisterRoutes(api)

	// --- Static Media ---
	// Every stored image is retrievable at /uploads/<filename>.
	app.Static("/uploads", uploadDir)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP Server ---
	log.Info().Str("port", appPort).Msg("Starting server")

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Info().Msg("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Error during Fiber shutdown")
	}

	log.Info().Msg("Server gracefully stopped")
}
