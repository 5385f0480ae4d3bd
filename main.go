package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"
	"golang.org/x/crypto/bcrypt"

	"lods/internal/config"
	"lods/internal/database"
	"lods/internal/handlers"
	"lods/internal/middleware"
	"lods/internal/models"
	"lods/internal/realtime"
	"lods/internal/repositories"
	"lods/internal/services"
	"lods/pkg/rabbitmq"

	"github.com/google/uuid"
)

func main() {
	cfg := config.Load()

	// --- Database ---
	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// --- RabbitMQ (optional) ---
	// The order flow works without the broker: publications are best effort
	// and skipped when the client is nil.
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, order events disabled: %v", err)
			mqClient = nil
		} else {
			defer mqClient.Close()
		}
	}

	// --- Redis (optional, report cache) ---
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// Seed manager account so a fresh deployment can log in.
	seedManager(userRepo, cfg)

	// --- Realtime hub ---
	hub := realtime.NewHub()

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, cfg.PasswordFreshness)
	locationService := services.NewLocationService(cfg.BaseDeliveryFee)
	var publisher services.EventPublisher
	if mqClient != nil {
		publisher = mqClient
	}
	orderService := services.NewOrderService(orderRepo, userRepo, locationService, publisher, hub)
	riderService := services.NewRiderService(userRepo)
	reportService := services.NewReportService(orderRepo, redisClient)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(authService)
	orderHandler := handlers.NewOrderHandler(orderService)
	riderHandler := handlers.NewRiderHandler(riderService)
	reportHandler := handlers.NewReportHandler(reportService)
	locationHandler := handlers.NewLocationHandler(locationService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New()) // Request logger

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Public routes.
	authHandler.RegisterRoutes(apiV1)
	locationHandler.RegisterRoutes(apiV1)

	// Authenticated routes with a per-route role guard. The named order
	// routes must be registered before the shared /orders/:id route.
	authed := apiV1.Group("", middleware.AuthRequired(authService))
	profileHandler.RegisterRoutes(authed)

	customerOnly := middleware.RoleRequired(userRepo, models.RoleCustomer)
	riderOnly := middleware.RoleRequired(userRepo, models.RoleRider)
	managerOnly := middleware.RoleRequired(userRepo, models.RoleManager)

	orderHandler.RegisterCustomerRoutes(authed, customerOnly)
	orderHandler.RegisterRiderRoutes(authed, riderOnly)
	orderHandler.RegisterManagerRoutes(authed, managerOnly)
	riderHandler.RegisterRoutes(authed, managerOnly)
	reportHandler.RegisterRoutes(authed, managerOnly)

	orderHandler.RegisterCommonRoutes(authed)

	// --- RabbitMQ consumer ---
	// Drains the order event stream for operational visibility. Downstream
	// consumers (notifications, analytics) would bind their own queues.
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for order events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Order event %s: %s", msg.RoutingKey, string(msg.Body))
				return nil // Return nil to acknowledge
			}
			if consumerErr := mqClient.ConsumeOrderEvents("lods.orders.log", messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// seedManager creates the manager account on first boot. Managers are never
// self-service, so without the seed a fresh deployment has no way to
// provision riders.
func seedManager(userRepo repositories.UserRepository, cfg *config.Config) {
	if existing, err := userRepo.GetByEmail(cfg.ManagerEmail); err == nil && existing != nil {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.ManagerPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing manager password: %v", err)
		return
	}
	manager := &models.User{
		ID:       uuid.New().String(),
		Email:    cfg.ManagerEmail,
		Password: string(hashedPassword),
		Role:     models.RoleManager,
		FullName: cfg.ManagerName,
	}
	if err := userRepo.Create(manager); err != nil {
		log.Printf("Error seeding manager account: %v", err)
		return
	}
	log.Printf("Seeded manager account: %s", manager.Email)
}
