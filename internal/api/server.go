package api

import (
	"fmt"
	"log"
	"net/http"

	"tiketi/internal/cache"
	"tiketi/internal/config"
	"tiketi/internal/database"
	"tiketi/internal/external"
	"tiketi/internal/handlers"
	"tiketi/internal/messaging"
	"tiketi/internal/middleware"
	"tiketi/internal/notify"
	"tiketi/internal/repository"
	"tiketi/internal/search"
	"tiketi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the HTTP surface of the purchase pipeline
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	notifier *notify.Notifier
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
}

// NewServer connects all dependencies and builds the router
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	// Valkey and Elasticsearch are optional at startup: auth falls back to
	// the database and search to plain listing
	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		log.Printf("Valkey unavailable, continuing without cache: %v", err)
		valkeyClient = nil
	}

	searchClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		log.Printf("Elasticsearch unavailable, continuing without search: %v", err)
		searchClient = nil
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)
	notifier := notify.New(natsClient, cfg.NotifyBuffer)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, paymentClient, notifier, searchClient, cfg.Payment.Timeout)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		notifier: notifier,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
	}

	server.setupRoutes(paymentClient)

	return server
}

func (s *Server) setupRoutes(paymentClient *external.PaymentClient) {
	h := handlers.NewHandlers(s.services, paymentClient, s.valkey)

	// Webhook is signed by the gateway, not basic-authed
	s.router.POST("/api/payments/webhook", h.OnGatewayNotification)

	api := s.router.Group("/api")
	api.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
	{
		purchases := api.Group("/purchases")
		{
			purchases.POST("", h.CreatePurchase)
		}

		transactions := api.Group("/transactions")
		{
			transactions.GET("/consumer", h.ConsumerTransactions)
			transactions.GET("/creator", h.CreatorTransactions)
		}

		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("", h.ListEvents)
			events.GET("/:id", h.GetEvent)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	dbHealth := s.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if dbHealth.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   dbHealth.Status,
		"service":  "tiketi-api",
		"database": dbHealth,
	})
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter returns the router for testing
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes connections
func (s *Server) Cleanup() error {
	if s.notifier != nil {
		s.notifier.Close()
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Printf("Error closing Valkey connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
