package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/WisemanUCE/omegaai-backend/internal/api/handlers"
	"github.com/WisemanUCE/omegaai-backend/internal/config"
	"github.com/WisemanUCE/omegaai-backend/internal/middleware"
	"github.com/WisemanUCE/omegaai-backend/internal/models"
	"github.com/WisemanUCE/omegaai-backend/internal/repository"
	"github.com/WisemanUCE/omegaai-backend/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	sharedSecret := os.Getenv("APPSTORE_SHARED_SECRET")
	if sharedSecret == "" {
		log.Fatal("APPSTORE_SHARED_SECRET environment variable is required")
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	sandbox := os.Getenv("APPSTORE_ENV") == "sandbox"

	quotaConfig := config.NewQuotaConfig()

	// Usage store: Redis when configured, in-memory otherwise
	var usageStore services.UsageStore
	cacheConfig := config.NewCacheConfig()
	if cacheConfig.Addr != "" {
		store, err := services.NewRedisUsageStore(cacheConfig, quotaConfig)
		if err != nil {
			log.Fatal("Failed to connect to Redis usage store:", err)
		}
		usageStore = store
		log.Printf("Using Redis usage store at %s", cacheConfig.Addr)
	} else {
		usageStore = services.NewMemoryUsageStore(quotaConfig)
		log.Print("Using in-memory usage store (counts reset on restart)")
	}

	// Optional request audit log
	var requestLogService services.RequestLogService
	if os.Getenv("DATABASE_URL") != "" {
		db, err := initDB()
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		requestLogService = services.NewRequestLogService(repository.NewRequestLogRepository(db))
	}

	// Initialize services
	verifier := services.NewAppleReceiptService(sharedSecret, sandbox)
	entitlements := services.NewEntitlementService()
	completions := services.NewOpenAICompletionService(openAIKey)
	chatService := services.NewChatService(verifier, entitlements, usageStore, completions)

	// Initialize handlers
	chatHandler := handlers.NewChatHandler(chatService, requestLogService)

	// Initialize router
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/", handlers.HealthCheckHandler()).Methods("GET")
	router.HandleFunc("/chat", chatHandler.Chat).Methods("POST")
	router.HandleFunc("/usage", chatHandler.Usage).Methods("POST")

	if requestLogService != nil {
		requestLogHandler := handlers.NewRequestLogHandler(chatService, requestLogService)
		router.HandleFunc("/logs", requestLogHandler.GetSubscriberLogs).Methods("POST")
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		MaxAge: 300, // Maximum value not ignored by any of major browsers
	})

	// Create server with timeouts; writes wait on the upstream completion call
	srv := &http.Server{
		Handler:      corsMiddleware.Handler(router),
		Addr:         ":" + getPort(),
		WriteTimeout: 90 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	// Start server
	log.Printf("Server starting on port %s...", getPort())
	log.Fatal(srv.ListenAndServe())
}

func initDB() (*gorm.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	// Configure GORM logger
	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Open connection
	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	// Get underlying *sql.DB instance for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting underlying *sql.DB instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(&models.RequestLog{}); err != nil {
		return nil, fmt.Errorf("error migrating database: %v", err)
	}

	return db, nil
}

func getPort() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return port
}
