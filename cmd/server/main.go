package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fintrack/backend/docs"
	"github.com/fintrack/backend/internal/cache"
	"github.com/fintrack/backend/internal/database"
	"github.com/fintrack/backend/internal/lock"
	mW "github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/repository"
	"github.com/fintrack/backend/internal/scheduler"
	"github.com/fintrack/backend/internal/services"
)

// @title Fintrack Finance API
// @version 1.0
// @description Personal finance ledger with recurring transactions
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("jwt.refresh_expiry_days", "JWT_REFRESH_EXPIRY_DAYS")

	viper.SetDefault("jwt.expiry_hours", 1)
	viper.SetDefault("jwt.refresh_expiry_days", 7)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	docs.SwaggerInfo.Title = "Fintrack Finance API"
	docs.SwaggerInfo.BasePath = "/api/v1"

	// Initialize stores
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	recurringRepo := repository.NewRecurringRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	goalRepo := repository.NewGoalRepository(db)

	// Services
	appCache := cache.New(redisClient)
	authService := services.NewAuthService(userRepo, tokenRepo)
	walletService := services.NewWalletService(walletRepo, appCache)
	categoryService := services.NewCategoryService(categoryRepo)
	transactionService := services.NewTransactionService(ledgerRepo, walletRepo, categoryRepo)
	budgetService := services.NewBudgetService(budgetRepo, categoryRepo)
	goalService := services.NewGoalService(goalRepo)
	recurringService := services.NewRecurringService(db, recurringRepo, ledgerRepo, walletRepo, categoryRepo)

	// Trigger driver for the recurring engine and token cleanup
	gate := lock.NewGate(redisClient)
	driver := scheduler.NewDriver(gate, recurringService, tokenRepo)
	if err := driver.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer driver.Stop()

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "healthy", "database": "up", "redis": "up"}
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status["status"] = "degraded"
			status["database"] = "down"
			code = http.StatusServiceUnavailable
		}
		if redisClient == nil || redisClient.Ping(r.Context()).Err() != nil {
			status["redis"] = "down"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/users", authService.Register)
		r.Post("/sessions", authService.Login)
		r.Post("/sessions/refresh", authService.Refresh)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/me", authService.GetProfile)

			r.Post("/wallets", walletService.CreateWallet)
			r.Get("/wallets", walletService.ListWallets)
			r.Get("/wallets/{id}", walletService.GetWallet)
			r.Put("/wallets/{id}", walletService.UpdateWallet)
			r.Delete("/wallets/{id}", walletService.DeleteWallet)

			r.Post("/categories", categoryService.CreateCategory)
			r.Get("/categories", categoryService.ListCategories)
			r.Put("/categories/{id}", categoryService.UpdateCategory)
			r.Delete("/categories/{id}", categoryService.DeleteCategory)

			r.Post("/transactions", transactionService.CreateTransaction)
			r.Get("/transactions", transactionService.ListTransactions)

			r.Post("/budgets", budgetService.UpsertBudget)
			r.Get("/budgets", budgetService.ListBudgets)

			r.Post("/goals", goalService.CreateGoal)
			r.Get("/goals", goalService.ListGoals)
			r.Post("/goals/{id}/funds", goalService.AddFunds)

			r.Post("/recurring", recurringService.CreateRecurring)
			r.Get("/recurring", recurringService.ListRecurring)
			r.Delete("/recurring/{id}", recurringService.CancelRecurring)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
