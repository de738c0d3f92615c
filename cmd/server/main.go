package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"committutor-backend/internal/config"
	"committutor-backend/internal/database"
	"committutor-backend/internal/handlers"
	"committutor-backend/internal/llm"
	"committutor-backend/internal/middleware"
	"committutor-backend/internal/repository"
	"committutor-backend/internal/router"
	"committutor-backend/internal/services"
	"committutor-backend/internal/websocket"
	"committutor-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Commit Tutor Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 5: Initialize LLM Client ────
	var llmClient llm.Client
	switch cfg.LLMProvider {
	case "gemini":
		geminiClient, err := llm.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.LLMMaxConcurrent)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer geminiClient.Close()
		llmClient = geminiClient
	default:
		llmClient = llm.NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.LLMMaxConcurrent)
	}
	log.Printf("✓ LLM client initialized (provider: %s)", cfg.LLMProvider)

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Initialize Services ────
	svcConfig := services.Config{
		QuizModel:             cfg.QuizModel,
		TopicModel:            cfg.TopicModel,
		ReviewModel:           cfg.ReviewModel,
		OutputLanguage:        cfg.OutputLanguage,
		MaxPatchChars:         cfg.DiffMaxPatchChars,
		MaxFilesPerCommit:     cfg.MaxFilesPerCommit,
		MaxOptionsPerQuestion: cfg.MaxOptionsPerQuestion,
	}

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, jwtAuth, cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURI)
	quizGenerator := services.NewQuizGenerator(llmClient, svcConfig)
	codeAnalyzer := services.NewCodeAnalyzer(llmClient, svcConfig)
	topicExtractor := services.NewTopicExtractor(llmClient, svcConfig)
	sessionService := services.NewLearningSessionService(llmClient, svcConfig)
	reviewGenerator := services.NewReviewGenerator(llmClient, svcConfig)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService, userRepo)
	repoHandler := handlers.NewRepoHandler()
	learningHandler := handlers.NewLearningHandler(quizGenerator, codeAnalyzer, topicExtractor, quizRepo, jobRepo, redisClients.Queue)
	quizHandler := handlers.NewQuizHandler(quizRepo, cfg.PassingScore)
	reviewHandler := handlers.NewReviewHandler(reviewGenerator, reviewRepo, quizRepo)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, sessionService, jobRepo, quizRepo, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		repoHandler,
		learningHandler,
		quizHandler,
		reviewHandler,
		jobHandler,
		wsHub,
		cfg.CORSOrigins,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Commit Tutor Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
