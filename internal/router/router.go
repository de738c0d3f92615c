package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"committutor-backend/internal/handlers"
	"committutor-backend/internal/middleware"
	"committutor-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	repoHandler *handlers.RepoHandler,
	learningHandler *handlers.LearningHandler,
	quizHandler *handlers.QuizHandler,
	reviewHandler *handlers.ReviewHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	corsOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(corsOrigins))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware)
				r.Get("/github/login", authHandler.LoginURL)
				r.Post("/github/callback", authHandler.Callback)
			})

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/me", authHandler.Me)
				r.Post("/onboarding", authHandler.CompleteOnboarding)
			})
		})

		// ──── Repository Browsing Routes ────
		r.Route("/repos", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", repoHandler.ListRepositories)
			r.Get("/{owner}/{repo}/branches", repoHandler.ListBranches)
			r.Get("/{owner}/{repo}/commits", repoHandler.ListCommits)
			r.Get("/{owner}/{repo}/commits/{sha}", repoHandler.GetCommit)
		})

		// ──── Generation Routes ────
		r.Route("/learning", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/quiz", learningHandler.GenerateQuiz)
			r.Post("/analyze", learningHandler.AnalyzeCommit)
			r.Post("/topics", learningHandler.ExtractTopics)
			r.Post("/session", learningHandler.GenerateSession)
		})

		// ──── Quiz Routes ────
		r.Route("/quizzes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", quizHandler.Save)
			r.Get("/", quizHandler.List)
			r.Get("/{id}", quizHandler.Get)
			r.Post("/{id}/submit", quizHandler.Submit)
			r.Delete("/{id}", quizHandler.Delete)
		})

		// ──── Review Routes ────
		r.Route("/reviews", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/generate", reviewHandler.Generate)
			r.Get("/", reviewHandler.List)
			r.Get("/{id}", reviewHandler.Get)
			r.Delete("/{id}", reviewHandler.Delete)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.Get)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
