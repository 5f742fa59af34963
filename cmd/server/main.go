package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/second-dawn/internal/auth"
	"github.com/freeeve/second-dawn/internal/config"
	"github.com/freeeve/second-dawn/internal/handler"
	"github.com/freeeve/second-dawn/internal/logger"
	"github.com/freeeve/second-dawn/internal/middleware"
	"github.com/freeeve/second-dawn/internal/repository/postgres"
	redisrepo "github.com/freeeve/second-dawn/internal/repository/redis"
	"github.com/freeeve/second-dawn/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Enable Redis keyspace notifications for phase deadline expiry events.
	if err := redisClient.Underlying().ConfigSet(context.Background(), "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (phase timers may not fire)")
	}

	// Repos
	userRepo := postgres.NewUserRepo(db)
	gameRepo := postgres.NewGameRepo(db)
	turnRepo := postgres.NewTurnRepo(db)
	boardRepo := postgres.NewBoardRepo(db)
	reportRepo := postgres.NewCombatReportRepo(db)
	resourceRepo := postgres.NewResourceRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	googleOAuth := auth.NewGoogleOAuth(
		os.Getenv("GOOGLE_CLIENT_ID"),
		os.Getenv("GOOGLE_CLIENT_SECRET"),
		os.Getenv("GOOGLE_REDIRECT_URL"),
	)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	locks := service.NewGameLocks()
	effects := service.NewEffectRegistry(boardRepo)
	gameSvc := service.NewGameService(gameRepo, boardRepo, resourceRepo, redisClient)
	turnSvc := service.NewTurnService(gameRepo, turnRepo, effects, redisClient, wsHub, locks)
	combatSvc := service.NewCombatService(gameRepo, boardRepo, reportRepo, wsHub, locks, nil)
	phaseSvc := service.NewPhaseService(
		gameRepo, turnRepo, combatSvc,
		[]service.UpkeepRunner{service.NewResourceUpkeep(resourceRepo)},
		redisClient, wsHub, locks,
	)

	// Timer listener (auto-advance on deadline expiry)
	timerListener := service.NewTimerListener(redisClient.Underlying(), phaseSvc, gameRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(googleOAuth, jwtMgr, userRepo)
	userHandler := handler.NewUserHandler(userRepo)
	gameHandler := handler.NewGameHandler(gameSvc, wsHub)
	turnHandler := handler.NewTurnHandler(turnSvc, phaseSvc)
	combatHandler := handler.NewCombatHandler(combatSvc)
	boardHandler := handler.NewBoardHandler(gameRepo, boardRepo, resourceRepo)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /users/me", userHandler.GetMe)
	api.HandleFunc("PATCH /users/me", userHandler.UpdateMe)
	api.HandleFunc("GET /users/{id}", userHandler.GetUser)
	api.HandleFunc("POST /games", gameHandler.CreateGame)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	api.HandleFunc("POST /games/{id}/start", gameHandler.StartGame)
	api.HandleFunc("POST /games/{id}/invites", gameHandler.CreateInvite)
	api.HandleFunc("POST /invites/{token}/join", gameHandler.JoinByInvite)
	api.HandleFunc("GET /games/{id}/scores", gameHandler.GetScores)
	api.HandleFunc("GET /games/{id}/board", boardHandler.GetBoard)
	api.HandleFunc("GET /games/{id}/resources", boardHandler.GetMyResources)
	api.HandleFunc("POST /games/{id}/actions", turnHandler.SubmitAction)
	api.HandleFunc("GET /games/{id}/actions", turnHandler.ListActions)
	api.HandleFunc("POST /games/{id}/phase/advance", turnHandler.AdvancePhase)
	api.HandleFunc("POST /games/{id}/retreats", combatHandler.RetreatShip)
	api.HandleFunc("GET /games/{id}/combat-reports", combatHandler.ListReports)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Recover active games (rehydrate Redis from Postgres after restart)
	if err := phaseSvc.RecoverActiveGames(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to recover active games (non-fatal)")
	}

	// Start timer listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go timerListener.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
